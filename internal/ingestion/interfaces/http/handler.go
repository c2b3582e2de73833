package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/ingestion/application"
	telemetry "github.com/4prathamesh/Energy-Ingestion-Engine/internal/telemetry/domain"
)

// Handler serves the ingestion API:
//
//	POST /v1/ingestion/meter
//	POST /v1/ingestion/vehicle
//	GET  /v1/ingestion/meter/{id}/status
//	GET  /v1/ingestion/vehicle/{id}/status
type Handler struct {
	service       *application.Service
	meterStatus   telemetry.MeterStatusStore
	vehicleStatus telemetry.VehicleStatusStore
	logger        *log.Logger
}

// NewHandler constructs the ingestion handler.
func NewHandler(service *application.Service, meterStatus telemetry.MeterStatusStore, vehicleStatus telemetry.VehicleStatusStore, logger *log.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("ingestion handler: nil service")
	}
	if meterStatus == nil || vehicleStatus == nil {
		return nil, errors.New("ingestion handler: nil status store")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{service: service, meterStatus: meterStatus, vehicleStatus: vehicleStatus, logger: logger}, nil
}

type meterRequest struct {
	MeterID       string  `json:"meterId"`
	KwhConsumedAc float64 `json:"kwhConsumedAc"`
	Voltage       float64 `json:"voltage"`
	Timestamp     string  `json:"timestamp"`
}

type vehicleRequest struct {
	VehicleID      string  `json:"vehicleId"`
	SOC            int     `json:"soc"`
	KwhDeliveredDc float64 `json:"kwhDeliveredDc"`
	BatteryTemp    float64 `json:"batteryTemp"`
	Timestamp      string  `json:"timestamp"`
}

type ingestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ServeHTTP dispatches by path under /v1/ingestion/.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/ingestion/")
	switch {
	case rest == "meter" && r.Method == http.MethodPost:
		h.ingestMeter(w, r)
	case rest == "vehicle" && r.Method == http.MethodPost:
		h.ingestVehicle(w, r)
	case r.Method == http.MethodGet && strings.HasSuffix(rest, "/status"):
		h.liveStatus(w, r, strings.TrimSuffix(rest, "/status"))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) ingestMeter(w http.ResponseWriter, r *http.Request) {
	var req meterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Printf("meter ingest: decode error: %v", err)
		writeIngestError(w, http.StatusBadRequest, "invalid json")
		return
	}
	defer r.Body.Close()

	ts, err := parseTimestamp(req.Timestamp)
	if err != nil {
		writeIngestError(w, http.StatusBadRequest, err.Error())
		return
	}

	ack, err := h.service.IngestMeter(r.Context(), telemetry.MeterEvent{
		MeterID:       req.MeterID,
		KwhConsumedAc: req.KwhConsumedAc,
		Voltage:       req.Voltage,
		TS:            ts,
	})
	if err != nil {
		h.writeServiceError(w, "meter ingest", err)
		return
	}
	writeJSON(w, http.StatusOK, ingestResponse{Success: true, Message: ack.Message})
}

func (h *Handler) ingestVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Printf("vehicle ingest: decode error: %v", err)
		writeIngestError(w, http.StatusBadRequest, "invalid json")
		return
	}
	defer r.Body.Close()

	ts, err := parseTimestamp(req.Timestamp)
	if err != nil {
		writeIngestError(w, http.StatusBadRequest, err.Error())
		return
	}

	ack, err := h.service.IngestVehicle(r.Context(), telemetry.VehicleEvent{
		VehicleID:      req.VehicleID,
		SOC:            req.SOC,
		KwhDeliveredDc: req.KwhDeliveredDc,
		BatteryTemp:    req.BatteryTemp,
		TS:             ts,
	})
	if err != nil {
		h.writeServiceError(w, "vehicle ingest", err)
		return
	}
	writeJSON(w, http.StatusOK, ingestResponse{Success: true, Message: ack.Message})
}

func (h *Handler) liveStatus(w http.ResponseWriter, r *http.Request, rest string) {
	class, id, ok := strings.Cut(rest, "/")
	if !ok || id == "" {
		writeIngestError(w, http.StatusBadRequest, "device id required")
		return
	}

	switch class {
	case "meter":
		status, err := h.meterStatus.Get(r.Context(), id)
		if err != nil {
			h.writeServiceError(w, "meter status", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"meterId":           status.MeterID,
			"lastKwhConsumedAc": status.LastKwhConsumedAc,
			"lastVoltage":       status.LastVoltage,
			"updatedAt":         status.UpdatedAt,
		})
	case "vehicle":
		status, err := h.vehicleStatus.Get(r.Context(), id)
		if err != nil {
			h.writeServiceError(w, "vehicle status", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"vehicleId":          status.VehicleID,
			"soc":                status.SOC,
			"lastKwhDeliveredDc": status.LastKwhDeliveredDc,
			"lastBatteryTemp":    status.LastBatteryTemp,
			"updatedAt":          status.UpdatedAt,
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	h.logger.Printf("%s: %v", op, err)
	switch {
	case errors.Is(err, telemetry.ErrValidation):
		writeIngestError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, telemetry.ErrNotFound):
		writeIngestError(w, http.StatusNotFound, err.Error())
	default:
		writeIngestError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("timestamp is required")
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.New("timestamp must be RFC3339")
	}
	return ts.UTC(), nil
}

func writeIngestError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, ingestResponse{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
