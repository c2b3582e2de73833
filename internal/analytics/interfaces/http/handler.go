package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/analytics/application"
	telemetry "github.com/4prathamesh/Energy-Ingestion-Engine/internal/telemetry/domain"
)

// PerformanceHandler serves GET /v1/analytics/performance/{vehicleId}.
type PerformanceHandler struct {
	service *application.Service
	logger  *log.Logger
}

// NewPerformanceHandler constructs the handler.
func NewPerformanceHandler(service *application.Service, logger *log.Logger) (*PerformanceHandler, error) {
	if service == nil {
		return nil, errors.New("performance handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &PerformanceHandler{service: service, logger: logger}, nil
}

// ServeHTTP handles a performance query.
func (h *PerformanceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	vehicleID := strings.TrimPrefix(r.URL.Path, "/v1/analytics/performance/")
	if vehicleID == "" || strings.Contains(vehicleID, "/") {
		http.Error(w, "vehicle id required", http.StatusBadRequest)
		return
	}

	report, err := h.service.GetPerformance(r.Context(), vehicleID)
	if err != nil {
		h.logger.Printf("performance query: %v", err)
		switch {
		case errors.Is(err, telemetry.ErrNotFound):
			http.Error(w, "vehicle "+vehicleID+" not found in system", http.StatusNotFound)
		case errors.Is(err, telemetry.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "analytics query error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}
