package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/eventing"
	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/ingestion/application/events"
	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/observability/metrics"
	telemetry "github.com/4prathamesh/Energy-Ingestion-Engine/internal/telemetry/domain"
)

// Ack acknowledges a durable ingest.
type Ack struct {
	DeviceID string
	EventID  string
	Message  string
}

// Clock supplies the current time; injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}

// Service routes one incoming event to the history store and the live
// status projection. The two writes are dependent, not transactional:
// when the append succeeds and the upsert fails the event stays in history
// and the caller gets ErrProjectionUpdateFailed so it can retry the whole
// ingest. A retry re-appends the event, so sum-based analytics may count
// it twice; at-least-once semantics are accepted here.
type Service struct {
	meterHistory   telemetry.MeterHistoryStore
	meterStatus    telemetry.MeterStatusStore
	vehicleHistory telemetry.VehicleHistoryStore
	vehicleStatus  telemetry.VehicleStatusStore
	bus            eventing.Bus
	clock          Clock
	logger         *log.Logger
}

// NewService constructs the ingestion coordinator.
func NewService(
	meterHistory telemetry.MeterHistoryStore,
	meterStatus telemetry.MeterStatusStore,
	vehicleHistory telemetry.VehicleHistoryStore,
	vehicleStatus telemetry.VehicleStatusStore,
	bus eventing.Bus,
	clock Clock,
	logger *log.Logger,
) (*Service, error) {
	if meterHistory == nil || vehicleHistory == nil {
		return nil, errors.New("ingestion service: nil history store")
	}
	if meterStatus == nil || vehicleStatus == nil {
		return nil, errors.New("ingestion service: nil status store")
	}
	if clock == nil {
		return nil, errors.New("ingestion service: nil clock")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		meterHistory:   meterHistory,
		meterStatus:    meterStatus,
		vehicleHistory: vehicleHistory,
		vehicleStatus:  vehicleStatus,
		bus:            bus,
		clock:          clock,
		logger:         logger,
	}, nil
}

// IngestMeter validates and persists one meter event.
func (s *Service) IngestMeter(ctx context.Context, event telemetry.MeterEvent) (Ack, error) {
	start := s.clock.Now()
	ack, err := s.ingestMeter(ctx, event)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveIngest(events.DeviceClassMeter, result, s.clock.Now().Sub(start))
	return ack, err
}

func (s *Service) ingestMeter(ctx context.Context, event telemetry.MeterEvent) (Ack, error) {
	if err := event.Validate(); err != nil {
		metrics.IncIngestError("validation")
		return Ack{}, err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if err := s.meterHistory.Append(ctx, event); err != nil {
		metrics.IncIngestError("history_append")
		return Ack{}, fmt.Errorf("ingest meter %s: history append: %w", event.MeterID, err)
	}

	status := telemetry.MeterStatus{
		MeterID:           event.MeterID,
		LastKwhConsumedAc: event.KwhConsumedAc,
		LastVoltage:       event.Voltage,
		UpdatedAt:         s.clock.Now(),
	}
	if err := s.meterStatus.Upsert(ctx, status); err != nil {
		metrics.IncIngestError("status_upsert")
		return Ack{}, fmt.Errorf("ingest meter %s: %w: %v", event.MeterID, telemetry.ErrProjectionUpdateFailed, err)
	}

	s.publishReceived(ctx, events.TelemetryReceived{
		EventID:     event.ID,
		DeviceClass: events.DeviceClassMeter,
		DeviceID:    event.MeterID,
		Readings: map[string]float64{
			"kwh_consumed_ac": event.KwhConsumedAc,
			"voltage":         event.Voltage,
		},
		TS:         event.TS,
		OccurredAt: s.clock.Now(),
	})

	return Ack{
		DeviceID: event.MeterID,
		EventID:  event.ID,
		Message:  fmt.Sprintf("Meter %s data ingested successfully", event.MeterID),
	}, nil
}

// IngestVehicle validates and persists one vehicle event.
func (s *Service) IngestVehicle(ctx context.Context, event telemetry.VehicleEvent) (Ack, error) {
	start := s.clock.Now()
	ack, err := s.ingestVehicle(ctx, event)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveIngest(events.DeviceClassVehicle, result, s.clock.Now().Sub(start))
	return ack, err
}

func (s *Service) ingestVehicle(ctx context.Context, event telemetry.VehicleEvent) (Ack, error) {
	if err := event.Validate(); err != nil {
		metrics.IncIngestError("validation")
		return Ack{}, err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if err := s.vehicleHistory.Append(ctx, event); err != nil {
		metrics.IncIngestError("history_append")
		return Ack{}, fmt.Errorf("ingest vehicle %s: history append: %w", event.VehicleID, err)
	}

	status := telemetry.VehicleStatus{
		VehicleID:          event.VehicleID,
		SOC:                event.SOC,
		LastKwhDeliveredDc: event.KwhDeliveredDc,
		LastBatteryTemp:    event.BatteryTemp,
		UpdatedAt:          s.clock.Now(),
	}
	if err := s.vehicleStatus.Upsert(ctx, status); err != nil {
		metrics.IncIngestError("status_upsert")
		return Ack{}, fmt.Errorf("ingest vehicle %s: %w: %v", event.VehicleID, telemetry.ErrProjectionUpdateFailed, err)
	}

	s.publishReceived(ctx, events.TelemetryReceived{
		EventID:     event.ID,
		DeviceClass: events.DeviceClassVehicle,
		DeviceID:    event.VehicleID,
		Readings: map[string]float64{
			"soc":              float64(event.SOC),
			"kwh_delivered_dc": event.KwhDeliveredDc,
			"battery_temp":     event.BatteryTemp,
		},
		TS:         event.TS,
		OccurredAt: s.clock.Now(),
	})

	return Ack{
		DeviceID: event.VehicleID,
		EventID:  event.ID,
		Message:  fmt.Sprintf("Vehicle %s data ingested successfully", event.VehicleID),
	}, nil
}

// publishReceived is best-effort: bus failures are logged, never surfaced,
// because the ingest is already durable by the time the event fires.
func (s *Service) publishReceived(ctx context.Context, event events.TelemetryReceived) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Printf("telemetry received publish error: device=%s: %v", event.DeviceID, err)
	}
}
