package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	telemetry "github.com/4prathamesh/Energy-Ingestion-Engine/internal/telemetry/domain"
)

// MeterHistoryStore is an in-memory append-only meter history.
type MeterHistoryStore struct {
	mu     sync.RWMutex
	events []telemetry.MeterEvent
}

// NewMeterHistoryStore constructs a store.
func NewMeterHistoryStore() *MeterHistoryStore {
	return &MeterHistoryStore{}
}

// Append stores one event.
func (s *MeterHistoryStore) Append(ctx context.Context, event telemetry.MeterEvent) error {
	_ = ctx
	if err := event.Validate(); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

// QueryWindow aggregates events within [start, end], both bounds inclusive.
func (s *MeterHistoryStore) QueryWindow(ctx context.Context, meterID string, start, end time.Time) (telemetry.WindowAggregate, error) {
	_ = ctx

	var agg telemetry.WindowAggregate
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, event := range s.events {
		if event.MeterID != meterID || !inWindow(event.TS, start, end) {
			continue
		}
		agg.TotalKwh += event.KwhConsumedAc
		agg.DataPoints++
	}
	return agg, nil
}

// Len returns the number of stored events, for append-only assertions.
func (s *MeterHistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// VehicleHistoryStore is an in-memory append-only vehicle history.
type VehicleHistoryStore struct {
	mu     sync.RWMutex
	events []telemetry.VehicleEvent
}

// NewVehicleHistoryStore constructs a store.
func NewVehicleHistoryStore() *VehicleHistoryStore {
	return &VehicleHistoryStore{}
}

// Append stores one event.
func (s *VehicleHistoryStore) Append(ctx context.Context, event telemetry.VehicleEvent) error {
	_ = ctx
	if err := event.Validate(); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

// QueryWindow aggregates events within [start, end], both bounds inclusive.
func (s *VehicleHistoryStore) QueryWindow(ctx context.Context, vehicleID string, start, end time.Time) (telemetry.WindowAggregate, error) {
	_ = ctx

	var agg telemetry.WindowAggregate
	var tempSum float64
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, event := range s.events {
		if event.VehicleID != vehicleID || !inWindow(event.TS, start, end) {
			continue
		}
		agg.TotalKwh += event.KwhDeliveredDc
		tempSum += event.BatteryTemp
		agg.DataPoints++
	}
	if agg.DataPoints > 0 {
		agg.AvgBatteryTemp = tempSum / float64(agg.DataPoints)
	}
	return agg, nil
}

// Len returns the number of stored events, for append-only assertions.
func (s *VehicleHistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func inWindow(ts, start, end time.Time) bool {
	return !ts.Before(start) && !ts.After(end)
}
