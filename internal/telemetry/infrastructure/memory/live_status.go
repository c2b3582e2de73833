package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	telemetry "github.com/4prathamesh/Energy-Ingestion-Engine/internal/telemetry/domain"
)

// MeterStatusStore is an in-memory live meter projection.
type MeterStatusStore struct {
	mu   sync.RWMutex
	data map[string]telemetry.MeterStatus
}

// NewMeterStatusStore constructs a store.
func NewMeterStatusStore() *MeterStatusStore {
	return &MeterStatusStore{data: make(map[string]telemetry.MeterStatus)}
}

// Upsert replaces or inserts the meter row.
func (s *MeterStatusStore) Upsert(ctx context.Context, status telemetry.MeterStatus) error {
	_ = ctx
	if status.MeterID == "" {
		return errors.New("meter status: empty meter id")
	}
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.data[status.MeterID] = status
	s.mu.Unlock()
	return nil
}

// Exists reports whether a row is present for the meter id.
func (s *MeterStatusStore) Exists(ctx context.Context, meterID string) (bool, error) {
	_ = ctx
	s.mu.RLock()
	_, ok := s.data[meterID]
	s.mu.RUnlock()
	return ok, nil
}

// Get loads the meter row.
func (s *MeterStatusStore) Get(ctx context.Context, meterID string) (telemetry.MeterStatus, error) {
	_ = ctx
	s.mu.RLock()
	status, ok := s.data[meterID]
	s.mu.RUnlock()
	if !ok {
		return telemetry.MeterStatus{}, telemetry.ErrNotFound
	}
	return status, nil
}

// VehicleStatusStore is an in-memory live vehicle projection.
type VehicleStatusStore struct {
	mu   sync.RWMutex
	data map[string]telemetry.VehicleStatus
}

// NewVehicleStatusStore constructs a store.
func NewVehicleStatusStore() *VehicleStatusStore {
	return &VehicleStatusStore{data: make(map[string]telemetry.VehicleStatus)}
}

// Upsert replaces or inserts the vehicle row.
func (s *VehicleStatusStore) Upsert(ctx context.Context, status telemetry.VehicleStatus) error {
	_ = ctx
	if status.VehicleID == "" {
		return errors.New("vehicle status: empty vehicle id")
	}
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.data[status.VehicleID] = status
	s.mu.Unlock()
	return nil
}

// Exists reports whether a row is present for the vehicle id.
func (s *VehicleStatusStore) Exists(ctx context.Context, vehicleID string) (bool, error) {
	_ = ctx
	s.mu.RLock()
	_, ok := s.data[vehicleID]
	s.mu.RUnlock()
	return ok, nil
}

// Get loads the vehicle row.
func (s *VehicleStatusStore) Get(ctx context.Context, vehicleID string) (telemetry.VehicleStatus, error) {
	_ = ctx
	s.mu.RLock()
	status, ok := s.data[vehicleID]
	s.mu.RUnlock()
	if !ok {
		return telemetry.VehicleStatus{}, telemetry.ErrNotFound
	}
	return status, nil
}
