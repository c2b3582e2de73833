package telemetry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// MeterEvent is one grid-side meter sample. History rows are immutable
// once appended.
type MeterEvent struct {
	ID            string
	MeterID       string
	KwhConsumedAc float64
	Voltage       float64
	TS            time.Time
}

// VehicleEvent is one vehicle/charger sample.
type VehicleEvent struct {
	ID             string
	VehicleID      string
	SOC            int
	KwhDeliveredDc float64
	BatteryTemp    float64
	TS             time.Time
}

// MeterStatus is the last-known meter reading, one row per meter id.
type MeterStatus struct {
	MeterID           string
	LastKwhConsumedAc float64
	LastVoltage       float64
	UpdatedAt         time.Time
}

// VehicleStatus is the last-known vehicle reading, one row per vehicle id.
type VehicleStatus struct {
	VehicleID          string
	SOC                int
	LastKwhDeliveredDc float64
	LastBatteryTemp    float64
	UpdatedAt          time.Time
}

// WindowAggregate is a single aggregate row over a device's history window.
// AvgBatteryTemp is only populated for the vehicle stream.
type WindowAggregate struct {
	TotalKwh       float64
	AvgBatteryTemp float64
	DataPoints     int64
}

// MeterHistoryStore persists meter events append-only and serves bounded
// window aggregates keyed by (meter_id, ts).
type MeterHistoryStore interface {
	Append(ctx context.Context, event MeterEvent) error
	QueryWindow(ctx context.Context, meterID string, start, end time.Time) (WindowAggregate, error)
}

// VehicleHistoryStore persists vehicle events append-only and serves bounded
// window aggregates keyed by (vehicle_id, ts).
type VehicleHistoryStore interface {
	Append(ctx context.Context, event VehicleEvent) error
	QueryWindow(ctx context.Context, vehicleID string, start, end time.Time) (WindowAggregate, error)
}

// MeterStatusStore maintains the live meter projection. Upsert must be a
// single atomic replace-or-insert, never a read-then-write.
type MeterStatusStore interface {
	Upsert(ctx context.Context, status MeterStatus) error
	Exists(ctx context.Context, meterID string) (bool, error)
	Get(ctx context.Context, meterID string) (MeterStatus, error)
}

// VehicleStatusStore maintains the live vehicle projection.
type VehicleStatusStore interface {
	Upsert(ctx context.Context, status VehicleStatus) error
	Exists(ctx context.Context, vehicleID string) (bool, error)
	Get(ctx context.Context, vehicleID string) (VehicleStatus, error)
}

// Validate checks required fields and numeric sanity. Value ranges are not
// enforced beyond finiteness; history accepts whatever the device reported.
func (e MeterEvent) Validate() error {
	if e.MeterID == "" {
		return fmt.Errorf("%w: empty meter id", ErrValidation)
	}
	if e.TS.IsZero() {
		return fmt.Errorf("%w: meter %s: zero timestamp", ErrValidation, e.MeterID)
	}
	if !isFinite(e.KwhConsumedAc) || !isFinite(e.Voltage) {
		return fmt.Errorf("%w: meter %s: non-finite reading", ErrValidation, e.MeterID)
	}
	return nil
}

// Validate checks required fields, numeric sanity and the 0-100 SOC range.
func (e VehicleEvent) Validate() error {
	if e.VehicleID == "" {
		return fmt.Errorf("%w: empty vehicle id", ErrValidation)
	}
	if e.TS.IsZero() {
		return fmt.Errorf("%w: vehicle %s: zero timestamp", ErrValidation, e.VehicleID)
	}
	if e.SOC < 0 || e.SOC > 100 {
		return fmt.Errorf("%w: vehicle %s: soc %d out of range", ErrValidation, e.VehicleID, e.SOC)
	}
	if !isFinite(e.KwhDeliveredDc) || !isFinite(e.BatteryTemp) {
		return fmt.Errorf("%w: vehicle %s: non-finite reading", ErrValidation, e.VehicleID)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
