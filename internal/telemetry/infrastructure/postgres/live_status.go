package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	telemetry "github.com/4prathamesh/Energy-Ingestion-Engine/internal/telemetry/domain"
)

const (
	defaultMeterStatusTable   = "meter_live_status"
	defaultVehicleStatusTable = "vehicle_live_status"
)

// MeterStatusStore is a Postgres implementation for the live meter
// projection.
type MeterStatusStore struct {
	db    *sql.DB
	table string
}

// NewMeterStatusStore constructs a store with default table name.
func NewMeterStatusStore(db *sql.DB, opts ...MeterStatusOption) *MeterStatusStore {
	store := &MeterStatusStore{db: db, table: defaultMeterStatusTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// MeterStatusOption configures the store.
type MeterStatusOption func(*MeterStatusStore)

// WithMeterStatusTable overrides the default table name.
func WithMeterStatusTable(table string) MeterStatusOption {
	return func(store *MeterStatusStore) {
		if table != "" {
			store.table = table
		}
	}
}

// Upsert atomically replaces or inserts the meter row. Concurrent writers
// for the same id serialize in the store; the final row is exactly one
// writer's values.
func (s *MeterStatusStore) Upsert(ctx context.Context, status telemetry.MeterStatus) error {
	if s == nil || s.db == nil {
		return errors.New("meter status: nil db")
	}
	if status.MeterID == "" {
		return errors.New("meter status: empty meter id")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	meter_id,
	last_kwh_consumed_ac,
	last_voltage,
	updated_at
) VALUES (
	$1, $2, $3, NOW()
)
ON CONFLICT (meter_id)
DO UPDATE SET
	last_kwh_consumed_ac = EXCLUDED.last_kwh_consumed_ac,
	last_voltage = EXCLUDED.last_voltage,
	updated_at = NOW()`, s.table)

	_, err := s.db.ExecContext(ctx, query, status.MeterID, status.LastKwhConsumedAc, status.LastVoltage)
	return err
}

// Exists reports whether a live row is present for the meter id.
func (s *MeterStatusStore) Exists(ctx context.Context, meterID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, errors.New("meter status: nil db")
	}
	if meterID == "" {
		return false, errors.New("meter status: empty meter id")
	}

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE meter_id = $1)`, s.table)
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, meterID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Get loads the live meter row.
func (s *MeterStatusStore) Get(ctx context.Context, meterID string) (telemetry.MeterStatus, error) {
	if s == nil || s.db == nil {
		return telemetry.MeterStatus{}, errors.New("meter status: nil db")
	}
	if meterID == "" {
		return telemetry.MeterStatus{}, errors.New("meter status: empty meter id")
	}

	query := fmt.Sprintf(`
SELECT meter_id, last_kwh_consumed_ac, last_voltage, updated_at
FROM %s
WHERE meter_id = $1`, s.table)

	var status telemetry.MeterStatus
	row := s.db.QueryRowContext(ctx, query, meterID)
	if err := row.Scan(&status.MeterID, &status.LastKwhConsumedAc, &status.LastVoltage, &status.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return telemetry.MeterStatus{}, telemetry.ErrNotFound
		}
		return telemetry.MeterStatus{}, err
	}
	return status, nil
}

// VehicleStatusStore is a Postgres implementation for the live vehicle
// projection.
type VehicleStatusStore struct {
	db    *sql.DB
	table string
}

// NewVehicleStatusStore constructs a store with default table name.
func NewVehicleStatusStore(db *sql.DB, opts ...VehicleStatusOption) *VehicleStatusStore {
	store := &VehicleStatusStore{db: db, table: defaultVehicleStatusTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// VehicleStatusOption configures the store.
type VehicleStatusOption func(*VehicleStatusStore)

// WithVehicleStatusTable overrides the default table name.
func WithVehicleStatusTable(table string) VehicleStatusOption {
	return func(store *VehicleStatusStore) {
		if table != "" {
			store.table = table
		}
	}
}

// Upsert atomically replaces or inserts the vehicle row.
func (s *VehicleStatusStore) Upsert(ctx context.Context, status telemetry.VehicleStatus) error {
	if s == nil || s.db == nil {
		return errors.New("vehicle status: nil db")
	}
	if status.VehicleID == "" {
		return errors.New("vehicle status: empty vehicle id")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	vehicle_id,
	soc,
	last_kwh_delivered_dc,
	last_battery_temp,
	updated_at
) VALUES (
	$1, $2, $3, $4, NOW()
)
ON CONFLICT (vehicle_id)
DO UPDATE SET
	soc = EXCLUDED.soc,
	last_kwh_delivered_dc = EXCLUDED.last_kwh_delivered_dc,
	last_battery_temp = EXCLUDED.last_battery_temp,
	updated_at = NOW()`, s.table)

	_, err := s.db.ExecContext(ctx, query, status.VehicleID, status.SOC, status.LastKwhDeliveredDc, status.LastBatteryTemp)
	return err
}

// Exists reports whether a live row is present for the vehicle id.
func (s *VehicleStatusStore) Exists(ctx context.Context, vehicleID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, errors.New("vehicle status: nil db")
	}
	if vehicleID == "" {
		return false, errors.New("vehicle status: empty vehicle id")
	}

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE vehicle_id = $1)`, s.table)
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, vehicleID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Get loads the live vehicle row.
func (s *VehicleStatusStore) Get(ctx context.Context, vehicleID string) (telemetry.VehicleStatus, error) {
	if s == nil || s.db == nil {
		return telemetry.VehicleStatus{}, errors.New("vehicle status: nil db")
	}
	if vehicleID == "" {
		return telemetry.VehicleStatus{}, errors.New("vehicle status: empty vehicle id")
	}

	query := fmt.Sprintf(`
SELECT vehicle_id, soc, last_kwh_delivered_dc, last_battery_temp, updated_at
FROM %s
WHERE vehicle_id = $1`, s.table)

	var status telemetry.VehicleStatus
	row := s.db.QueryRowContext(ctx, query, vehicleID)
	if err := row.Scan(&status.VehicleID, &status.SOC, &status.LastKwhDeliveredDc, &status.LastBatteryTemp, &status.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return telemetry.VehicleStatus{}, telemetry.ErrNotFound
		}
		return telemetry.VehicleStatus{}, err
	}
	return status, nil
}
