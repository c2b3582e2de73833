package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	telemetry "github.com/4prathamesh/Energy-Ingestion-Engine/internal/telemetry/domain"
)

const (
	defaultMeterHistoryTable   = "meter_history"
	defaultVehicleHistoryTable = "vehicle_history"
)

// MeterHistoryStore is a Postgres implementation for meter history.
type MeterHistoryStore struct {
	db    *sql.DB
	table string
}

// NewMeterHistoryStore constructs a store with default table name.
func NewMeterHistoryStore(db *sql.DB, opts ...MeterHistoryOption) *MeterHistoryStore {
	store := &MeterHistoryStore{db: db, table: defaultMeterHistoryTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// MeterHistoryOption configures the store.
type MeterHistoryOption func(*MeterHistoryStore)

// WithMeterHistoryTable overrides the default table name.
func WithMeterHistoryTable(table string) MeterHistoryOption {
	return func(store *MeterHistoryStore) {
		if table != "" {
			store.table = table
		}
	}
}

// Append inserts one meter event. The insert is durable before return;
// existing rows are never touched.
func (s *MeterHistoryStore) Append(ctx context.Context, event telemetry.MeterEvent) error {
	if s == nil || s.db == nil {
		return errors.New("meter history: nil db")
	}
	if err := event.Validate(); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	meter_id,
	kwh_consumed_ac,
	voltage,
	ts
) VALUES (
	$1, $2, $3, $4, $5
)`, s.table)

	_, err := s.db.ExecContext(ctx, query, event.ID, event.MeterID, event.KwhConsumedAc, event.Voltage, event.TS.UTC())
	return err
}

// QueryWindow returns the aggregate over [start, end], inclusive on both
// bounds. The scan is a bounded index range on (meter_id, ts).
func (s *MeterHistoryStore) QueryWindow(ctx context.Context, meterID string, start, end time.Time) (telemetry.WindowAggregate, error) {
	if s == nil || s.db == nil {
		return telemetry.WindowAggregate{}, errors.New("meter history: nil db")
	}
	if meterID == "" || start.IsZero() || end.IsZero() {
		return telemetry.WindowAggregate{}, errors.New("meter history: invalid arguments")
	}

	query := fmt.Sprintf(`
SELECT COALESCE(SUM(kwh_consumed_ac), 0), COUNT(*)
FROM %s
WHERE meter_id = $1
	AND ts >= $2
	AND ts <= $3`, s.table)

	var agg telemetry.WindowAggregate
	row := s.db.QueryRowContext(ctx, query, meterID, start.UTC(), end.UTC())
	if err := row.Scan(&agg.TotalKwh, &agg.DataPoints); err != nil {
		return telemetry.WindowAggregate{}, err
	}
	return agg, nil
}

// VehicleHistoryStore is a Postgres implementation for vehicle history.
type VehicleHistoryStore struct {
	db    *sql.DB
	table string
}

// NewVehicleHistoryStore constructs a store with default table name.
func NewVehicleHistoryStore(db *sql.DB, opts ...VehicleHistoryOption) *VehicleHistoryStore {
	store := &VehicleHistoryStore{db: db, table: defaultVehicleHistoryTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// VehicleHistoryOption configures the store.
type VehicleHistoryOption func(*VehicleHistoryStore)

// WithVehicleHistoryTable overrides the default table name.
func WithVehicleHistoryTable(table string) VehicleHistoryOption {
	return func(store *VehicleHistoryStore) {
		if table != "" {
			store.table = table
		}
	}
}

// Append inserts one vehicle event.
func (s *VehicleHistoryStore) Append(ctx context.Context, event telemetry.VehicleEvent) error {
	if s == nil || s.db == nil {
		return errors.New("vehicle history: nil db")
	}
	if err := event.Validate(); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	vehicle_id,
	soc,
	kwh_delivered_dc,
	battery_temp,
	ts
) VALUES (
	$1, $2, $3, $4, $5, $6
)`, s.table)

	_, err := s.db.ExecContext(ctx, query, event.ID, event.VehicleID, event.SOC, event.KwhDeliveredDc, event.BatteryTemp, event.TS.UTC())
	return err
}

// QueryWindow returns the aggregate over [start, end], inclusive on both
// bounds. AVG over an empty window coalesces to zero.
func (s *VehicleHistoryStore) QueryWindow(ctx context.Context, vehicleID string, start, end time.Time) (telemetry.WindowAggregate, error) {
	if s == nil || s.db == nil {
		return telemetry.WindowAggregate{}, errors.New("vehicle history: nil db")
	}
	if vehicleID == "" || start.IsZero() || end.IsZero() {
		return telemetry.WindowAggregate{}, errors.New("vehicle history: invalid arguments")
	}

	query := fmt.Sprintf(`
SELECT COALESCE(SUM(kwh_delivered_dc), 0), COALESCE(AVG(battery_temp), 0), COUNT(*)
FROM %s
WHERE vehicle_id = $1
	AND ts >= $2
	AND ts <= $3`, s.table)

	var agg telemetry.WindowAggregate
	row := s.db.QueryRowContext(ctx, query, vehicleID, start.UTC(), end.UTC())
	if err := row.Scan(&agg.TotalKwh, &agg.AvgBatteryTemp, &agg.DataPoints); err != nil {
		return telemetry.WindowAggregate{}, err
	}
	return agg, nil
}
