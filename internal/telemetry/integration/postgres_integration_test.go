package integration_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	telemetry "github.com/4prathamesh/Energy-Ingestion-Engine/internal/telemetry/domain"
	telemetrypostgres "github.com/4prathamesh/Energy-Ingestion-Engine/internal/telemetry/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestHistoryWindow_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "meter_history") || !tableExists(db, "vehicle_history") {
		t.Skip("history tables missing; run migrations")
	}

	ctx := context.Background()
	meterID := "meter-it"
	vehicleID := "vehicle-it"
	windowEnd := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	windowStart := windowEnd.Add(-24 * time.Hour)

	_, _ = db.ExecContext(ctx, "DELETE FROM meter_history WHERE meter_id = $1", meterID)
	_, _ = db.ExecContext(ctx, "DELETE FROM vehicle_history WHERE vehicle_id = $1", vehicleID)

	meterHistory := telemetrypostgres.NewMeterHistoryStore(db)
	vehicleHistory := telemetrypostgres.NewVehicleHistoryStore(db)

	meterEvents := []telemetry.MeterEvent{
		{MeterID: meterID, KwhConsumedAc: 10, Voltage: 230, TS: windowStart},
		{MeterID: meterID, KwhConsumedAc: 10, Voltage: 231, TS: windowEnd},
		{MeterID: meterID, KwhConsumedAc: 99, Voltage: 229, TS: windowStart.Add(-time.Second)},
	}
	for i, event := range meterEvents {
		if err := meterHistory.Append(ctx, event); err != nil {
			t.Fatalf("append meter %d: %v", i, err)
		}
	}

	vehicleEvents := []telemetry.VehicleEvent{
		{VehicleID: vehicleID, SOC: 60, KwhDeliveredDc: 9, BatteryTemp: 30, TS: windowStart},
		{VehicleID: vehicleID, SOC: 70, KwhDeliveredDc: 9, BatteryTemp: 32, TS: windowEnd},
	}
	for i, event := range vehicleEvents {
		if err := vehicleHistory.Append(ctx, event); err != nil {
			t.Fatalf("append vehicle %d: %v", i, err)
		}
	}

	meterAgg, err := meterHistory.QueryWindow(ctx, meterID, windowStart, windowEnd)
	if err != nil {
		t.Fatalf("meter window: %v", err)
	}
	if meterAgg.TotalKwh != 20 {
		t.Fatalf("meter total: got %v want 20 (bounds must be inclusive, pre-window row excluded)", meterAgg.TotalKwh)
	}
	if meterAgg.DataPoints != 2 {
		t.Fatalf("meter data points: got %d want 2", meterAgg.DataPoints)
	}

	vehicleAgg, err := vehicleHistory.QueryWindow(ctx, vehicleID, windowStart, windowEnd)
	if err != nil {
		t.Fatalf("vehicle window: %v", err)
	}
	if vehicleAgg.TotalKwh != 18 {
		t.Fatalf("vehicle total: got %v want 18", vehicleAgg.TotalKwh)
	}
	if vehicleAgg.AvgBatteryTemp != 31 {
		t.Fatalf("avg battery temp: got %v want 31", vehicleAgg.AvgBatteryTemp)
	}

	empty, err := vehicleHistory.QueryWindow(ctx, "vehicle-it-missing", windowStart, windowEnd)
	if err != nil {
		t.Fatalf("empty window: %v", err)
	}
	if empty.TotalKwh != 0 || empty.AvgBatteryTemp != 0 || empty.DataPoints != 0 {
		t.Fatalf("empty window must aggregate to zero, got %+v", empty)
	}
}

func TestLiveStatusUpsert_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "meter_live_status") || !tableExists(db, "vehicle_live_status") {
		t.Skip("live status tables missing; run migrations")
	}

	ctx := context.Background()
	meterID := "meter-it"
	vehicleID := "vehicle-it"

	_, _ = db.ExecContext(ctx, "DELETE FROM meter_live_status WHERE meter_id = $1", meterID)
	_, _ = db.ExecContext(ctx, "DELETE FROM vehicle_live_status WHERE vehicle_id = $1", vehicleID)

	meterStatus := telemetrypostgres.NewMeterStatusStore(db)
	vehicleStatus := telemetrypostgres.NewVehicleStatusStore(db)

	if _, err := meterStatus.Get(ctx, meterID); !errors.Is(err, telemetry.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first upsert, got %v", err)
	}

	if err := meterStatus.Upsert(ctx, telemetry.MeterStatus{MeterID: meterID, LastKwhConsumedAc: 10, LastVoltage: 230}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := meterStatus.Upsert(ctx, telemetry.MeterStatus{MeterID: meterID, LastKwhConsumedAc: 12.5, LastVoltage: 228}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM meter_live_status WHERE meter_id = $1", meterID).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("upsert must keep exactly one row per meter, got %d", count)
	}

	got, err := meterStatus.Get(ctx, meterID)
	if err != nil {
		t.Fatalf("get meter status: %v", err)
	}
	if got.LastKwhConsumedAc != 12.5 || got.LastVoltage != 228 {
		t.Fatalf("last write must win: %+v", got)
	}

	if err := vehicleStatus.Upsert(ctx, telemetry.VehicleStatus{VehicleID: vehicleID, SOC: 70, LastKwhDeliveredDc: 9, LastBatteryTemp: 31}); err != nil {
		t.Fatalf("vehicle upsert: %v", err)
	}
	exists, err := vehicleStatus.Exists(ctx, vehicleID)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("vehicle must be tracked after upsert")
	}
}

func tableExists(db *sql.DB, table string) bool {
	var exists bool
	err := db.QueryRow(`
SELECT EXISTS (
	SELECT 1
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = $1
)`, table).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}
