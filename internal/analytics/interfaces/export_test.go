package interfaces

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/analytics/application"
	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/audit"
	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/telemetry/infrastructure/memory"

	telemetry "github.com/4prathamesh/Energy-Ingestion-Engine/internal/telemetry/domain"
)

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

type recordingAuditor struct {
	entries []audit.Entry
}

func (a *recordingAuditor) Log(ctx context.Context, entry audit.Entry) error {
	_ = ctx
	a.entries = append(a.entries, entry)
	return nil
}

func sampleReports() []application.PerformanceReport {
	start := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)
	return []application.PerformanceReport{
		{
			VehicleID:              "VEH-001",
			TotalEnergyConsumedAc:  20.00,
			TotalEnergyDeliveredDc: 18.00,
			EfficiencyRatio:        90.00,
			AverageBatteryTemp:     31.00,
			TimeWindowStart:        start,
			TimeWindowEnd:          start.Add(24 * time.Hour),
			DataPoints:             2,
		},
	}
}

func TestBuildPerformanceCSV(t *testing.T) {
	payload, err := BuildPerformanceCSV(sampleReports())
	if err != nil {
		t.Fatalf("build csv: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "VEH-001,20.00,18.00,90.00") {
		t.Fatalf("unexpected row: %s", lines[1])
	}
}

func TestBuildPerformanceXLSXAndPDF(t *testing.T) {
	xlsx, err := BuildPerformanceXLSX(sampleReports())
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	if len(xlsx) == 0 {
		t.Fatal("empty xlsx payload")
	}

	pdf, err := BuildPerformancePDF(sampleReports())
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatal("empty pdf payload")
	}
}

func newExportHandler(t *testing.T, auditor audit.Logger) *ExportHandler {
	t.Helper()
	meterHistory := memory.NewMeterHistoryStore()
	vehicleHistory := memory.NewVehicleHistoryStore()
	vehicleStatus := memory.NewVehicleStatusStore()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	ctx := context.Background()
	if err := vehicleStatus.Upsert(ctx, telemetry.VehicleStatus{VehicleID: "VEH-001", SOC: 70}); err != nil {
		t.Fatalf("seed status: %v", err)
	}
	ts := now.Add(-time.Hour)
	if err := meterHistory.Append(ctx, telemetry.MeterEvent{MeterID: "VEH-001", KwhConsumedAc: 10, Voltage: 230, TS: ts}); err != nil {
		t.Fatalf("seed meter: %v", err)
	}
	if err := vehicleHistory.Append(ctx, telemetry.VehicleEvent{VehicleID: "VEH-001", SOC: 70, KwhDeliveredDc: 9, BatteryTemp: 30, TS: ts}); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}

	service, err := application.NewService(vehicleHistory, meterHistory, vehicleStatus, application.IdentityResolver{}, fixedClock{t: now})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler, err := NewExportHandler(service, auditor, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func TestExport_CSVWithAudit(t *testing.T) {
	auditor := &recordingAuditor{}
	handler := newExportHandler(t, auditor)

	req := httptest.NewRequest(http.MethodGet, "/v1/exports/performance.csv?vehicle_id=VEH-001", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("content type: %s", got)
	}
	if !strings.Contains(resp.Body.String(), "VEH-001,10.00,9.00,90.00") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}

	if len(auditor.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(auditor.entries))
	}
	if auditor.entries[0].Action != "export.performance" {
		t.Fatalf("unexpected audit action: %s", auditor.entries[0].Action)
	}
}

func TestExport_RequiresVehicleIDs(t *testing.T) {
	handler := newExportHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/exports/performance.csv", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestExport_UnknownVehicle(t *testing.T) {
	handler := newExportHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/exports/performance.pdf?vehicle_id=VEH-404", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	handler := newExportHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/exports/performance.docx?vehicle_id=VEH-001", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
