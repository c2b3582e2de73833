package interfaces

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/analytics/application"
	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/audit"
	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/observability/metrics"
	telemetry "github.com/4prathamesh/Energy-Ingestion-Engine/internal/telemetry/domain"
)

// ExportHandler serves GET /v1/exports/performance.{csv,xlsx,pdf}.
//
// vehicle_id is a comma-separated list; the report holds one row per
// vehicle. Unknown vehicles fail the whole export with 404 rather than
// silently shrinking the fleet view.
type ExportHandler struct {
	service *application.Service
	auditor audit.Logger
	logger  *log.Logger
}

// NewExportHandler constructs the export handler.
func NewExportHandler(service *application.Service, auditor audit.Logger, logger *log.Logger) (*ExportHandler, error) {
	if service == nil {
		return nil, errors.New("export handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ExportHandler{service: service, auditor: auditor, logger: logger}, nil
}

// ServeHTTP handles a fleet export request.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	format := formatFromPath(r.URL.Path)
	if format == "" {
		http.Error(w, "unsupported export format", http.StatusNotFound)
		return
	}

	ids := splitIDs(r.URL.Query().Get("vehicle_id"))
	if len(ids) == 0 {
		metrics.IncExport(format, metrics.ResultError)
		http.Error(w, "vehicle_id is required", http.StatusBadRequest)
		return
	}

	reports := make([]application.PerformanceReport, 0, len(ids))
	for _, id := range ids {
		report, err := h.service.GetPerformance(r.Context(), id)
		if err != nil {
			metrics.IncExport(format, metrics.ResultError)
			h.logger.Printf("export %s: %v", format, err)
			if errors.Is(err, telemetry.ErrNotFound) {
				http.Error(w, "vehicle "+id+" not found in system", http.StatusNotFound)
			} else {
				http.Error(w, "export error", http.StatusInternalServerError)
			}
			return
		}
		reports = append(reports, report)
	}

	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case "csv":
		payload, err = BuildPerformanceCSV(reports)
		contentType = "text/csv"
	case "xlsx":
		payload, err = BuildPerformanceXLSX(reports)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		payload, err = BuildPerformancePDF(reports)
		contentType = "application/pdf"
	}
	if err != nil {
		metrics.IncExport(format, metrics.ResultError)
		h.logger.Printf("export %s: build error: %v", format, err)
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}

	h.writeAudit(r, format, ids)
	metrics.IncExport(format, metrics.ResultSuccess)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="performance.`+format+`"`)
	_, _ = w.Write(payload)
}

func (h *ExportHandler) writeAudit(r *http.Request, format string, ids []string) {
	if h.auditor == nil {
		return
	}
	meta, _ := json.Marshal(map[string]any{"format": format, "vehicles": ids})
	entry := audit.Entry{
		Action:       "export.performance",
		ResourceType: "performance_report",
		ResourceID:   strings.Join(ids, ","),
		Metadata:     meta,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	if err := h.auditor.Log(r.Context(), entry); err != nil {
		h.logger.Printf("export audit error: %v", err)
	}
}

func formatFromPath(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return ""
	}
	switch format := path[idx+1:]; format {
	case "csv", "xlsx", "pdf":
		return format
	default:
		return ""
	}
}

func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
