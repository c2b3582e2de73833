package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	analyticsapp "github.com/4prathamesh/Energy-Ingestion-Engine/internal/analytics/application"
	analyticsinterfaces "github.com/4prathamesh/Energy-Ingestion-Engine/internal/analytics/interfaces"
	analyticshttp "github.com/4prathamesh/Energy-Ingestion-Engine/internal/analytics/interfaces/http"
	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/audit"
	dbmigrate "github.com/4prathamesh/Energy-Ingestion-Engine/internal/db/migrate"
	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/eventing"
	ingestionapp "github.com/4prathamesh/Energy-Ingestion-Engine/internal/ingestion/application"
	ingestionevents "github.com/4prathamesh/Energy-Ingestion-Engine/internal/ingestion/application/events"
	ingestionhttp "github.com/4prathamesh/Energy-Ingestion-Engine/internal/ingestion/interfaces/http"
	ingestionmqtt "github.com/4prathamesh/Energy-Ingestion-Engine/internal/ingestion/interfaces/mqtt"
	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/observability/metrics"
	telemetrypostgres "github.com/4prathamesh/Energy-Ingestion-Engine/internal/telemetry/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()

	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if cfg.MigrateOnStart {
		if err := dbmigrate.Run(cfg.DatabaseURL, "up"); err != nil {
			logger.Fatalf("migrate error: %v", err)
		}
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	meterHistory := telemetrypostgres.NewMeterHistoryStore(db)
	vehicleHistory := telemetrypostgres.NewVehicleHistoryStore(db)
	meterStatus := telemetrypostgres.NewMeterStatusStore(db)
	vehicleStatus := telemetrypostgres.NewVehicleStatusStore(db)

	bus := eventing.NewInMemoryBus()
	bus.Subscribe(eventing.TypeFor[ingestionevents.TelemetryReceived](), func(ctx context.Context, event any) error {
		evt, ok := event.(ingestionevents.TelemetryReceived)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		logger.Printf("telemetry received: class=%s device=%s ts=%s", evt.DeviceClass, evt.DeviceID, evt.TS.Format(time.RFC3339))
		return nil
	})

	ingestionService, err := ingestionapp.NewService(meterHistory, meterStatus, vehicleHistory, vehicleStatus, bus, systemClock{}, logger)
	if err != nil {
		logger.Fatalf("ingestion service error: %v", err)
	}

	resolver := buildResolver(cfg.CorrelationConfig, logger)
	analyticsService, err := analyticsapp.NewService(vehicleHistory, meterHistory, vehicleStatus, resolver, systemClock{})
	if err != nil {
		logger.Fatalf("analytics service error: %v", err)
	}

	ingestHandler, err := ingestionhttp.NewHandler(ingestionService, meterStatus, vehicleStatus, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}
	performanceHandler, err := analyticshttp.NewPerformanceHandler(analyticsService, logger)
	if err != nil {
		logger.Fatalf("performance handler error: %v", err)
	}
	exportHandler, err := analyticsinterfaces.NewExportHandler(analyticsService, auditRepo, logger)
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}

	if cfg.MQTTBrokerURL != "" {
		bridge, err := ingestionmqtt.NewBridge(cfg.MQTTBrokerURL, cfg.MQTTClientID, ingestionService, logger)
		if err != nil {
			logger.Fatalf("mqtt bridge error: %v", err)
		}
		if err := bridge.Start(); err != nil {
			logger.Fatalf("mqtt bridge start error: %v", err)
		}
		defer bridge.Stop()
	}

	mux := http.NewServeMux()
	mux.Handle("/v1/ingestion/", ingestHandler)
	mux.Handle("/v1/analytics/performance/", performanceHandler)
	mux.Handle("/v1/exports/performance.csv", exportHandler)
	mux.Handle("/v1/exports/performance.xlsx", exportHandler)
	mux.Handle("/v1/exports/performance.pdf", exportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(mux, logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL       string
	HTTPAddr          string
	MigrateOnStart    bool
	CorrelationConfig string
	MQTTBrokerURL     string
	MQTTClientID      string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		MigrateOnStart:    getenvBoolDefault("MIGRATE_ON_START", true),
		CorrelationConfig: getenvDefault("CORRELATION_CONFIG", ""),
		MQTTBrokerURL:     getenvDefault("MQTT_BROKER_URL", ""),
		MQTTClientID:      getenvDefault("MQTT_CLIENT_ID", "telemetry-ingest"),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// buildResolver loads the static vehicle-to-meter topology when configured,
// otherwise assumes meter id == vehicle id.
func buildResolver(path string, logger *log.Logger) analyticsapp.MeterResolver {
	if path == "" {
		return analyticsapp.IdentityResolver{}
	}
	mapping, err := analyticsapp.LoadTopology(path)
	if err != nil {
		logger.Fatalf("correlation topology error: %v", err)
	}
	logger.Printf("correlation topology loaded: %d vehicles mapped", len(mapping))
	return analyticsapp.NewStaticMapResolver(mapping)
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
