package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "meter_history_rows",
			Help: "Meter history row count",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM meter_history")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "vehicle_history_rows",
			Help: "Vehicle history row count",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM vehicle_history")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "tracked_devices",
			Help: "Devices present in the live status projections",
		},
		func() float64 {
			return queryCount(db, logger, `
SELECT (SELECT COUNT(*) FROM meter_live_status) + (SELECT COUNT(*) FROM vehicle_live_status)`)
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
