// Seeds a running instance with synthetic meter and vehicle telemetry over
// HTTP, for local development and manual analytics checks.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	dbmigrate "github.com/4prathamesh/Energy-Ingestion-Engine/internal/db/migrate"
)

type config struct {
	baseURL  string
	devices  int
	points   int
	interval time.Duration
	migrate  bool
}

func main() {
	cfg := parseConfig()

	if cfg.migrate {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			dsn = os.Getenv("PG_DSN")
		}
		if err := dbmigrate.Run(dsn, "up"); err != nil {
			log.Fatalf("migrate error: %v", err)
		}
		log.Println("migrations applied")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	now := time.Now().UTC()

	for d := 0; d < cfg.devices; d++ {
		deviceID := fmt.Sprintf("VEH-%03d", d+1)
		for p := 0; p < cfg.points; p++ {
			ts := now.Add(-time.Duration(p) * cfg.interval)
			ac := 8 + rand.Float64()*4
			// Realistic charger efficiency sits around 88-95%.
			dc := ac * (0.88 + rand.Float64()*0.07)

			postJSON(client, cfg.baseURL+"/v1/ingestion/meter", map[string]any{
				"meterId":       deviceID,
				"kwhConsumedAc": ac,
				"voltage":       228 + rand.Float64()*6,
				"timestamp":     ts.Format(time.RFC3339),
			})
			postJSON(client, cfg.baseURL+"/v1/ingestion/vehicle", map[string]any{
				"vehicleId":      deviceID,
				"soc":            20 + rand.Intn(80),
				"kwhDeliveredDc": dc,
				"batteryTemp":    26 + rand.Float64()*10,
				"timestamp":      ts.Format(time.RFC3339),
			})
		}
		log.Printf("seeded %s: %d points per stream", deviceID, cfg.points)
	}
}

func parseConfig() config {
	var cfg config
	flag.StringVar(&cfg.baseURL, "base-url", "http://localhost:8080", "service base URL")
	flag.IntVar(&cfg.devices, "devices", 3, "number of vehicle/meter pairs")
	flag.IntVar(&cfg.points, "points", 24, "events per device per stream")
	flag.DurationVar(&cfg.interval, "interval", time.Hour, "spacing between event timestamps")
	flag.BoolVar(&cfg.migrate, "migrate", false, "run migrations before seeding")
	flag.Parse()
	return cfg
}

func postJSON(client *http.Client, url string, payload map[string]any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("marshal error: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("post %s: unexpected status %d", url, resp.StatusCode)
	}
}
