package events

import "time"

// Device classes carried on TelemetryReceived.
const (
	DeviceClassMeter   = "meter"
	DeviceClassVehicle = "vehicle"
)

// TelemetryReceived is raised after a successful ingest, once the history
// append and the live status upsert both completed.
type TelemetryReceived struct {
	EventID     string             `json:"event_id"`
	DeviceClass string             `json:"device_class"`
	DeviceID    string             `json:"device_id"`
	Readings    map[string]float64 `json:"readings"`
	TS          time.Time          `json:"ts"`
	OccurredAt  time.Time          `json:"occurred_at"`
}
