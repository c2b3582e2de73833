package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/ingestion/application"
	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/observability/metrics"
	telemetry "github.com/4prathamesh/Energy-Ingestion-Engine/internal/telemetry/domain"
)

const (
	meterTopic   = "telemetry/meter/+"
	vehicleTopic = "telemetry/vehicle/+"

	connectTimeout = 10 * time.Second
	ingestTimeout  = 15 * time.Second
)

// Bridge subscribes to device telemetry topics and feeds the ingestion
// coordinator. The device id rides in the topic, not the payload:
//
//	telemetry/meter/MTR-014    {"kwhConsumedAc":10.5,"voltage":229.8,"timestamp":"..."}
//	telemetry/vehicle/VEH-001  {"soc":76,"kwhDeliveredDc":9.4,"batteryTemp":31.2,"timestamp":"..."}
type Bridge struct {
	client  paho.Client
	service *application.Service
	logger  *log.Logger
}

// NewBridge constructs a bridge and its MQTT client.
func NewBridge(brokerURL, clientID string, service *application.Service, logger *log.Logger) (*Bridge, error) {
	if brokerURL == "" {
		return nil, errors.New("mqtt bridge: empty broker url")
	}
	if service == nil {
		return nil, errors.New("mqtt bridge: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	if clientID == "" {
		clientID = "telemetry-ingest"
	}

	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Printf("mqtt connection lost: %v", err)
		})

	return &Bridge{client: paho.NewClient(opts), service: service, logger: logger}, nil
}

// Start connects and subscribes both telemetry topics.
func (b *Bridge) Start() error {
	token := b.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.New("mqtt bridge: connect timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt bridge: connect: %w", err)
	}

	if err := b.subscribe(meterTopic, b.handleMeter); err != nil {
		return err
	}
	if err := b.subscribe(vehicleTopic, b.handleVehicle); err != nil {
		return err
	}
	b.logger.Printf("mqtt bridge subscribed: %s, %s", meterTopic, vehicleTopic)
	return nil
}

// Stop disconnects the client.
func (b *Bridge) Stop() {
	if b != nil && b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250)
	}
}

func (b *Bridge) subscribe(topic string, handler paho.MessageHandler) error {
	token := b.client.Subscribe(topic, 1, handler)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt bridge: subscribe %s: %w", topic, err)
	}
	return nil
}

type meterPayload struct {
	KwhConsumedAc float64 `json:"kwhConsumedAc"`
	Voltage       float64 `json:"voltage"`
	Timestamp     string  `json:"timestamp"`
}

type vehiclePayload struct {
	SOC            int     `json:"soc"`
	KwhDeliveredDc float64 `json:"kwhDeliveredDc"`
	BatteryTemp    float64 `json:"batteryTemp"`
	Timestamp      string  `json:"timestamp"`
}

// handleMeter never panics or stops the consumer; bad messages are logged
// and counted.
func (b *Bridge) handleMeter(_ paho.Client, msg paho.Message) {
	meterID := deviceIDFromTopic(msg.Topic())
	var payload meterPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		metrics.IncMQTTMessage("meter", metrics.ResultError)
		b.logger.Printf("mqtt meter %s: decode error: %v", meterID, err)
		return
	}
	ts, err := time.Parse(time.RFC3339, payload.Timestamp)
	if err != nil {
		metrics.IncMQTTMessage("meter", metrics.ResultError)
		b.logger.Printf("mqtt meter %s: bad timestamp %q", meterID, payload.Timestamp)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()
	if _, err := b.service.IngestMeter(ctx, telemetry.MeterEvent{
		MeterID:       meterID,
		KwhConsumedAc: payload.KwhConsumedAc,
		Voltage:       payload.Voltage,
		TS:            ts,
	}); err != nil {
		metrics.IncMQTTMessage("meter", metrics.ResultError)
		b.logger.Printf("mqtt meter ingest: %v", err)
		return
	}
	metrics.IncMQTTMessage("meter", metrics.ResultSuccess)
}

func (b *Bridge) handleVehicle(_ paho.Client, msg paho.Message) {
	vehicleID := deviceIDFromTopic(msg.Topic())
	var payload vehiclePayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		metrics.IncMQTTMessage("vehicle", metrics.ResultError)
		b.logger.Printf("mqtt vehicle %s: decode error: %v", vehicleID, err)
		return
	}
	ts, err := time.Parse(time.RFC3339, payload.Timestamp)
	if err != nil {
		metrics.IncMQTTMessage("vehicle", metrics.ResultError)
		b.logger.Printf("mqtt vehicle %s: bad timestamp %q", vehicleID, payload.Timestamp)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()
	if _, err := b.service.IngestVehicle(ctx, telemetry.VehicleEvent{
		VehicleID:      vehicleID,
		SOC:            payload.SOC,
		KwhDeliveredDc: payload.KwhDeliveredDc,
		BatteryTemp:    payload.BatteryTemp,
		TS:             ts,
	}); err != nil {
		metrics.IncMQTTMessage("vehicle", metrics.ResultError)
		b.logger.Printf("mqtt vehicle ingest: %v", err)
		return
	}
	metrics.IncMQTTMessage("vehicle", metrics.ResultSuccess)
}

func deviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-1]
}
