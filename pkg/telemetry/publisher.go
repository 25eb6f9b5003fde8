package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultTopic is the MQTT topic readings are published on.
const DefaultTopic = "envirobot/telemetry"

const connectTimeout = 5 * time.Second

// ClientFactory creates MQTT clients; tests replace it.
type ClientFactory func(opts *mqtt.ClientOptions) mqtt.Client

// DefaultClientFactory creates a real paho client.
var DefaultClientFactory ClientFactory = mqtt.NewClient

// PublisherConfig configures a Publisher.
type PublisherConfig struct {
	Broker  string
	Topic   string
	Factory ClientFactory
}

// Publisher forwards readings to an MQTT broker so they can be charted
// outside the ground station.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// Payload is the JSON document published per reading.
type Payload struct {
	Time   time.Time         `json:"time"`
	Raw    map[Field]string  `json:"raw"`
	Values map[Field]float64 `json:"values"`
}

// NewPayload builds the document published for r.
func NewPayload(r Reading, at time.Time) Payload {
	raw := make(map[Field]string, MinFields)
	for _, f := range AllFields() {
		raw[f] = r.Get(f)
	}
	return Payload{Time: at.UTC(), Raw: raw, Values: r.Values()}
}

// NewPublisher connects to the broker.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker not set")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.Factory == nil {
		cfg.Factory = DefaultClientFactory
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID("envirobot-" + uuid.NewString()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("telemetry publisher connected")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("telemetry publisher: connection lost")
	}

	client := cfg.Factory(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		client.Disconnect(0)
		return nil, errors.New("connect to mqtt broker: timeout")
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("connect to mqtt broker: %w", err)
	}

	return &Publisher{client: client, topic: cfg.Topic}, nil
}

// Publish sends r without waiting for the broker to acknowledge it.
func (p *Publisher) Publish(r Reading, at time.Time) error {
	data, err := json.Marshal(NewPayload(r, at))
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}
	token := p.client.Publish(p.topic, 0, false, data)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish telemetry: %w", err)
		}
	default:
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	return nil
}
