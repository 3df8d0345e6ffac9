package dmx

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/bbernstein/qlove-go/internal/logger"
)

// MQTTConfig configures the MQTT output.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
}

// MQTTFrame is the JSON payload published for every universe.
type MQTTFrame struct {
	Universe int   `json:"universe"`
	Channels []int `json:"channels"`
}

// EncodeMQTTFrame renders a universe as the published JSON payload.
func EncodeMQTTFrame(u Universe) ([]byte, error) {
	return json.Marshal(MQTTFrame{Universe: 1, Channels: u.Ints()})
}

// MQTTTransport publishes each universe to a broker topic.
type MQTTTransport struct {
	mu     sync.Mutex
	cfg    MQTTConfig
	log    *logger.Log
	client mqtt.Client
}

// NewMQTTTransport creates an MQTT transport.
func NewMQTTTransport(cfg MQTTConfig, log *logger.Log) *MQTTTransport {
	if cfg.Topic == "" {
		cfg.Topic = "qlove/dmx"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "qlove"
	}
	if log == nil {
		log = logger.Discard()
	}
	return &MQTTTransport{cfg: cfg, log: log.Module("mqtt")}
}

// Name implements Transport.
func (m *MQTTTransport) Name() string { return "mqtt" }

// Open implements Transport.
func (m *MQTTTransport) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil && m.client.IsConnected() {
		return nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(m.cfg.Broker).
		SetClientID(m.cfg.ClientID).
		SetUsername(m.cfg.Username).
		SetPassword(m.cfg.Password).
		SetOnConnectHandler(func(_ mqtt.Client) {
			m.log.Info("client connected to broker")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			m.log.Errorf("broker connection lost: %v", err)
		}).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt connect %s: %w", m.cfg.Broker, err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	m.client = client
	return nil
}

// Write implements Transport.
func (m *MQTTTransport) Write(ctx context.Context, u Universe) error {
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return ErrNotConnected
	}

	payload, err := EncodeMQTTFrame(u)
	if err != nil {
		return err
	}

	token := client.Publish(m.cfg.Topic, 0, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt publish %s: %w", m.cfg.Topic, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements Transport.
func (m *MQTTTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(500)
	}
	m.client = nil
	return nil
}
