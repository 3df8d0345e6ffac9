package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "ENV", "LOG_LEVEL", "CORS_ORIGIN", "DATABASE_URL",
	"DMX_TRANSPORT", "DMX_SERIAL_PORT", "DMX_SERIAL_BAUD", "DMX_KEEPALIVE_RATE",
	"ARTNET_BROADCAST", "ARTNET_PORT", "ARTNET_UNIVERSE",
	"MQTT_BROKER", "MQTT_CLIENT_ID", "MQTT_TOPIC", "MQTT_USERNAME", "MQTT_PASSWORD",
	"PRESETS_FILE",
}

// unsetEnv clears the config keys for the test and restores them afterwards.
func unsetEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		if old, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { _ = os.Setenv(key, old) })
		}
		_ = os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t)

	cfg := Load()
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "file:./qlove.db", cfg.DatabaseURL)
	assert.Equal(t, TransportNone, cfg.DMXTransport)
	assert.Empty(t, cfg.DMXSerialPort)
	assert.Equal(t, 57600, cfg.DMXSerialBaud)
	assert.Equal(t, 1, cfg.DMXKeepAliveRate)
	assert.Equal(t, 6454, cfg.ArtNetPort)
	assert.Equal(t, 1, cfg.ArtNetUniverse)
	assert.Equal(t, "qlove/dmx", cfg.MQTTTopic)
	assert.Empty(t, cfg.PresetsFile)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_CustomEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "file:./prod.db")
	t.Setenv("DMX_TRANSPORT", "artnet")
	t.Setenv("DMX_SERIAL_PORT", "/dev/ttyUSB0")
	t.Setenv("DMX_SERIAL_BAUD", "115200")
	t.Setenv("DMX_KEEPALIVE_RATE", "0")
	t.Setenv("ARTNET_BROADCAST", "192.168.1.255")
	t.Setenv("ARTNET_PORT", "6455")
	t.Setenv("ARTNET_UNIVERSE", "3")
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("MQTT_TOPIC", "stage/dmx")
	t.Setenv("PRESETS_FILE", "/etc/qlove/presets.toml")
	t.Setenv("CORS_ORIGIN", "http://example.com")

	cfg := Load()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "file:./prod.db", cfg.DatabaseURL)
	assert.Equal(t, TransportArtNet, cfg.DMXTransport)
	assert.Equal(t, "/dev/ttyUSB0", cfg.DMXSerialPort)
	assert.Equal(t, 115200, cfg.DMXSerialBaud)
	assert.Equal(t, 0, cfg.DMXKeepAliveRate)
	assert.Equal(t, "192.168.1.255", cfg.ArtNetBroadcast)
	assert.Equal(t, 6455, cfg.ArtNetPort)
	assert.Equal(t, 3, cfg.ArtNetUniverse)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTTBroker)
	assert.Equal(t, "stage/dmx", cfg.MQTTTopic)
	assert.Equal(t, "/etc/qlove/presets.toml", cfg.PresetsFile)
	assert.Equal(t, "http://example.com", cfg.CORSOrigin)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("ARTNET_PORT", "not-a-number")
	assert.Equal(t, 6454, Load().ArtNetPort)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"serial", func(c *Config) { c.DMXTransport = TransportSerial }, false},
		{"mqtt", func(c *Config) { c.DMXTransport = TransportMQTT }, false},
		{"unknown transport", func(c *Config) { c.DMXTransport = "dmxking" }, true},
		{"zero baud", func(c *Config) { c.DMXSerialBaud = 0 }, true},
		{"negative keep-alive", func(c *Config) { c.DMXKeepAliveRate = -1 }, true},
		{"universe too large", func(c *Config) { c.ArtNetUniverse = 40000 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetEnv(t)
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"development", true},
		{"production", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := &Config{Env: tt.env}
			assert.Equal(t, tt.expected, cfg.IsDevelopment())
		})
	}
}
