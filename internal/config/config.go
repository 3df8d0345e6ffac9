// Package config loads the qlove server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// DMX output transports.
const (
	TransportNone   = "none"
	TransportSerial = "serial"
	TransportArtNet = "artnet"
	TransportMQTT   = "mqtt"
)

// Config holds all configuration values for the server.
type Config struct {
	// Server configuration
	Port       string
	Env        string
	LogLevel   string
	CORSOrigin string

	// Database configuration
	DatabaseURL string

	// DMX output
	DMXTransport     string
	DMXSerialPort    string // empty means auto-detect
	DMXSerialBaud    int
	DMXKeepAliveRate int // Hz, 0 disables the keep-alive loop

	// Art-Net
	ArtNetBroadcast string // empty means the first physical interface
	ArtNetPort      int
	ArtNetUniverse  int

	// MQTT
	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string
	MQTTUsername string
	MQTTPassword string

	// Optional TOML preset catalog replacing the built-in one
	PresetsFile string
}

// Load loads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:       getEnv("PORT", "4000"),
		Env:        getEnv("ENV", "development"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),

		DatabaseURL: getEnv("DATABASE_URL", "file:./qlove.db"),

		DMXTransport:     getEnv("DMX_TRANSPORT", TransportNone),
		DMXSerialPort:    getEnv("DMX_SERIAL_PORT", ""),
		DMXSerialBaud:    getEnvInt("DMX_SERIAL_BAUD", 57600),
		DMXKeepAliveRate: getEnvInt("DMX_KEEPALIVE_RATE", 1),

		ArtNetBroadcast: getEnv("ARTNET_BROADCAST", ""),
		ArtNetPort:      getEnvInt("ARTNET_PORT", 6454),
		ArtNetUniverse:  getEnvInt("ARTNET_UNIVERSE", 1),

		MQTTBroker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "qlove"),
		MQTTTopic:    getEnv("MQTT_TOPIC", "qlove/dmx"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),

		PresetsFile: getEnv("PRESETS_FILE", ""),
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.DMXTransport {
	case TransportNone, TransportSerial, TransportArtNet, TransportMQTT:
	default:
		return fmt.Errorf("unknown DMX_TRANSPORT %q", c.DMXTransport)
	}
	if c.DMXSerialBaud <= 0 {
		return fmt.Errorf("DMX_SERIAL_BAUD must be positive, got %d", c.DMXSerialBaud)
	}
	if c.DMXKeepAliveRate < 0 {
		return fmt.Errorf("DMX_KEEPALIVE_RATE must not be negative, got %d", c.DMXKeepAliveRate)
	}
	if c.ArtNetUniverse < 0 || c.ArtNetUniverse > 0x7fff {
		return fmt.Errorf("ARTNET_UNIVERSE out of range: %d", c.ArtNetUniverse)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default value.
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
