package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the runtime configuration of the hub.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Storage   StorageConfig   `mapstructure:"storage"`
	AppendLog AppendLogConfig `mapstructure:"append_log"`
	Firmware  FirmwareConfig  `mapstructure:"firmware"`
	Events    EventsConfig    `mapstructure:"events"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig captures HTTP server settings. There is no write timeout:
// live streams stay open indefinitely.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// IngestConfig captures producer admission settings.
type IngestConfig struct {
	APIKey       string `mapstructure:"api_key"`       // Shared secret expected in X-API-Key
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"` // Largest accepted document
}

// StorageConfig captures where telemetry is persisted.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// AppendLogConfig captures append-log durability.
type AppendLogConfig struct {
	Fsync bool `mapstructure:"fsync"`
}

// FirmwareConfig captures the firmware tree served to devices.
type FirmwareConfig struct {
	Dir string `mapstructure:"dir"`
}

// EventsConfig captures event bus settings.
type EventsConfig struct {
	QueueCapacity int `mapstructure:"queue_capacity"`
}

// MQTTConfig captures the optional MQTT ingestion bridge.
type MQTTConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Broker        string `mapstructure:"broker"`         // MQTT broker address
	ClientID      string `mapstructure:"client_id"`      // Prefix; a UUID is appended at startup
	Topic         string `mapstructure:"topic"`          // Telemetry topic filter
	QOS           int    `mapstructure:"qos"`            // Subscription QoS
	CACertificate string `mapstructure:"ca_certificate"` // Path to the CA certificate, enables TLS
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
}

// LoggingConfig captures logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
}

// DefaultAPIKey is the placeholder key shipped with the hub.
const DefaultAPIKey = "change-me"

// LoadConfig reads configuration from the provided path (optional) and the
// environment. Variables are prefixed with HUB_; INGEST_API_KEY, DATA_DIR and
// FIRMWARE_DIR are honoured as well.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("ingest.api_key", DefaultAPIKey)
	v.SetDefault("ingest.max_body_bytes", 1<<20)

	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("append_log.fsync", false)
	v.SetDefault("firmware.dir", "./firmware")
	v.SetDefault("events.queue_capacity", 1000)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "rov-hub")
	v.SetDefault("mqtt.topic", "rov/+/telemetry")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.ca_certificate", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/rov-hub")
	}

	v.SetEnvPrefix("HUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Variable names used by existing deployments.
	aliases := map[string]string{
		"ingest.api_key":   "INGEST_API_KEY",
		"storage.data_dir": "DATA_DIR",
		"firmware.dir":     "FIRMWARE_DIR",
	}
	for key, env := range aliases {
		prefixed := "HUB_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the hub cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Ingest.APIKey == "" {
		errs = append(errs, errors.New("ingest.api_key must not be empty"))
	}
	if c.Ingest.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("ingest.max_body_bytes must be positive"))
	}
	if c.Events.QueueCapacity <= 0 {
		errs = append(errs, errors.New("events.queue_capacity must be positive"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
	}
	if c.MQTT.QOS < 0 || c.MQTT.QOS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos %d is not 0, 1 or 2", c.MQTT.QOS))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
