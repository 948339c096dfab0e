package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, ":8000", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DefaultAPIKey, cfg.Ingest.APIKey)
	assert.Equal(t, int64(1<<20), cfg.Ingest.MaxBodyBytes)
	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.Equal(t, "./firmware", cfg.Firmware.Dir)
	assert.Equal(t, 1000, cfg.Events.QueueCapacity)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "rov/+/telemetry", cfg.MQTT.Topic)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9100
  shutdown_timeout: 3s
ingest:
  api_key: from-file
events:
  queue_capacity: 8
mqtt:
  enabled: true
  broker: tcp://broker:1883
`)

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "from-file", cfg.Ingest.APIKey)
	assert.Equal(t, 8, cfg.Events.QueueCapacity)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "ingest:\n  api_key: from-file\n")
	t.Setenv("INGEST_API_KEY", "from-env")
	t.Setenv("DATA_DIR", "/var/lib/rov-hub")
	t.Setenv("HUB_FIRMWARE_DIR", "/srv/firmware")
	t.Setenv("HUB_SERVER_PORT", "8181")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Ingest.APIKey)
	assert.Equal(t, "/var/lib/rov-hub", cfg.Storage.DataDir)
	assert.Equal(t, "/srv/firmware", cfg.Firmware.Dir)
	assert.Equal(t, 8181, cfg.Server.Port)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	path := writeConfig(t, "{}\n")
	base, err := LoadConfig(path)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "empty api key", mutate: func(c *Config) { c.Ingest.APIKey = "" }},
		{name: "zero queue", mutate: func(c *Config) { c.Events.QueueCapacity = 0 }},
		{name: "zero body limit", mutate: func(c *Config) { c.Ingest.MaxBodyBytes = 0 }},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }},
		{name: "mqtt without broker", mutate: func(c *Config) { c.MQTT.Enabled = true; c.MQTT.Broker = "" }},
		{name: "bad qos", mutate: func(c *Config) { c.MQTT.QOS = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := NewLogger(&buf, "warn", "json")
	require.NoError(t, err)
	logger.Info().Msg("hidden")
	logger.Warn().Str("device_id", "rov-1").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"device_id":"rov-1"`)

	_, err = NewLogger(&buf, "loud", "json")
	assert.Error(t, err)
	_, err = NewLogger(&buf, "info", "xml")
	assert.Error(t, err)
}
