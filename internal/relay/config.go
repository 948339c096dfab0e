package relay

import (
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/rov-hub/pkg/file"
)

// Source types.
const (
	SourceSerial = "serial"
	SourceUDP    = "udp"
)

// Config represents the structure of the relay configuration file.
type Config struct {
	DeviceID string        `yaml:"device_id"` // Identifier reported to the hub
	HubURL   string        `yaml:"hub_url"`   // Base URL of the hub
	APIKey   string        `yaml:"api_key"`   // Ingest API key
	Interval time.Duration `yaml:"interval"`  // Time between posts
	Timeout  time.Duration `yaml:"timeout"`   // Per-request timeout

	Source struct {
		Type     string `yaml:"type"`      // serial or udp
		Port     string `yaml:"port"`      // Serial device, e.g. /dev/ttyUSB0
		BaudRate int    `yaml:"baud_rate"` // Baud rate of the GPS receiver
		Listen   string `yaml:"listen"`    // UDP listen address, e.g. :10110
	} `yaml:"source"`
}

// LoadConfig loads the YAML configuration from the specified file and fills
// in defaults.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, fmt.Errorf("failed to read relay config %s: %w", filename, err)
	}

	if config.Interval == 0 {
		config.Interval = 5 * time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Source.Type == "" {
		config.Source.Type = SourceSerial
	}
	if config.Source.BaudRate == 0 {
		config.Source.BaudRate = 4800
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects configurations the relay cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.DeviceID == "" {
		errs = append(errs, errors.New("device_id is required"))
	}
	if c.HubURL == "" {
		errs = append(errs, errors.New("hub_url is required"))
	}
	if c.APIKey == "" {
		errs = append(errs, errors.New("api_key is required"))
	}
	if c.Interval < 0 {
		errs = append(errs, errors.New("interval must be positive"))
	}
	switch c.Source.Type {
	case SourceSerial:
		if c.Source.Port == "" {
			errs = append(errs, errors.New("source.port is required for serial sources"))
		}
	case SourceUDP:
		if c.Source.Listen == "" {
			errs = append(errs, errors.New("source.listen is required for udp sources"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source type %q", c.Source.Type))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid relay configuration: %w", err)
	}
	return nil
}
