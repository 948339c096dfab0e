package services

import (
	"errors"
	"sync"

	"github.com/benmeehan/rov-hub/internal/models"
	"github.com/benmeehan/rov-hub/pkg/mqtt"
	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// TransportMQTT labels telemetry received through the broker.
const TransportMQTT = "mqtt"

// TelemetryIngester admits one telemetry document.
type TelemetryIngester interface {
	Ingest(body []byte, transport string) (models.TelemetryRecord, error)
}

// MQTTIngestService feeds telemetry published on an MQTT topic through the
// same ingestion path as HTTP producers. The broker authenticates publishers,
// so no API key is checked here.
type MQTTIngestService struct {
	// Configuration Fields
	subTopic string
	qos      int

	// Dependencies
	mqttClient mqtt.MQTTClient
	ingester   TelemetryIngester
	logger     zerolog.Logger

	// Internal state management
	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// NewMQTTIngestService initializes a new MQTTIngestService.
func NewMQTTIngestService(subTopic string, qos int, mqttClient mqtt.MQTTClient, ingester TelemetryIngester,
	logger zerolog.Logger) *MQTTIngestService {

	return &MQTTIngestService{
		subTopic:   subTopic,
		qos:        qos,
		mqttClient: mqttClient,
		ingester:   ingester,
		logger:     logger,
	}
}

// Start subscribes to the telemetry topic.
func (s *MQTTIngestService) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("mqtt ingest service is already running")
	}
	// Messages may arrive before the SUBACK.
	s.running = true
	s.mu.Unlock()

	s.logger.Info().Str("topic", s.subTopic).Msg("Subscribing to MQTT telemetry topic")
	token := s.mqttClient.Subscribe(s.subTopic, byte(s.qos), s.HandleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		s.logger.Error().Err(err).Str("topic", s.subTopic).Msg("Failed to subscribe to MQTT topic")
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	}

	s.logger.Info().Str("topic", s.subTopic).Msg("MQTTIngestService started successfully")
	return nil
}

// Stop unsubscribes, waits for in-flight messages and disconnects the client.
func (s *MQTTIngestService) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errors.New("mqtt ingest service is not running")
	}
	s.running = false
	s.mu.Unlock()

	token := s.mqttClient.Unsubscribe(s.subTopic)
	token.Wait()
	err := token.Error()
	if err != nil {
		s.logger.Error().Err(err).Str("topic", s.subTopic).Msg("Failed to unsubscribe from MQTT topic")
	}

	s.wg.Wait()
	s.mqttClient.Disconnect(250)

	s.logger.Info().Msg("MQTTIngestService stopped successfully")
	return err
}

// HandleMessage ingests one MQTT message. Rejected messages are logged and
// dropped; MQTT has no channel to report them back to the publisher.
func (s *MQTTIngestService) HandleMessage(_ MQTT.Client, msg MQTT.Message) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Warn().Str("topic", msg.Topic()).Msg("Received telemetry but service is stopping, ignoring message")
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	record, err := s.ingester.Ingest(msg.Payload(), TransportMQTT)
	if err != nil {
		s.logger.Warn().Err(err).Str("topic", msg.Topic()).Int("bytes", len(msg.Payload())).Msg("Rejected MQTT telemetry")
		return
	}

	s.logger.Debug().Str("topic", msg.Topic()).Str("device_id", record.DeviceID).Msg("Ingested MQTT telemetry")
}
