package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"sync"

	"github.com/benmeehan/rov-hub/pkg/file"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// MQTTClient defines the interface for an MQTT client.
type MQTTClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
	Disconnect(quiesce uint)
}

// ConnectionOptions describes how to reach the broker.
type ConnectionOptions struct {
	Broker        string
	ClientID      string
	CACertificate string // PEM file; TLS is used only when set
	Username      string
	Password      string
}

type subscription struct {
	qos      byte
	callback mqtt.MessageHandler
}

// MqttService provides methods for MQTT operations. Subscriptions are
// restored after the client reconnects.
type MqttService struct {
	client     mqtt.Client
	fileClient file.FileOperations
	logger     zerolog.Logger

	mu            sync.Mutex
	subscriptions map[string]subscription
}

// NewMqttService creates a new MqttService instance.
func NewMqttService(fileClient file.FileOperations, logger zerolog.Logger) *MqttService {
	return &MqttService{
		fileClient:    fileClient,
		logger:        logger,
		subscriptions: make(map[string]subscription),
	}
}

// Initialize sets up the MQTT client and starts the connection.
func (s *MqttService) Initialize(opts ConnectionOptions) error {
	if opts.Broker == "" {
		return errors.New("mqtt broker address is required")
	}

	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.Broker)
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetOrderMatters(true)
	clientOpts.SetOnConnectHandler(s.onConnect)
	clientOpts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.Warn().Err(err).Str("broker", opts.Broker).Msg("MQTT connection lost")
	})

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}

	if opts.CACertificate != "" {
		tlsConfig, err := s.tlsConfig(opts.CACertificate)
		if err != nil {
			return err
		}
		clientOpts.SetTLSConfig(tlsConfig)
	}

	s.client = mqtt.NewClient(clientOpts)

	token := s.Connect()
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}

	s.logger.Info().Str("broker", opts.Broker).Str("client_id", opts.ClientID).Msg("Connected to MQTT broker")
	return nil
}

func (s *MqttService) tlsConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := s.fileClient.ReadFileRaw(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to append CA certificate from %s", caCertPath)
	}
	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// onConnect re-subscribes everything registered before a reconnect.
func (s *MqttService) onConnect(client mqtt.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for topic, sub := range s.subscriptions {
		token := client.Subscribe(topic, sub.qos, sub.callback)
		go func(topic string, token mqtt.Token) {
			token.Wait()
			if err := token.Error(); err != nil {
				s.logger.Error().Err(err).Str("topic", topic).Msg("Failed to restore MQTT subscription")
				return
			}
			s.logger.Info().Str("topic", topic).Msg("Restored MQTT subscription")
		}(topic, token)
	}
}

// Connect connects to the MQTT broker.
func (s *MqttService) Connect() mqtt.Token {
	return s.client.Connect()
}

// Publish sends a message to the specified topic.
func (s *MqttService) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	return s.client.Publish(topic, qos, retained, payload)
}

// Subscribe subscribes to the specified topic with a message handler.
func (s *MqttService) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	s.mu.Lock()
	s.subscriptions[topic] = subscription{qos: qos, callback: callback}
	s.mu.Unlock()
	return s.client.Subscribe(topic, qos, callback)
}

// Unsubscribe unsubscribes from the specified topics.
func (s *MqttService) Unsubscribe(topics ...string) mqtt.Token {
	s.mu.Lock()
	for _, topic := range topics {
		delete(s.subscriptions, topic)
	}
	s.mu.Unlock()
	return s.client.Unsubscribe(topics...)
}

// Disconnect gracefully disconnects the MQTT client.
func (s *MqttService) Disconnect(quiesce uint) {
	s.client.Disconnect(quiesce)
}
