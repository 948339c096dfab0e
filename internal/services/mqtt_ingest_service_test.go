package services

import (
	"errors"
	"testing"

	"github.com/benmeehan/rov-hub/internal/mocks"
	"github.com/benmeehan/rov-hub/internal/models"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testTopic = "rov/+/telemetry"

func TestMQTTIngestService_Start_Success(t *testing.T) {
	// Setup
	client := new(mocks.MockMQTTClient)
	ingester := new(mocks.MockTelemetryIngester)
	client.On("Subscribe", testTopic, byte(1), mock.Anything).Return(mocks.NewCompletedToken(nil))

	svc := NewMQTTIngestService(testTopic, 1, client, ingester, zerolog.Nop())

	// Execute
	err := svc.Start()

	// Assert
	assert.NoError(t, err)
	client.AssertExpectations(t)

	// Try to start again (should fail)
	err = svc.Start()
	assert.EqualError(t, err, "mqtt ingest service is already running")
}

func TestMQTTIngestService_Start_SubscribeFailure(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	ingester := new(mocks.MockTelemetryIngester)
	client.On("Subscribe", testTopic, byte(1), mock.Anything).Return(mocks.NewCompletedToken(errors.New("not authorized")))

	svc := NewMQTTIngestService(testTopic, 1, client, ingester, zerolog.Nop())

	err := svc.Start()

	assert.EqualError(t, err, "not authorized")

	// A failed start leaves the service stopped.
	assert.EqualError(t, svc.Stop(), "mqtt ingest service is not running")
}

func TestMQTTIngestService_HandleMessage_Ingests(t *testing.T) {
	// Setup
	client := new(mocks.MockMQTTClient)
	ingester := new(mocks.MockTelemetryIngester)
	payload := []byte(`{"deviceId":"rov-1","depth":4}`)

	var handler mqtt.MessageHandler
	client.On("Subscribe", testTopic, byte(1), mock.Anything).
		Run(func(args mock.Arguments) { handler = args.Get(2).(mqtt.MessageHandler) }).
		Return(mocks.NewCompletedToken(nil))
	ingester.On("Ingest", payload, TransportMQTT).Return(models.TelemetryRecord{DeviceID: "rov-1"}, nil)

	svc := NewMQTTIngestService(testTopic, 1, client, ingester, zerolog.Nop())
	require.NoError(t, svc.Start())
	require.NotNil(t, handler)

	// Execute
	handler(nil, mocks.NewMockMessage("rov/rov-1/telemetry", payload))

	// Assert
	ingester.AssertExpectations(t)
}

func TestMQTTIngestService_HandleMessage_RejectIsDropped(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	ingester := new(mocks.MockTelemetryIngester)
	client.On("Subscribe", testTopic, byte(1), mock.Anything).Return(mocks.NewCompletedToken(nil))
	ingester.On("Ingest", []byte(`nope`), TransportMQTT).Return(models.TelemetryRecord{}, ErrInvalidPayload)

	svc := NewMQTTIngestService(testTopic, 1, client, ingester, zerolog.Nop())
	require.NoError(t, svc.Start())

	assert.NotPanics(t, func() {
		svc.HandleMessage(nil, mocks.NewMockMessage("rov/rov-1/telemetry", []byte(`nope`)))
	})
	ingester.AssertNumberOfCalls(t, "Ingest", 1)
}

func TestMQTTIngestService_Stop(t *testing.T) {
	// Setup
	client := new(mocks.MockMQTTClient)
	ingester := new(mocks.MockTelemetryIngester)
	client.On("Subscribe", testTopic, byte(1), mock.Anything).Return(mocks.NewCompletedToken(nil))
	client.On("Unsubscribe", []string{testTopic}).Return(mocks.NewCompletedToken(nil))
	client.On("Disconnect", uint(250)).Return()

	svc := NewMQTTIngestService(testTopic, 1, client, ingester, zerolog.Nop())
	require.NoError(t, svc.Start())

	// Execute
	err := svc.Stop()

	// Assert
	assert.NoError(t, err)
	client.AssertExpectations(t)

	// Messages after stop are ignored.
	svc.HandleMessage(nil, mocks.NewMockMessage("rov/rov-1/telemetry", []byte(`{}`)))
	ingester.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)

	// Try to stop again (should fail)
	assert.EqualError(t, svc.Stop(), "mqtt ingest service is not running")
}
