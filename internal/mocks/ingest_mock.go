package mocks

import (
	"github.com/benmeehan/rov-hub/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRecordStore is a mock implementation of services.RecordStore
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Put(deviceID string, record models.TelemetryRecord) {
	m.Called(deviceID, record)
}

// MockRecordLog is a mock implementation of services.RecordLog
type MockRecordLog struct {
	mock.Mock
}

func (m *MockRecordLog) Append(deviceID string, line []byte) {
	m.Called(deviceID, line)
}

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(evt models.Event) {
	m.Called(evt)
}

// MockTelemetryIngester is a mock implementation of services.TelemetryIngester
type MockTelemetryIngester struct {
	mock.Mock
}

func (m *MockTelemetryIngester) Ingest(body []byte, transport string) (models.TelemetryRecord, error) {
	args := m.Called(body, transport)
	return args.Get(0).(models.TelemetryRecord), args.Error(1)
}
