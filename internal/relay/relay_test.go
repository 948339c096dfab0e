package relay

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benmeehan/rov-hub/internal/models"
	"github.com/benmeehan/rov-hub/pkg/file"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testGGA = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"

type mockPoster struct {
	mock.Mock
}

func (m *mockPoster) PostTelemetry(ctx context.Context, doc any) error {
	return m.Called(doc).Error(0)
}

// pipeSource hands out the read end of an in-memory pipe.
type pipeSource struct {
	reader *io.PipeReader
	err    error
}

func (p *pipeSource) Open() (io.ReadCloser, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.reader, nil
}

func (p *pipeSource) String() string { return "pipe" }

func TestRelay_PublishFix_NoFixYet(t *testing.T) {
	poster := new(mockPoster)
	r := NewRelay("rov-1", time.Second, &pipeSource{}, poster, zerolog.Nop())

	err := r.PublishFix(context.Background())

	assert.NoError(t, err)
	poster.AssertNotCalled(t, "PostTelemetry", mock.Anything)
}

func TestRelay_PublishFix_PostsDocument(t *testing.T) {
	// Setup
	poster := new(mockPoster)
	r := NewRelay("rov-1", time.Second, &pipeSource{}, poster, zerolog.Nop())
	require.NoError(t, r.Tracker().Feed(testGGA))

	var posted models.GPSTelemetry
	poster.On("PostTelemetry", mock.AnythingOfType("models.GPSTelemetry")).
		Run(func(args mock.Arguments) { posted = args.Get(0).(models.GPSTelemetry) }).
		Return(nil)

	// Execute
	err := r.PublishFix(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "rov-1", posted.DeviceID)
	assert.Equal(t, SourceNMEA, posted.Source)
	assert.InDelta(t, 48.1173, posted.GPS.Latitude, 1e-4)
	poster.AssertExpectations(t)
}

func TestRelay_PublishFix_PropagatesError(t *testing.T) {
	poster := new(mockPoster)
	r := NewRelay("rov-1", time.Second, &pipeSource{}, poster, zerolog.Nop())
	require.NoError(t, r.Tracker().Feed(testGGA))
	poster.On("PostTelemetry", mock.Anything).Return(errors.New("hub down"))

	assert.EqualError(t, r.PublishFix(context.Background()), "hub down")
}

func TestRelay_StartStop(t *testing.T) {
	// Setup
	reader, writer := io.Pipe()
	poster := new(mockPoster)
	posted := make(chan struct{}, 10)
	poster.On("PostTelemetry", mock.Anything).Run(func(mock.Arguments) { posted <- struct{}{} }).Return(nil)
	r := NewRelay("rov-1", 20*time.Millisecond, &pipeSource{reader: reader}, poster, zerolog.Nop())

	// Execute
	require.NoError(t, r.Start())
	assert.Error(t, r.Start())
	_, err := io.WriteString(writer, "garbage\r\n"+testGGA+"\r\n")
	require.NoError(t, err)

	// Assert
	select {
	case <-posted:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not post a fix")
	}
	assert.Equal(t, uint64(1), r.Tracker().ParseErrors())

	require.NoError(t, r.Stop())
	assert.Error(t, r.Stop())
}

func TestRelay_Start_SourceError(t *testing.T) {
	r := NewRelay("rov-1", time.Second, &pipeSource{err: errors.New("no such port")}, new(mockPoster), zerolog.Nop())

	assert.EqualError(t, r.Start(), "no such port")
}

func writeRelayConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeRelayConfig(t, `
device_id: rov-1
hub_url: http://hub:8000
api_key: secret
source:
  port: /dev/ttyUSB0
`)

	cfg, err := LoadConfig(path, file.NewFileService())

	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, SourceSerial, cfg.Source.Type)
	assert.Equal(t, 4800, cfg.Source.BaudRate)
}

func TestLoadConfig_UDP(t *testing.T) {
	path := writeRelayConfig(t, `
device_id: rov-1
hub_url: http://hub:8000
api_key: secret
interval: 2s
source:
  type: udp
  listen: ":10110"
`)

	cfg, err := LoadConfig(path, file.NewFileService())

	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, ":10110", cfg.Source.Listen)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing device": "hub_url: http://hub\napi_key: k\nsource:\n  port: /dev/ttyS0\n",
		"missing port":   "device_id: rov-1\nhub_url: http://hub\napi_key: k\n",
		"unknown source": "device_id: rov-1\nhub_url: http://hub\napi_key: k\nsource:\n  type: tcp\n",
		"unknown field":  "device_id: rov-1\nhub_url: http://hub\napi_key: k\nbogus: 1\nsource:\n  port: /dev/ttyS0\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeRelayConfig(t, body), file.NewFileService())
			assert.Error(t, err)
		})
	}
}
