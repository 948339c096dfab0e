package services

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPService_StartStop(t *testing.T) {
	// Setup
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	svc := NewHTTPService("127.0.0.1:0", handler, time.Second, time.Second, time.Second, zerolog.Nop())

	shutdownHooks := make(chan struct{})
	svc.OnShutdown(func() { close(shutdownHooks) })

	// Execute
	require.NoError(t, svc.Start())
	assert.Error(t, svc.Start())

	resp, err := http.Get("http://" + svc.Addr() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	// Assert
	assert.Equal(t, "pong", string(body))

	require.NoError(t, svc.Stop())
	select {
	case <-shutdownHooks:
	case <-time.After(time.Second):
		t.Fatal("shutdown hook did not run")
	}
	assert.Error(t, svc.Stop())
}

func TestHTTPService_Start_BindError(t *testing.T) {
	first := NewHTTPService("127.0.0.1:0", http.NotFoundHandler(), time.Second, time.Second, time.Second, zerolog.Nop())
	require.NoError(t, first.Start())
	defer first.Stop()

	second := NewHTTPService(first.Addr(), http.NotFoundHandler(), time.Second, time.Second, time.Second, zerolog.Nop())

	assert.Error(t, second.Start())
}
