package telemetryclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostTelemetry_Success(t *testing.T) {
	// Setup
	var gotKey, gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "secret", time.Second)

	// Execute
	err := client.PostTelemetry(context.Background(), map[string]any{"deviceId": "rov-1"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "/api/telemetry", gotPath)
	assert.Equal(t, "rov-1", gotBody["deviceId"])
}

func TestClient_PostTelemetry_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Invalid API key"}`)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "wrong", time.Second).PostTelemetry(context.Background(), map[string]any{})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid API key", apiErr.Detail)
	assert.EqualError(t, err, "hub returned status 401: Invalid API key")
}

func TestClient_PostTelemetry_Unencodable(t *testing.T) {
	err := NewClient("http://127.0.0.1:1", "k", time.Second).PostTelemetry(context.Background(), make(chan int))

	assert.ErrorContains(t, err, "failed to encode telemetry")
}
