package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/benmeehan/rov-hub/internal/eventbus"
	"github.com/benmeehan/rov-hub/internal/models"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const wsWriteTimeout = 10 * time.Second

// Subscriber registers and releases event queues.
type Subscriber interface {
	Subscribe() *eventbus.Subscription
	Unsubscribe(sub *eventbus.Subscription)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamHandler pushes bus events to live clients.
type StreamHandler struct {
	bus    Subscriber
	logger zerolog.Logger
}

// NewStreamHandler creates a StreamHandler.
func NewStreamHandler(bus Subscriber, logger zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		bus:    bus,
		logger: logger,
	}
}

// Events handles GET /api/events as a Server-Sent Events stream. The stream
// ends when the client goes away, a write fails or the queue is torn down.
func (h *StreamHandler) Events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	logger := h.logger.With().Str("subscription_id", sub.ID()).Str("transport", "sse").Logger()
	logger.Info().Str("remote_addr", r.RemoteAddr).Msg("Live stream opened")
	defer func() { logger.Info().Msg("Live stream closed") }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		logger.Error().Err(err).Msg("Response does not support streaming")
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := encodeEvent(evt)
			if err != nil {
				logger.Error().Err(err).Str("type", evt.Type).Msg("Failed to encode event")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data); err != nil {
				logger.Debug().Err(err).Msg("Live stream write failed")
				return
			}
			if err := rc.Flush(); err != nil {
				logger.Debug().Err(err).Msg("Live stream flush failed")
				return
			}
		}
	}
}

// EventsWS handles GET /api/events/ws. Each event is sent as one text
// message carrying the same document as the SSE data line.
func (h *StreamHandler) EventsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	logger := h.logger.With().Str("subscription_id", sub.ID()).Str("transport", "websocket").Logger()
	logger.Info().Str("remote_addr", r.RemoteAddr).Msg("Live stream opened")
	defer func() { logger.Info().Msg("Live stream closed") }()

	// Clients never send data; reading surfaces their close frame.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case evt, ok := <-sub.Events():
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteTimeout))
				return
			}
			data, err := encodeEvent(evt)
			if err != nil {
				logger.Error().Err(err).Str("type", evt.Type).Msg("Failed to encode event")
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug().Err(err).Msg("Live stream write failed")
				return
			}
		}
	}
}

// encodeEvent renders evt as a single line of JSON, leaving non-ASCII and
// HTML characters unescaped.
func encodeEvent(evt models.Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(evt); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
