package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// HTTPService runs the hub's HTTP server.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
}

// NewHTTPService initializes an HTTPService listening on addr. No write
// timeout is set because live streams never complete.
func NewHTTPService(addr string, handler http.Handler, readTimeout, idleTimeout, shutdownTimeout time.Duration,
	logger zerolog.Logger) *HTTPService {

	return &HTTPService{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readTimeout,
			IdleTimeout:       idleTimeout,
		},
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// OnShutdown registers f to run when shutdown begins, before in-flight
// requests are drained.
func (h *HTTPService) OnShutdown(f func()) {
	h.server.RegisterOnShutdown(f)
}

// Addr returns the bound address, or the configured one before Start.
func (h *HTTPService) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener != nil {
		return h.listener.Addr().String()
	}
	return h.server.Addr
}

// Start binds the listen address and serves in the background. Bind errors
// are returned synchronously.
func (h *HTTPService) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.listener != nil {
		return errors.New("http service is already running")
	}

	listener, err := net.Listen("tcp", h.server.Addr)
	if err != nil {
		h.logger.Error().Err(err).Str("addr", h.server.Addr).Msg("Failed to bind HTTP listener")
		return err
	}
	h.listener = listener
	h.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		if err := h.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}(h.done)

	h.logger.Info().Str("addr", listener.Addr().String()).Msg("HTTPService started successfully")
	return nil
}

// Stop drains in-flight requests for up to the shutdown timeout, then closes
// whatever is left.
func (h *HTTPService) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.listener == nil {
		return errors.New("http service is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()

	err := h.server.Shutdown(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("HTTP shutdown timed out, closing remaining connections")
		_ = h.server.Close()
	}
	<-h.done

	h.listener = nil
	h.logger.Info().Msg("HTTPService stopped successfully")
	return err
}
