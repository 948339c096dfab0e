package relay

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/benmeehan/rov-hub/internal/models"
	"github.com/benmeehan/rov-hub/pkg/location"
	"github.com/rs/zerolog"
)

// SourceNMEA tags documents produced by the relay.
const SourceNMEA = "nmea"

// Poster delivers telemetry documents to the hub.
type Poster interface {
	PostTelemetry(ctx context.Context, doc any) error
}

// Relay reads NMEA sentences from a source and periodically posts the
// latest fix to the hub. It never touches hub state directly.
type Relay struct {
	// Configuration fields
	deviceID string
	interval time.Duration

	// Dependencies
	source  location.Source
	tracker *location.Tracker
	poster  Poster
	logger  zerolog.Logger

	// Internal state management
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	stream io.ReadCloser
}

// NewRelay creates a new Relay.
func NewRelay(deviceID string, interval time.Duration, source location.Source, poster Poster,
	logger zerolog.Logger) *Relay {

	return &Relay{
		deviceID: deviceID,
		interval: interval,
		source:   source,
		tracker:  location.NewTracker(),
		poster:   poster,
		logger:   logger,
	}
}

// Tracker returns the tracker holding the latest fix.
func (r *Relay) Tracker() *location.Tracker {
	return r.tracker
}

// Start opens the source and launches the reader and publisher loops.
func (r *Relay) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctx != nil {
		return errors.New("relay is already running")
	}

	stream, err := r.source.Open()
	if err != nil {
		r.logger.Error().Err(err).Str("source", r.source.String()).Msg("Failed to open NMEA source")
		return err
	}
	r.stream = stream
	r.ctx, r.cancel = context.WithCancel(context.Background())
	ctx := r.ctx

	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		r.readLoop(ctx, stream)
	}()
	go func() {
		defer r.wg.Done()
		r.publishLoop(ctx)
	}()

	r.logger.Info().
		Str("device_id", r.deviceID).
		Str("source", r.source.String()).
		Dur("interval", r.interval).
		Msg("Relay started")
	return nil
}

// Stop closes the source and waits for both loops to exit.
func (r *Relay) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctx == nil {
		return errors.New("relay is not running")
	}

	r.cancel()
	err := r.stream.Close()
	r.wg.Wait()

	r.ctx = nil
	r.cancel = nil
	r.stream = nil

	r.logger.Info().
		Uint64("parse_errors", r.tracker.ParseErrors()).
		Msg("Relay stopped")
	return err
}

func (r *Relay) readLoop(ctx context.Context, stream io.Reader) {
	err := r.tracker.Consume(stream, func(line string, err error) {
		r.logger.Debug().Err(err).Str("sentence", line).Msg("Skipping unparseable NMEA sentence")
	})
	if err != nil && ctx.Err() == nil {
		r.logger.Error().Err(err).Msg("NMEA source failed")
	}
}

func (r *Relay) publishLoop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.PublishFix(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error().Err(err).Msg("Failed to publish GPS fix")
			}
		case <-ctx.Done():
			return
		}
	}
}

// PublishFix posts the latest fix. Nothing is sent before the first valid
// position.
func (r *Relay) PublishFix(ctx context.Context) error {
	fix, ok := r.tracker.Fix()
	if !ok {
		r.logger.Debug().Msg("No GPS fix yet")
		return nil
	}

	doc := models.GPSTelemetry{
		DeviceID: r.deviceID,
		Source:   SourceNMEA,
		GPS:      fix,
	}
	if err := r.poster.PostTelemetry(ctx, doc); err != nil {
		return err
	}

	r.logger.Debug().
		Float64("lat", fix.Latitude).
		Float64("lon", fix.Longitude).
		Msg("GPS fix published")
	return nil
}
