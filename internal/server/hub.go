package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/benmeehan/rov-hub/internal/eventbus"
	"github.com/benmeehan/rov-hub/internal/handlers"
	"github.com/benmeehan/rov-hub/internal/metrics_collectors"
	"github.com/benmeehan/rov-hub/internal/services"
	"github.com/benmeehan/rov-hub/internal/state_managers"
	"github.com/benmeehan/rov-hub/internal/utils"
	"github.com/benmeehan/rov-hub/pkg/file"
	"github.com/rs/zerolog"
)

// Hub owns the shared state of one running telemetry hub.
type Hub struct {
	Cache      *state_managers.LatestStateCache
	AppendLog  *state_managers.AppendLog
	Bus        *eventbus.Bus
	Ingest     *services.IngestService
	Manifests  *services.ManifestService
	Collectors *metrics_collectors.MetricsRegistry
	StartedAt  time.Time

	firmwareDir string
	logger      zerolog.Logger
}

// NewHub builds the hub components from config.
func NewHub(config *utils.Config, fileClient file.FileOperations, logger zerolog.Logger) (*Hub, error) {
	appendLog, err := state_managers.NewAppendLog(config.Storage.DataDir, config.AppendLog.Fsync,
		logger.With().Str("component", "append_log").Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to open append log: %w", err)
	}

	cache := state_managers.NewLatestStateCache()
	bus := eventbus.NewBus(config.Events.QueueCapacity, logger.With().Str("component", "eventbus").Logger())

	return &Hub{
		Cache:     cache,
		AppendLog: appendLog,
		Bus:       bus,
		Ingest: services.NewIngestService(config.Ingest.APIKey, config.Ingest.MaxBodyBytes, cache, appendLog, bus,
			logger.With().Str("component", "ingest").Logger()),
		Manifests: services.NewManifestService(config.Firmware.Dir, fileClient,
			logger.With().Str("component", "manifest").Logger()),
		Collectors: metrics_collectors.NewMetricsRegistry(
			&metrics_collectors.DiskMetricCollector{Path: config.Storage.DataDir, Logger: logger},
			&metrics_collectors.MemoryMetricCollector{Logger: logger},
			&metrics_collectors.GoroutineMetricCollector{},
		),
		StartedAt:   time.Now(),
		firmwareDir: config.Firmware.Dir,
		logger:      logger,
	}, nil
}

// DeviceCount returns the number of devices with a cached record.
func (h *Hub) DeviceCount() int {
	return h.Cache.Count()
}

// SubscriberCount returns the number of live stream subscribers.
func (h *Hub) SubscriberCount() int {
	return h.Bus.SubscriberCount()
}

// StorageFaults returns the number of failed append-log writes.
func (h *Hub) StorageFaults() uint64 {
	return h.AppendLog.Faults()
}

// Handler returns the HTTP handler serving every hub endpoint.
func (h *Hub) Handler() http.Handler {
	return NewRouter(RouterConfig{
		TelemetryHandler: handlers.NewTelemetryHandler(h.Ingest, h.Cache, h.logger),
		StreamHandler:    handlers.NewStreamHandler(h.Bus, h.logger),
		ManifestHandler:  handlers.NewManifestHandler(h.Manifests, h.logger),
		HealthHandler:    handlers.NewHealthHandler(h, h.Collectors, h.StartedAt, h.logger),
		FirmwareDir:      h.firmwareDir,
		Logger:           h.logger,
	})
}

// Close ends every live stream and releases the append-log handles.
func (h *Hub) Close() error {
	h.Bus.Close()
	if err := h.AppendLog.Close(); err != nil {
		return fmt.Errorf("failed to close append log: %w", err)
	}
	return nil
}
