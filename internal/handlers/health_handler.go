package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/benmeehan/rov-hub/internal/metrics_collectors"
	"github.com/benmeehan/rov-hub/internal/models"
	"github.com/rs/zerolog"
)

const readinessTimeout = 2 * time.Second

// HubStats reports the live size of the hub's state.
type HubStats interface {
	DeviceCount() int
	SubscriberCount() int
	StorageFaults() uint64
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	stats     HubStats
	registry  *metrics_collectors.MetricsRegistry
	startedAt time.Time
	logger    zerolog.Logger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(stats HubStats, registry *metrics_collectors.MetricsRegistry, startedAt time.Time,
	logger zerolog.Logger) *HealthHandler {

	return &HealthHandler{
		stats:     stats,
		registry:  registry,
		startedAt: startedAt,
		logger:    logger,
	}
}

// Healthz handles GET /healthz.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Readyz handles GET /readyz.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	report := models.ReadinessReport{
		Status:        "ok",
		StartedAt:     h.startedAt.UTC(),
		Devices:       h.stats.DeviceCount(),
		Subscribers:   h.stats.SubscriberCount(),
		StorageFaults: h.stats.StorageFaults(),
		Metrics:       map[string]models.Metric{},
	}
	if h.registry != nil {
		report.Metrics = h.registry.CollectAll(ctx)
	}

	writeJSON(w, h.logger, http.StatusOK, report)
}
