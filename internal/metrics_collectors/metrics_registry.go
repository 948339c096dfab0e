package metrics_collectors

import (
	"context"

	"github.com/benmeehan/rov-hub/internal/models"
)

// MetricsRegistry manages the collectors reported by the readiness endpoint.
type MetricsRegistry struct {
	collectors map[string]MetricCollector
}

// NewMetricsRegistry creates a new MetricsRegistry instance.
func NewMetricsRegistry(collectors ...MetricCollector) *MetricsRegistry {
	r := &MetricsRegistry{
		collectors: make(map[string]MetricCollector),
	}
	for _, c := range collectors {
		r.Register(c)
	}
	return r
}

// Register adds a new metric collector to the registry.
func (r *MetricsRegistry) Register(collector MetricCollector) {
	r.collectors[collector.Name()] = collector
}

// GetCollectors returns all the metric collectors registered in the registry.
func (r *MetricsRegistry) GetCollectors() map[string]MetricCollector {
	return r.collectors
}

// CollectAll runs every collector and skips the ones that returned nothing.
func (r *MetricsRegistry) CollectAll(ctx context.Context) map[string]models.Metric {
	out := make(map[string]models.Metric, len(r.collectors))
	for name, collector := range r.collectors {
		value := collector.Collect(ctx)
		if value == nil {
			continue
		}
		out[name] = models.Metric{Value: value, Unit: collector.Unit()}
	}
	return out
}
