package metrics_collectors

import (
	"context"
)

// MetricCollector defines the interface for collecting a readiness metric.
type MetricCollector interface {
	Name() string                    // Name of the metric (e.g., "memory", "data_disk")
	Collect(ctx context.Context) any // Collect the metric data, nil when unavailable
	Unit() string                    // Unit of the metric (e.g., "percentage", "count")
	Description() string             // Description of the metric
}
