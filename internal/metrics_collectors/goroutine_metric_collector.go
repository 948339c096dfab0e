package metrics_collectors

import (
	"context"
	"runtime"
)

// GoroutineMetricCollector collects the number of active goroutines. Every live
// stream holds one, so a count that keeps growing points at leaked streams.
type GoroutineMetricCollector struct{}

// Name returns the identifier for the goroutine metric collector.
func (g *GoroutineMetricCollector) Name() string {
	return "goroutines"
}

// Collect retrieves the number of active goroutines.
func (g *GoroutineMetricCollector) Collect(ctx context.Context) any {
	return runtime.NumGoroutine()
}

// Unit specifies the unit for the goroutine count metric.
func (g *GoroutineMetricCollector) Unit() string {
	return "count"
}

// Description provides a summary of the goroutine metric collected.
func (g *GoroutineMetricCollector) Description() string {
	return "Number of active goroutines in the runtime."
}
