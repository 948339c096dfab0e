package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	TelemetryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rovhub_telemetry_total",
			Help: "Total number of telemetry submissions by transport and outcome",
		},
		[]string{"transport", "status"},
	)

	TelemetryBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rovhub_telemetry_bytes_total",
			Help: "Total bytes of accepted telemetry documents",
		},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rovhub_ingest_duration_seconds",
			Help:    "Duration of accepted ingestions from stamp to publish",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Storage metrics
	StorageFaults = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rovhub_storage_faults_total",
			Help: "Total number of append-log writes that failed",
		},
	)

	// Event bus metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rovhub_events_published_total",
			Help: "Total number of events published on the bus",
		},
		[]string{"type"},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rovhub_events_dropped_total",
			Help: "Total number of per-subscriber event copies dropped because a queue was full",
		},
	)

	Subscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rovhub_subscribers",
			Help: "Current number of live event subscribers",
		},
	)

	// Manifest metrics
	ManifestRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rovhub_manifest_requests_total",
			Help: "Total number of firmware manifest lookups by outcome",
		},
		[]string{"status"},
	)
)
