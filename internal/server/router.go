package server

import (
	"net/http"
	"path"

	"github.com/benmeehan/rov-hub/internal/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// RouterConfig holds dependencies needed to configure routes.
type RouterConfig struct {
	TelemetryHandler *handlers.TelemetryHandler
	StreamHandler    *handlers.StreamHandler
	ManifestHandler  *handlers.ManifestHandler
	HealthHandler    *handlers.HealthHandler
	FirmwareDir      string
	Logger           zerolog.Logger
}

// NewRouter constructs a ServeMux with the hub routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	// Telemetry
	mux.HandleFunc("POST /api/telemetry", cfg.TelemetryHandler.Ingest)
	mux.HandleFunc("GET /api/telemetry/latest", cfg.TelemetryHandler.Latest)
	mux.HandleFunc("GET /api/telemetry/latest/{deviceId}", cfg.TelemetryHandler.LatestForDevice)
	mux.HandleFunc("GET /api/devices", cfg.TelemetryHandler.Devices)

	// Live streams
	mux.HandleFunc("GET /api/events", cfg.StreamHandler.Events)
	mux.HandleFunc("GET /api/events/ws", cfg.StreamHandler.EventsWS)

	// OTA
	mux.HandleFunc("GET /ota/manifest/{deviceId}", cfg.ManifestHandler.Manifest)
	mux.Handle("GET /firmware/", http.StripPrefix("/firmware", firmwareFiles(cfg.FirmwareDir)))

	// Health and metrics
	mux.HandleFunc("GET /healthz", cfg.HealthHandler.Healthz)
	mux.HandleFunc("GET /readyz", cfg.HealthHandler.Readyz)
	mux.Handle("GET /metrics", promhttp.Handler())

	corsPolicy := cors.New(cors.Options{
		AllowOriginFunc:  func(string) bool { return true },
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions, http.MethodHead},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return RequestID(AccessLog(cfg.Logger)(corsPolicy.Handler(mux)))
}

// firmwareFiles serves firmware binaries without directory listings.
func firmwareFiles(root string) http.Handler {
	dir := http.Dir(root)
	files := http.FileServer(dir)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, err := dir.Open(path.Clean("/" + r.URL.Path))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		info, err := f.Stat()
		f.Close()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
