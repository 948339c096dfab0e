package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/benmeehan/rov-hub/internal/constants"
	"github.com/benmeehan/rov-hub/internal/models"
	"github.com/benmeehan/rov-hub/internal/services"
	"github.com/rs/zerolog"
)

// TransportHTTP labels telemetry received on the HTTP endpoint.
const TransportHTTP = "http"

// Ingestor admits telemetry submitted by producers.
type Ingestor interface {
	Authenticate(key string) error
	Ingest(body []byte, transport string) (models.TelemetryRecord, error)
	MaxBodyBytes() int64
}

// StateReader exposes the latest record per device.
type StateReader interface {
	Get(deviceID string) (models.TelemetryRecord, bool)
	GetAll() map[string]models.TelemetryRecord
	DeviceIDs() []string
}

// TelemetryHandler serves ingestion and latest-state queries.
type TelemetryHandler struct {
	ingestor Ingestor
	state    StateReader
	logger   zerolog.Logger
}

// NewTelemetryHandler creates a TelemetryHandler.
func NewTelemetryHandler(ingestor Ingestor, state StateReader, logger zerolog.Logger) *TelemetryHandler {
	return &TelemetryHandler{
		ingestor: ingestor,
		state:    state,
		logger:   logger,
	}
}

// Ingest handles POST /api/telemetry.
func (h *TelemetryHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if err := h.ingestor.Authenticate(r.Header.Get(constants.HeaderAPIKey)); err != nil {
		h.logger.Warn().Str("remote_addr", r.RemoteAddr).Msg("Rejected telemetry with invalid API key")
		writeError(w, h.logger, http.StatusUnauthorized, "Invalid API key")
		return
	}

	// One byte past the limit is enough to tell an oversized body apart.
	body, err := io.ReadAll(io.LimitReader(r.Body, h.ingestor.MaxBodyBytes()+1))
	if err != nil {
		h.logger.Debug().Err(err).Msg("Failed to read telemetry body")
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if _, err := h.ingestor.Ingest(body, TransportHTTP); err != nil {
		switch {
		case errors.Is(err, services.ErrMissingDeviceID):
			writeError(w, h.logger, http.StatusBadRequest, "deviceId is required")
		case errors.Is(err, services.ErrInvalidPayload):
			writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON")
		default:
			h.logger.Error().Err(err).Msg("Telemetry ingestion failed")
			writeError(w, h.logger, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, models.IngestResponse{OK: true})
}

// Latest handles GET /api/telemetry/latest.
func (h *TelemetryHandler) Latest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, h.state.GetAll())
}

// LatestForDevice handles GET /api/telemetry/latest/{deviceId}.
func (h *TelemetryHandler) LatestForDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("deviceId")
	record, ok := h.state.Get(deviceID)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "device not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, record)
}

// Devices handles GET /api/devices.
func (h *TelemetryHandler) Devices(w http.ResponseWriter, r *http.Request) {
	ids := h.state.DeviceIDs()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, h.logger, http.StatusOK, ids)
}
