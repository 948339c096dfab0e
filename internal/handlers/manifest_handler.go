package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/benmeehan/rov-hub/internal/constants"
	"github.com/benmeehan/rov-hub/internal/models"
	"github.com/benmeehan/rov-hub/internal/services"
	"github.com/rs/zerolog"
)

// ManifestResolver looks up firmware manifests.
type ManifestResolver interface {
	GetManifest(deviceID, channel string) (*models.Manifest, error)
	UpdateAvailable(manifest *models.Manifest, current string) (bool, error)
}

// ManifestHandler serves OTA manifests.
type ManifestHandler struct {
	manifests ManifestResolver
	logger    zerolog.Logger
}

// NewManifestHandler creates a ManifestHandler.
func NewManifestHandler(manifests ManifestResolver, logger zerolog.Logger) *ManifestHandler {
	return &ManifestHandler{
		manifests: manifests,
		logger:    logger,
	}
}

// Manifest handles GET /ota/manifest/{deviceId}?channel=<name>&current=<semver>.
// The manifest bytes are served unchanged with a strong ETag.
func (h *ManifestHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("deviceId")
	query := r.URL.Query()

	manifest, err := h.manifests.GetManifest(deviceID, query.Get("channel"))
	if err != nil {
		if errors.Is(err, services.ErrManifestNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "manifest not found")
			return
		}
		writeError(w, h.logger, http.StatusInternalServerError, "manifest error")
		return
	}

	etag := `"` + manifest.Digest + `"`
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", etag)

	if current := query.Get("current"); current != "" {
		available, err := h.manifests.UpdateAvailable(manifest, current)
		if err != nil {
			h.logger.Debug().Err(err).Str("device_id", deviceID).Msg("Cannot compare firmware versions")
		} else {
			w.Header().Set(constants.HeaderUpdateAvailable, strconv.FormatBool(available))
		}
	}

	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(manifest.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(manifest.Body); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to write manifest")
	}
}

// etagMatches implements the weak comparison If-None-Match uses.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
