package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/benmeehan/rov-hub/internal/models"
	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, logger zerolog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug().Err(err).Msg("Failed to write response body")
	}
}

func writeError(w http.ResponseWriter, logger zerolog.Logger, status int, detail string) {
	writeJSON(w, logger, status, models.ErrorResponse{Detail: detail})
}
