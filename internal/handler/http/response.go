package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, logger zerolog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes a JSON error response
func errorResponse(w http.ResponseWriter, logger zerolog.Logger, status int, message string) {
	jsonResponse(w, logger, status, map[string]string{
		"error": message,
	})
}
