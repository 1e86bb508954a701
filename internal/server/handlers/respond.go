package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper for error responses; server errors are logged
func respondWithError(w http.ResponseWriter, logger zerolog.Logger, code int, message string, err error) {
	if err != nil && code >= 500 {
		logger.Error().Err(err).Int("code", code).Msg(message)
	}
	respondWithJSON(w, code, map[string]string{"error": message})
}
