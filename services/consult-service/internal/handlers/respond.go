package handlers

import (
	"encoding/json"
	"net/http"
)

// envelope is the JSON shape every API response uses.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: status < 400,
		Message: message,
		Data:    data,
	})
}

// writeClientError surfaces a human-readable message on 4xx responses.
func writeClientError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, message, nil)
}

// writeServerError keeps internal detail out of 5xx bodies; callers log the
// underlying error before invoking it.
func writeServerError(w http.ResponseWriter, status int) {
	writeJSON(w, status, "internal error", nil)
}
