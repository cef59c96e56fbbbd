// Package respond writes the API's JSON envelopes: {"success": true, ...} and {"error": true, "message": ...}.
package respond

import (
	"encoding/json"
	"net/http"

	"staffhub/backend/internal/apperr"
)

// JSON writes v with code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a 200 success envelope with message and any extra fields.
func OK(w http.ResponseWriter, message string, fields map[string]any) {
	body := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	if message != "" {
		body["message"] = message
	}
	JSON(w, http.StatusOK, body)
}

// Error writes the failure envelope with an explicit status and message.
func Error(w http.ResponseWriter, code int, message string) {
	JSON(w, code, map[string]any{"error": true, "message": message})
}

// Err writes err classified by apperr: its status and caller-safe message.
func Err(w http.ResponseWriter, err error) {
	Error(w, apperr.HTTPStatus(err), apperr.Message(err))
}
