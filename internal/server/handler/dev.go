package handler

import (
	"net/http"
	"strings"

	"staffhub/backend/internal/devotp"
	"staffhub/backend/internal/server/respond"
)

// DevOTP handles GET /dev/otp?value=. Mounted only when codes are returned to clients.
func DevOTP(codes devotp.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value := strings.TrimSpace(r.URL.Query().Get("value"))
		if value == "" {
			respond.Error(w, http.StatusBadRequest, msgMissingParams)
			return
		}
		code, ok := codes.Get(r.Context(), value)
		if !ok {
			respond.Error(w, http.StatusNotFound, "No OTP for value")
			return
		}
		respond.OK(w, "", map[string]any{"otp": code})
	}
}
