package handler

import (
	"context"
	"net/http"

	"staffhub/backend/internal/health"
	"staffhub/backend/internal/server/respond"
)

// HealthRunner runs readiness checks.
type HealthRunner interface {
	Run(ctx context.Context) health.Report
}

// Health handles GET /health: 200 when every check passes, 503 otherwise.
func Health(checker HealthRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep := checker.Run(r.Context())
		code := http.StatusOK
		if !rep.OK() {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(w, code, rep)
	}
}
