package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"staffhub/backend/internal/audit"
	"staffhub/backend/internal/session"
)

// Audit records an audit event after each mutating request made by an authenticated principal.
// Reads are not audited.
func Audit(logger audit.AuditLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimid.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if logger == nil || r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				return
			}
			p, ok := session.PrincipalFrom(r.Context())
			if !ok {
				return
			}
			pattern := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				pattern = rc.RoutePattern()
			}
			ar := audit.ParseRoute(r.Method, pattern)
			logger.LogEvent(r.Context(), p.UID, string(p.Role), ar.Action, ar.Resource, map[string]string{
				"path":       r.URL.Path,
				"status":     strconv.Itoa(ww.Status()),
				"request_id": chimid.GetReqID(r.Context()),
			})
		})
	}
}
