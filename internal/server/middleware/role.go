package middleware

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"staffhub/backend/internal/audit"
	identitydomain "staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/platform/rbac"
	"staffhub/backend/internal/policy/engine"
	"staffhub/backend/internal/server/respond"
	"staffhub/backend/internal/session"
)

// RoleGate builds role-gating middleware over the access policy.
type RoleGate struct {
	evaluator engine.Evaluator
	audit     audit.AuditLogger
	log       zerolog.Logger
}

// NewRoleGate returns a RoleGate. auditLogger may be nil.
func NewRoleGate(evaluator engine.Evaluator, auditLogger audit.AuditLogger, log zerolog.Logger) *RoleGate {
	return &RoleGate{evaluator: evaluator, audit: auditLogger, log: log}
}

// RequireRole lets through only principals the policy grants role. It must run after Authenticator.Handler;
// a missing principal panics.
func (g *RoleGate) RequireRole(role identitydomain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := rbac.RequireRole(r.Context(), g.evaluator, role, rbac.Request{Method: r.Method, Path: r.URL.Path})
			if errors.Is(err, rbac.ErrNoPrincipal) {
				panic("middleware: RequireRole used without Authenticator")
			}
			if err != nil {
				if err != rbac.ErrForbidden {
					g.log.Warn().Err(err).Msg("access policy evaluation failed")
				}
				if g.audit != nil {
					p, _ := session.PrincipalFrom(r.Context())
					g.audit.LogEvent(r.Context(), p.UID, string(p.Role), audit.ActionAccessDenied, r.URL.Path,
						map[string]string{"required_role": string(role)})
				}
				respond.Error(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
