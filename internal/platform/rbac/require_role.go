// Package rbac gates routes by the caller's role, decided by the access policy.
package rbac

import (
	"context"
	"errors"

	identitydomain "staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/policy/engine"
	"staffhub/backend/internal/session"
)

var (
	// ErrNoPrincipal means the authenticator did not run before the role gate.
	ErrNoPrincipal = errors.New("rbac: no principal in context")
	// ErrForbidden means the policy denied the caller's role.
	ErrForbidden = errors.New("rbac: role not permitted")
)

// Request identifies the route being gated; it is passed to the policy for custom rules.
type Request struct {
	Method string
	Path   string
}

// RequireRole ensures the context principal satisfies required under evaluator.
// Returns the principal on success. A policy evaluation error denies.
func RequireRole(ctx context.Context, evaluator engine.Evaluator, required identitydomain.Role, req Request) (*session.Principal, error) {
	p, ok := session.PrincipalFrom(ctx)
	if !ok {
		return nil, ErrNoPrincipal
	}
	allowed, err := evaluator.Allow(ctx, engine.AccessInput{
		Role:         string(p.Role),
		RequiredRole: string(required),
		Method:       req.Method,
		Path:         req.Path,
	})
	if err != nil {
		return nil, errors.Join(ErrForbidden, err)
	}
	if !allowed {
		return nil, ErrForbidden
	}
	return p, nil
}
