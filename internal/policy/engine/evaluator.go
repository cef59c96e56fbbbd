package engine

import "context"

// AccessInput is the document the access policy is evaluated against.
type AccessInput struct {
	Role         string `json:"role"`
	RequiredRole string `json:"required_role"`
	Method       string `json:"method,omitempty"`
	Path         string `json:"path,omitempty"`
}

// Evaluator decides whether a caller may reach a role-gated route.
type Evaluator interface {
	Allow(ctx context.Context, in AccessInput) (bool, error)
}
