// Package engine evaluates the access policy with OPA Rego.
package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const accessQuery = "data.staffhub.access.allow"

// DefaultAccessPolicy grants a role-gated route only to the exact required role.
const DefaultAccessPolicy = `package staffhub.access

default allow := false

allow if {
	input.role != ""
	input.role == input.required_role
}
`

// OPAEvaluator evaluates the access policy using a prepared Rego query.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles policies (DefaultAccessPolicy when none given) and prepares the allow query.
// Every policy module must declare package staffhub.access.
func NewOPAEvaluator(ctx context.Context, policies ...string) (*OPAEvaluator, error) {
	if len(policies) == 0 {
		policies = []string{DefaultAccessPolicy}
	}
	modules := make(map[string]string, len(policies))
	for i, p := range policies {
		modules[fmt.Sprintf("policy_%d.rego", i)] = p
	}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return nil, fmt.Errorf("compile policies: %w", err)
	}
	pq, err := rego.New(
		rego.Query(accessQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy query: %w", err)
	}
	return &OPAEvaluator{query: pq}, nil
}

// Allow reports whether in is permitted. Any evaluation failure denies and returns the error.
func (e *OPAEvaluator) Allow(ctx context.Context, in AccessInput) (bool, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"role":          in.Role,
		"required_role": in.RequiredRole,
		"method":        in.Method,
		"path":          in.Path,
	}))
	if err != nil {
		return false, fmt.Errorf("eval access policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("access policy returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("access policy returned %T, want bool", rs[0].Expressions[0].Value)
	}
	return allowed, nil
}

// HealthCheck verifies that the prepared query evaluates a known grant. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	ok, err := e.Allow(ctx, AccessInput{Role: "owner", RequiredRole: "owner"})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("access policy denied the health probe")
	}
	return nil
}
