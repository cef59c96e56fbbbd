package rbac

import (
	"context"
	"errors"
	"testing"

	identitydomain "staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/policy/engine"
	"staffhub/backend/internal/session"
)

type stubEvaluator struct {
	allow bool
	err   error
	got   engine.AccessInput
}

func (s *stubEvaluator) Allow(ctx context.Context, in engine.AccessInput) (bool, error) {
	s.got = in
	return s.allow, s.err
}

func ownerCtx() context.Context {
	return session.WithPrincipal(context.Background(), &session.Principal{UID: "u1", Role: identitydomain.RoleOwner})
}

func TestRequireRole_Allowed(t *testing.T) {
	ev := &stubEvaluator{allow: true}
	p, err := RequireRole(ownerCtx(), ev, identitydomain.RoleOwner, Request{Method: "GET", Path: "/api/employees"})
	if err != nil {
		t.Fatalf("RequireRole: %v", err)
	}
	if p.UID != "u1" {
		t.Errorf("uid = %q, want u1", p.UID)
	}
	if ev.got.Role != "owner" || ev.got.RequiredRole != "owner" || ev.got.Path != "/api/employees" {
		t.Errorf("input = %+v", ev.got)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	_, err := RequireRole(ownerCtx(), &stubEvaluator{}, identitydomain.RoleEmployee, Request{})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("got = %v, want %v", err, ErrForbidden)
	}
}

func TestRequireRole_EvaluatorErrorDenies(t *testing.T) {
	_, err := RequireRole(ownerCtx(), &stubEvaluator{allow: true, err: errors.New("opa down")}, identitydomain.RoleOwner, Request{})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("got = %v, want %v", err, ErrForbidden)
	}
}

func TestRequireRole_NoPrincipal(t *testing.T) {
	_, err := RequireRole(context.Background(), &stubEvaluator{allow: true}, identitydomain.RoleOwner, Request{})
	if !errors.Is(err, ErrNoPrincipal) {
		t.Errorf("got = %v, want %v", err, ErrNoPrincipal)
	}
}

func TestRequireRole_WithOPA(t *testing.T) {
	ev, err := engine.NewOPAEvaluator(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	empCtx := session.WithPrincipal(context.Background(), &session.Principal{UID: "e1", Role: identitydomain.RoleEmployee})
	if _, err := RequireRole(empCtx, ev, identitydomain.RoleOwner, Request{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("employee on owner route: got = %v, want %v", err, ErrForbidden)
	}
	if _, err := RequireRole(ownerCtx(), ev, identitydomain.RoleOwner, Request{}); err != nil {
		t.Errorf("owner on owner route: %v", err)
	}
}
