package engine

import (
	"context"
	"testing"
)

func TestOPAEvaluator_HealthCheck(t *testing.T) {
	e, err := NewOPAEvaluator(context.Background())
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestOPAEvaluator_DefaultPolicy(t *testing.T) {
	e, err := NewOPAEvaluator(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		in   AccessInput
		want bool
	}{
		{"owner on owner route", AccessInput{Role: "owner", RequiredRole: "owner"}, true},
		{"employee on owner route", AccessInput{Role: "employee", RequiredRole: "owner"}, false},
		{"owner on employee route", AccessInput{Role: "owner", RequiredRole: "employee"}, false},
		{"empty role", AccessInput{Role: "", RequiredRole: ""}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Allow(context.Background(), tt.in)
			if err != nil {
				t.Fatalf("Allow: %v", err)
			}
			if got != tt.want {
				t.Errorf("Allow = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOPAEvaluator_CustomPolicy(t *testing.T) {
	policy := `package staffhub.access

default allow := false

allow if input.role == "owner"

allow if {
	input.role == "employee"
	input.method == "GET"
}
`
	e, err := NewOPAEvaluator(context.Background(), policy)
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	ok, _ := e.Allow(context.Background(), AccessInput{Role: "employee", RequiredRole: "owner", Method: "GET"})
	if !ok {
		t.Error("employee GET should be allowed by custom policy")
	}
	ok, _ = e.Allow(context.Background(), AccessInput{Role: "employee", RequiredRole: "owner", Method: "DELETE"})
	if ok {
		t.Error("employee DELETE should be denied")
	}
}

func TestNewOPAEvaluator_InvalidPolicy(t *testing.T) {
	if _, err := NewOPAEvaluator(context.Background(), "package staffhub.access\n\nallow if {"); err == nil {
		t.Fatal("invalid rego should fail to compile")
	}
}

func TestOPAEvaluator_NonBoolResult(t *testing.T) {
	e, err := NewOPAEvaluator(context.Background(), "package staffhub.access\n\nallow := \"yes\"\n")
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := e.Allow(context.Background(), AccessInput{Role: "owner"}); err == nil || ok {
		t.Errorf("got = %v, %v, want false and error", ok, err)
	}
}
