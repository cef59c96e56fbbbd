package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockPinger struct{ err error }

func (m *mockPinger) Ping(context.Context) error { return m.err }

type mockPolicyChecker struct{ err error }

func (m *mockPolicyChecker) HealthCheck(context.Context) error { return m.err }

func TestChecker_NoChecks(t *testing.T) {
	rep := NewChecker(0).Run(context.Background())
	if !rep.OK() || len(rep.Checks) != 0 {
		t.Errorf("report = %+v, want ok with no checks", rep)
	}
}

func TestChecker_AllOK(t *testing.T) {
	c := NewChecker(time.Second)
	c.AddPinger("database", &mockPinger{})
	c.AddPolicy("policy", &mockPolicyChecker{})
	rep := c.Run(context.Background())
	if !rep.OK() {
		t.Fatalf("report = %+v, want ok", rep)
	}
	if rep.Checks["database"] != StatusOK || rep.Checks["policy"] != StatusOK {
		t.Errorf("checks = %v", rep.Checks)
	}
}

func TestChecker_OneDown(t *testing.T) {
	c := NewChecker(time.Second)
	c.AddPinger("database", &mockPinger{})
	c.Add("redis", func(context.Context) error { return errors.New("connection refused") })
	rep := c.Run(context.Background())
	if rep.OK() || rep.Status != StatusUnhealthy {
		t.Fatalf("status = %q, want unhealthy", rep.Status)
	}
	if rep.Checks["redis"] != "down: connection refused" {
		t.Errorf("redis = %q", rep.Checks["redis"])
	}
	if rep.Message == "" {
		t.Error("message should be set when unhealthy")
	}
}

func TestChecker_Timeout(t *testing.T) {
	c := NewChecker(20 * time.Millisecond)
	c.Add("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if rep := c.Run(context.Background()); rep.OK() {
		t.Error("slow check should fail on timeout")
	}
}

func TestChecker_NilDependenciesIgnored(t *testing.T) {
	c := NewChecker(0)
	c.AddPinger("database", nil)
	c.AddPolicy("policy", nil)
	c.Add("x", nil)
	if names := c.Names(); len(names) != 0 {
		t.Errorf("names = %v, want none", names)
	}
}
