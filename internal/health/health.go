// Package health aggregates readiness checks (document store, Redis, access policy) for /health and
// the gRPC health service.
package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc reports whether one dependency is ready.
type CheckFunc func(ctx context.Context) error

// Pinger is satisfied by the document store and anything else with a Ping method.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PolicyChecker is satisfied by the OPA evaluator.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

type namedCheck struct {
	name string
	fn   CheckFunc
}

// Checker runs registered checks with a shared timeout.
type Checker struct {
	mu      sync.RWMutex
	checks  []namedCheck
	timeout time.Duration
}

// Report is the outcome of one Run. Checks maps check name to "ok" or "down: <reason>".
type Report struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Message string            `json:"message,omitempty"`
}

// OK reports whether every check passed.
func (r Report) OK() bool { return r.Status == StatusOK }

// NewChecker returns a Checker. A non-positive timeout uses 3s.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Checker{timeout: timeout}
}

// Add registers fn under name. A nil fn is ignored.
func (c *Checker) Add(name string, fn CheckFunc) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, namedCheck{name: name, fn: fn})
}

// AddPinger registers p.Ping under name. A nil p is ignored.
func (c *Checker) AddPinger(name string, p Pinger) {
	if p == nil {
		return
	}
	c.Add(name, p.Ping)
}

// AddPolicy registers p.HealthCheck under name. A nil p is ignored.
func (c *Checker) AddPolicy(name string, p PolicyChecker) {
	if p == nil {
		return
	}
	c.Add(name, p.HealthCheck)
}

// Names returns the registered check names, sorted.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.checks))
	for _, ch := range c.checks {
		out = append(out, ch.name)
	}
	sort.Strings(out)
	return out
}

// Run executes every check concurrently and returns the combined report.
func (c *Checker) Run(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.mu.RLock()
	checks := append([]namedCheck(nil), c.checks...)
	c.mu.RUnlock()

	results := make([]string, len(checks))
	var wg sync.WaitGroup
	for i, ch := range checks {
		wg.Add(1)
		go func(i int, ch namedCheck) {
			defer wg.Done()
			if err := ch.fn(ctx); err != nil {
				results[i] = "down: " + err.Error()
				return
			}
			results[i] = StatusOK
		}(i, ch)
	}
	wg.Wait()

	rep := Report{Status: StatusOK, Checks: make(map[string]string, len(checks))}
	for i, ch := range checks {
		rep.Checks[ch.name] = results[i]
		if results[i] != StatusOK {
			rep.Status = StatusUnhealthy
			rep.Message = "one or more checks failed"
		}
	}
	return rep
}
