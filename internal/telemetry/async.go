// Package telemetry carries audit events from request handlers to best-effort sinks.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultEmitTimeout bounds a single background emit.
const DefaultEmitTimeout = 5 * time.Second

// Background wraps an emitter so Emit returns immediately and the sink write runs in its own goroutine.
// Writes use a fresh context: request cancellation never aborts an in-flight audit event.
type Background struct {
	next    EventEmitter
	timeout time.Duration
	log     zerolog.Logger

	mu       sync.Mutex
	draining bool
	inflight sync.WaitGroup
}

// NewBackground returns a Background over next. A non-positive timeout uses DefaultEmitTimeout.
func NewBackground(next EventEmitter, timeout time.Duration, log zerolog.Logger) *Background {
	if timeout <= 0 {
		timeout = DefaultEmitTimeout
	}
	return &Background{next: next, timeout: timeout, log: log}
}

// Emit schedules event and always returns nil. Events arriving after Drain has started are dropped.
func (b *Background) Emit(_ context.Context, event *Event) error {
	if b.next == nil || event == nil {
		return nil
	}
	b.mu.Lock()
	if b.draining {
		b.mu.Unlock()
		b.log.Debug().Str("event_type", event.Type).Msg("telemetry: dropped event during drain")
		return nil
	}
	b.inflight.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		if err := b.next.Emit(ctx, event); err != nil {
			b.log.Warn().Err(err).Str("event_type", event.Type).Msg("telemetry: emit failed")
		}
	}()
	return nil
}

// Drain stops accepting events and waits for in-flight ones, or for ctx. Call it before closing the sinks.
func (b *Background) Drain(ctx context.Context) error {
	b.mu.Lock()
	b.draining = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
