package audit

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"staffhub/backend/internal/telemetry"
)

// memEmitter collects emitted events.
type memEmitter struct {
	mu     sync.Mutex
	events []*telemetry.Event
	got    chan struct{}
}

func newMemEmitter() *memEmitter { return &memEmitter{got: make(chan struct{}, 4)} }

func (m *memEmitter) Emit(ctx context.Context, ev *telemetry.Event) error {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	m.got <- struct{}{}
	return nil
}

func (m *memEmitter) wait(t *testing.T) *telemetry.Event {
	t.Helper()
	select {
	case <-m.got:
	case <-time.After(time.Second):
		t.Fatal("event not emitted")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[len(m.events)-1]
}

func TestLogger_LogEvent_Success(t *testing.T) {
	em := newMemEmitter()
	var buf bytes.Buffer
	logger := NewLogger(em, func(context.Context) string { return "192.168.1.1" }, zerolog.New(&buf))

	logger.LogEvent(context.Background(), "user-1", "owner", ActionLoginSuccess, "session", map[string]string{"channel": "phone"})

	ev := em.wait(t)
	if ev.Type != ActionLoginSuccess || ev.UserID != "user-1" || ev.Role != "owner" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Metadata["resource"] != "session" || ev.Metadata["ip"] != "192.168.1.1" || ev.Metadata["channel"] != "phone" {
		t.Errorf("metadata = %v", ev.Metadata)
	}
	if ev.ID == "" || ev.CreatedAt.IsZero() {
		t.Error("event id and created_at should be set")
	}
	if !strings.Contains(buf.String(), `"action":"login_success"`) {
		t.Errorf("log = %s", buf.String())
	}
}

func TestLogger_LogEvent_NilIPExtractor(t *testing.T) {
	em := newMemEmitter()
	NewLogger(em, nil, zerolog.Nop()).LogEvent(context.Background(), "", "", ActionLoginFailure, "session", nil)
	if ip := em.wait(t).Metadata["ip"]; ip != "unknown" {
		t.Errorf("ip = %q, want unknown", ip)
	}
}

func TestLogger_LogEvent_NilEmitter(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(nil, nil, zerolog.New(&buf)).LogEvent(context.Background(), "u", "employee", ActionLogout, "session", nil)
	if !strings.Contains(buf.String(), `"action":"logout"`) {
		t.Errorf("log = %s", buf.String())
	}
}
