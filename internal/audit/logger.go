// Package audit records the auth and roster lifecycle: every event is written to the process log and,
// best-effort, to the telemetry sinks (Kafka, OTel logs).
package audit

import (
	"context"

	"github.com/rs/zerolog"

	"staffhub/backend/internal/telemetry"
)

// Auth lifecycle actions. Route-derived actions come from ParseRoute.
const (
	ActionOTPRequested        = "otp_requested"
	ActionOTPDispatchFailed   = "otp_dispatch_failed"
	ActionLoginSuccess        = "login_success"
	ActionLoginFailure        = "login_failure"
	ActionLogout              = "logout"
	ActionInvitationSent      = "invitation_sent"
	ActionInvitationCompleted = "invitation_completed"
	ActionAccessDenied        = "access_denied"
)

// IPExtractor returns the client IP for the request carried by ctx.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event. LogEvent is best-effort: failures never reach the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, userID, role, action, resource string, metadata map[string]string)
}

// Logger implements AuditLogger over zerolog and an optional telemetry emitter.
type Logger struct {
	emitter     telemetry.EventEmitter
	ipExtractor IPExtractor
	log         zerolog.Logger
}

// NewLogger returns a Logger. emitter is called inline; wrap network sinks in telemetry.Background.
// emitter and ipExtractor may be nil; IP is then recorded as "unknown".
func NewLogger(emitter telemetry.EventEmitter, ipExtractor IPExtractor, log zerolog.Logger) *Logger {
	return &Logger{emitter: emitter, ipExtractor: ipExtractor, log: log.With().Str("component", "audit").Logger()}
}

// LogEvent records action on resource by userID.
func (l *Logger) LogEvent(ctx context.Context, userID, role, action, resource string, metadata map[string]string) {
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	ev := telemetry.NewEvent(action, telemetry.SourceHTTP)
	ev.UserID = userID
	ev.Role = role
	ev.Metadata = make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		ev.Metadata[k] = v
	}
	ev.Metadata["resource"] = resource
	ev.Metadata["ip"] = ip

	l.log.Info().
		Str("event_id", ev.ID).
		Str("action", action).
		Str("resource", resource).
		Str("user_id", userID).
		Str("role", role).
		Str("ip", ip).
		Msg("audit")
	if l.emitter == nil {
		return
	}
	if err := l.emitter.Emit(ctx, ev); err != nil {
		l.log.Warn().Err(err).Str("event_id", ev.ID).Msg("audit emit failed")
	}
}
