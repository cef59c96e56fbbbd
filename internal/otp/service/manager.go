package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"staffhub/backend/internal/devotp"
	identitydomain "staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/otp"
	"staffhub/backend/internal/otp/domain"
	"staffhub/backend/internal/otp/repository"
	"staffhub/backend/internal/security"
)

// Sentinel errors for the challenge manager; the HTTP layer maps them to responses.
var (
	ErrChallengeNotFound = errors.New("otp challenge not found")
	// ErrChallengeRejected covers a wrong code, an expired challenge and a reused challenge alike.
	ErrChallengeRejected = errors.New("otp challenge rejected")
	ErrDispatchFailed    = errors.New("otp dispatch failed")
)

// DefaultTTL is how long an issued code stays live.
const DefaultTTL = 15 * time.Minute

// Status is the outcome of Request.
type Status int

const (
	// StatusPending means a live challenge already exists; nothing was sent.
	StatusPending Status = iota
	// StatusIssued means a new code was stored and dispatched.
	StatusIssued
)

// RequestResult is returned by Request. Code is set only when Status is StatusIssued.
type RequestResult struct {
	Status    Status
	Code      string
	ExpiresAt time.Time
}

// Dispatcher delivers a code over channel.
type Dispatcher interface {
	SendCode(ctx context.Context, channel identitydomain.Channel, value, code string) error
}

// Manager issues and verifies one-time codes.
type Manager struct {
	repo       repository.Repository
	dispatcher Dispatcher
	ttl        time.Duration
	devCodes   devotp.Store
	log        zerolog.Logger
	tracer     trace.Tracer
	issued     metric.Int64Counter
	verified   metric.Int64Counter
	nowF       func() time.Time
}

// NewManager returns a Manager. ttl <= 0 uses DefaultTTL. devCodes may be nil.
func NewManager(repo repository.Repository, dispatcher Dispatcher, ttl time.Duration, devCodes devotp.Store, log zerolog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	meter := otel.Meter("staffhub/otp")
	// Instrument errors only occur for invalid names; the returned no-op counters are still usable.
	issued, _ := meter.Int64Counter("staffhub.otp.issued", metric.WithDescription("One-time codes issued, by channel"))
	verified, _ := meter.Int64Counter("staffhub.otp.verifications", metric.WithDescription("Code verifications, by channel and outcome"))
	return &Manager{
		repo:       repo,
		dispatcher: dispatcher,
		ttl:        ttl,
		devCodes:   devCodes,
		log:        log.With().Str("component", "otp").Logger(),
		tracer:     otel.Tracer("staffhub/otp"),
		issued:     issued,
		verified:   verified,
		nowF:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source.
func (m *Manager) SetClock(now func() time.Time) {
	m.nowF = now
}

// Request issues a code for value unless a live challenge already exists.
// A stale record is removed first; losing the create race to a concurrent request reports StatusPending.
func (m *Manager) Request(ctx context.Context, value string, channel identitydomain.Channel) (RequestResult, error) {
	ctx, span := m.tracer.Start(ctx, "otp.Request", trace.WithAttributes(attribute.String("otp.channel", string(channel))))
	defer span.End()

	now := m.nowF()
	existing, err := m.repo.Get(ctx, value)
	if err != nil {
		return RequestResult{}, spanErr(span, fmt.Errorf("otp: load challenge: %w", err))
	}
	if existing != nil {
		if existing.Live(now) {
			span.SetAttributes(attribute.Bool("otp.pending", true))
			return RequestResult{Status: StatusPending, ExpiresAt: existing.ExpiresAt}, nil
		}
		if _, err := m.repo.DeleteIfCreatedAt(ctx, value, existing.CreatedAt); err != nil {
			return RequestResult{}, spanErr(span, fmt.Errorf("otp: delete stale challenge: %w", err))
		}
	}

	code, err := otp.GenerateCode()
	if err != nil {
		return RequestResult{}, spanErr(span, fmt.Errorf("otp: generate code: %w", err))
	}
	c := &domain.Challenge{
		Value:     value,
		Channel:   channel,
		CodeHash:  security.Digest(code),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.repo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrChallengeExists) {
			return RequestResult{Status: StatusPending}, nil
		}
		return RequestResult{}, spanErr(span, fmt.Errorf("otp: store challenge: %w", err))
	}

	if err := m.dispatcher.SendCode(ctx, channel, value, code); err != nil {
		if _, derr := m.repo.DeleteIfCreatedAt(ctx, value, c.CreatedAt); derr != nil {
			m.log.Warn().Err(derr).Msg("remove undelivered challenge")
		}
		m.log.Error().Err(err).Str("channel", string(channel)).Msg("otp dispatch failed")
		return RequestResult{}, spanErr(span, fmt.Errorf("%w: %v", ErrDispatchFailed, err))
	}
	if m.devCodes != nil {
		m.devCodes.Put(ctx, value, code, c.ExpiresAt)
	}
	m.issued.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", string(channel))))
	m.log.Info().Str("channel", string(channel)).Time("expires_at", c.ExpiresAt).Msg("otp issued")
	return RequestResult{Status: StatusIssued, Code: code, ExpiresAt: c.ExpiresAt}, nil
}

// Verify checks code against the challenge for value and marks it verified on success.
func (m *Manager) Verify(ctx context.Context, value string, channel identitydomain.Channel, code string) (err error) {
	ctx, span := m.tracer.Start(ctx, "otp.Verify", trace.WithAttributes(attribute.String("otp.channel", string(channel))))
	defer span.End()
	defer func() {
		m.verified.Add(ctx, 1, metric.WithAttributes(
			attribute.String("channel", string(channel)),
			attribute.Bool("success", err == nil),
		))
	}()

	c, err := m.repo.Get(ctx, value)
	if err != nil {
		return spanErr(span, fmt.Errorf("otp: load challenge: %w", err))
	}
	if c == nil {
		return ErrChallengeNotFound
	}
	if c.Channel != "" && c.Channel != channel {
		return ErrChallengeRejected
	}
	if !c.Live(m.nowF()) || !security.DigestEqual(code, c.CodeHash) {
		return ErrChallengeRejected
	}
	ok, err := m.repo.MarkVerified(ctx, value, c.CreatedAt)
	if err != nil {
		return spanErr(span, fmt.Errorf("otp: mark verified: %w", err))
	}
	if !ok {
		return ErrChallengeRejected
	}
	if m.devCodes != nil {
		m.devCodes.Delete(ctx, value)
	}
	return nil
}

func spanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
