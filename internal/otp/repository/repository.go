package repository

import (
	"context"
	"errors"
	"time"

	"staffhub/backend/internal/otp/domain"
)

// ErrChallengeExists is returned by Create when a record for the value is already stored.
var ErrChallengeExists = errors.New("otp challenge already exists")

// Repository defines persistence for OTP challenges, keyed by channel value.
// Writes that follow a read are conditioned on the generation (CreatedAt) observed by that read.
type Repository interface {
	// Get returns the challenge for value, or nil if none is stored.
	Get(ctx context.Context, value string) (*domain.Challenge, error)
	// Create stores c only if no record exists for c.Value and sets c.CreatedAt to the stored generation.
	Create(ctx context.Context, c *domain.Challenge) error
	// MarkVerified sets verified=true on the given generation if it is not already verified.
	MarkVerified(ctx context.Context, value string, createdAt time.Time) (bool, error)
	// DeleteIfCreatedAt removes the record only if it is still the given generation.
	DeleteIfCreatedAt(ctx context.Context, value string, createdAt time.Time) (bool, error)
}
