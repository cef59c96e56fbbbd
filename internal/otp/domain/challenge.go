package domain

import (
	"time"

	identitydomain "staffhub/backend/internal/identity/domain"
)

// Challenge is a one-time code issued to a channel value (stored in otp_verifications, keyed by Value).
// CodeHash is the SHA-256 hex digest of the code; the plain code is never persisted.
type Challenge struct {
	Value     string
	Channel   identitydomain.Channel
	CodeHash  string
	CreatedAt time.Time
	ExpiresAt time.Time
	Verified  bool
}

// Live reports whether the challenge can still be verified at now.
func (c *Challenge) Live(now time.Time) bool {
	return !c.Verified && now.Before(c.ExpiresAt)
}
