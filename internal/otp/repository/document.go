package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	identitydomain "staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/otp/domain"
	"staffhub/backend/internal/store"
)

// challengeDoc is the otp_verifications document body. The document id is the channel value.
type challengeDoc struct {
	Channel   string    `json:"channel"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CodeHash  string    `json:"code_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	Verified  bool      `json:"verified"`
}

// DocumentRepository stores challenges in the document store. The store's created_at stamp is the generation.
type DocumentRepository struct {
	store store.Store
}

// NewDocumentRepository returns a challenge repository backed by s.
func NewDocumentRepository(s store.Store) *DocumentRepository {
	return &DocumentRepository{store: s}
}

func (r *DocumentRepository) Get(ctx context.Context, value string) (*domain.Challenge, error) {
	doc, err := r.store.Get(ctx, store.CollectionOTP, value)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var body challengeDoc
	if err := doc.Decode(&body); err != nil {
		return nil, fmt.Errorf("otp: decode challenge: %w", err)
	}
	return &domain.Challenge{
		Value:     doc.ID,
		Channel:   identitydomain.Channel(body.Channel),
		CodeHash:  body.CodeHash,
		CreatedAt: doc.CreatedAt,
		ExpiresAt: body.ExpiresAt,
		Verified:  body.Verified,
	}, nil
}

func (r *DocumentRepository) Create(ctx context.Context, c *domain.Challenge) error {
	body := challengeDoc{
		Channel:   string(c.Channel),
		CodeHash:  c.CodeHash,
		ExpiresAt: c.ExpiresAt,
	}
	if c.Channel == identitydomain.ChannelEmail {
		body.Email = c.Value
	} else {
		body.Phone = c.Value
	}
	doc, err := r.store.Create(ctx, store.CollectionOTP, c.Value, body)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrChallengeExists
		}
		return err
	}
	c.CreatedAt = doc.CreatedAt
	return nil
}

func (r *DocumentRepository) MarkVerified(ctx context.Context, value string, createdAt time.Time) (bool, error) {
	return r.store.UpdateIfCreatedAt(ctx, store.CollectionOTP, value, createdAt,
		store.Eq("verified", "false"), map[string]any{"verified": true})
}

func (r *DocumentRepository) DeleteIfCreatedAt(ctx context.Context, value string, createdAt time.Time) (bool, error) {
	return r.store.DeleteIfCreatedAt(ctx, store.CollectionOTP, value, createdAt)
}
