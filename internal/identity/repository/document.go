package repository

import (
	"context"
	"errors"
	"fmt"

	"staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/store"
)

// ErrDuplicate is returned by Create when the channel value is already taken.
var ErrDuplicate = errors.New("identity already exists")

// DocumentRepository stores identities in the auth_users collection.
type DocumentRepository struct {
	store store.Store
}

// NewDocumentRepository returns an identity repository backed by s.
func NewDocumentRepository(s store.Store) *DocumentRepository {
	return &DocumentRepository{store: s}
}

// GetByID returns the identity for id, or nil if not found.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.AuthIdentity, error) {
	doc, err := r.store.Get(ctx, store.CollectionAuthUsers, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decode(doc)
}

// GetByChannel returns the identity whose phone or email equals value, or nil if not found.
func (r *DocumentRepository) GetByChannel(ctx context.Context, channel domain.Channel, value string) (*domain.AuthIdentity, error) {
	if !channel.Valid() {
		return nil, fmt.Errorf("identity: unknown channel %q", channel)
	}
	docs, err := r.store.Find(ctx, store.CollectionAuthUsers, store.Eq(string(channel), value))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return decode(docs[0])
}

// Create inserts i and sets its ID and CreatedAt.
func (r *DocumentRepository) Create(ctx context.Context, i *domain.AuthIdentity) error {
	doc, err := r.store.Create(ctx, store.CollectionAuthUsers, i.ID, i)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrDuplicate
		}
		return err
	}
	i.ID = doc.ID
	if i.CreatedAt.IsZero() {
		i.CreatedAt = doc.CreatedAt
	}
	return nil
}

// DeleteByEmail removes every identity with email and returns the count.
func (r *DocumentRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	return r.store.DeleteWhere(ctx, store.CollectionAuthUsers, store.Eq("email", email))
}

// List returns all identities, oldest first.
func (r *DocumentRepository) List(ctx context.Context) ([]*domain.AuthIdentity, error) {
	docs, err := r.store.Find(ctx, store.CollectionAuthUsers)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.AuthIdentity, 0, len(docs))
	for _, d := range docs {
		i, err := decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

func decode(doc *store.Document) (*domain.AuthIdentity, error) {
	var i domain.AuthIdentity
	if err := doc.Decode(&i); err != nil {
		return nil, fmt.Errorf("identity: decode %s: %w", doc.ID, err)
	}
	i.ID = doc.ID
	if i.CreatedAt.IsZero() {
		i.CreatedAt = doc.CreatedAt
	}
	return &i, nil
}
