package repository

import (
	"context"

	"staffhub/backend/internal/identity/domain"
)

// Repository defines persistence for auth identities.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.AuthIdentity, error)
	GetByChannel(ctx context.Context, channel domain.Channel, value string) (*domain.AuthIdentity, error)
	Create(ctx context.Context, i *domain.AuthIdentity) error
	DeleteByEmail(ctx context.Context, email string) (int64, error)
	List(ctx context.Context) ([]*domain.AuthIdentity, error)
}
