package service

import (
	"context"
	"errors"
	"strings"

	"staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/identity/repository"
	"staffhub/backend/internal/security"
)

// ErrInvalidCredentials is returned when an email/password pair does not match a stored identity.
var ErrInvalidCredentials = errors.New("invalid credentials")

// IdentityRepo is the minimal identity repository needed by the resolver.
type IdentityRepo interface {
	GetByID(ctx context.Context, id string) (*domain.AuthIdentity, error)
	GetByChannel(ctx context.Context, channel domain.Channel, value string) (*domain.AuthIdentity, error)
	Create(ctx context.Context, i *domain.AuthIdentity) error
	List(ctx context.Context) ([]*domain.AuthIdentity, error)
}

// Resolver maps a verified credential to an AuthIdentity.
type Resolver struct {
	repo   IdentityRepo
	hasher *security.Hasher
}

// NewResolver returns a Resolver over repo.
func NewResolver(repo IdentityRepo, hasher *security.Hasher) *Resolver {
	return &Resolver{repo: repo, hasher: hasher}
}

// ResolveOrCreatePhoneIdentity returns the identity registered for phone, creating one with role owner
// when none exists. A concurrent creator winning the insert is resolved by re-reading.
func (r *Resolver) ResolveOrCreatePhoneIdentity(ctx context.Context, phone string) (*domain.AuthIdentity, error) {
	phone = strings.TrimSpace(phone)
	existing, err := r.repo.GetByChannel(ctx, domain.ChannelPhone, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	ident := &domain.AuthIdentity{Phone: phone, Role: domain.RoleOwner}
	if err := r.repo.Create(ctx, ident); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		existing, err = r.repo.GetByChannel(ctx, domain.ChannelPhone, phone)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, repository.ErrDuplicate
		}
		return existing, nil
	}
	return ident, nil
}

// ResolveEmailPassword returns the identity for email when password matches its stored hash.
// It never creates identities.
func (r *Resolver) ResolveEmailPassword(ctx context.Context, email, password string) (*domain.AuthIdentity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	ident, err := r.repo.GetByChannel(ctx, domain.ChannelEmail, email)
	if err != nil {
		return nil, err
	}
	if ident == nil || ident.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if !r.hasher.Matches(password, ident.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return ident, nil
}

// Lookup returns the identity registered on channel with value, or nil.
func (r *Resolver) Lookup(ctx context.Context, channel domain.Channel, value string) (*domain.AuthIdentity, error) {
	return r.repo.GetByChannel(ctx, channel, value)
}

// Get returns the identity with id, or nil.
func (r *Resolver) Get(ctx context.Context, id string) (*domain.AuthIdentity, error) {
	return r.repo.GetByID(ctx, id)
}

// List returns every identity.
func (r *Resolver) List(ctx context.Context) ([]*domain.AuthIdentity, error) {
	return r.repo.List(ctx)
}
