package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"staffhub/backend/internal/employee/domain"
	"staffhub/backend/internal/employee/repository"
	identitydomain "staffhub/backend/internal/identity/domain"
	identityrepo "staffhub/backend/internal/identity/repository"
	"staffhub/backend/internal/security"
	"staffhub/backend/internal/session"
	"staffhub/backend/internal/store"
)

// Sentinel errors for the invitation manager; the HTTP layer maps them to responses.
var (
	ErrEmailExists      = errors.New("employee email already exists")
	ErrPhoneExists      = errors.New("phone already in use")
	ErrInvalidToken     = errors.New("invalid or expired invitation token")
	ErrAccountExists    = errors.New("account already exists for invitation email")
	ErrNoInvitation     = errors.New("no employee record for invitation email")
	ErrEmployeeNotFound = errors.New("employee not found")
)

// DefaultInvitationTTL is the invitation token lifetime when none is configured.
const DefaultInvitationTTL = 72 * time.Hour

// EmployeeRepo is the minimal employee repository needed by the invitation manager.
type EmployeeRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Employee, error)
	List(ctx context.Context) ([]*domain.Employee, error)
	Create(ctx context.Context, e *domain.Employee) error
	Update(ctx context.Context, id string, patch map[string]any) error
	Delete(ctx context.Context, id string) error
}

// IdentityRepo is the minimal identity repository needed by the invitation manager.
type IdentityRepo interface {
	GetByChannel(ctx context.Context, channel identitydomain.Channel, value string) (*identitydomain.AuthIdentity, error)
	Create(ctx context.Context, i *identitydomain.AuthIdentity) error
	DeleteByEmail(ctx context.Context, email string) (int64, error)
}

// InvitationSender delivers the invitation link. Delivery is best-effort.
type InvitationSender interface {
	SendInvitation(ctx context.Context, email, name, link string) error
}

// Config configures an InvitationManager.
type Config struct {
	// InviteBaseURL is the page that redeems tokens; the token is appended as ?token=.
	InviteBaseURL string
	TokenTTL      time.Duration
}

// InvitationManager owns the employee roster and the invitation-to-account handoff.
type InvitationManager struct {
	employees  EmployeeRepo
	identities IdentityRepo
	hasher     *security.Hasher
	codec      *security.TokenCodec
	sessions   *session.Issuer
	sender     InvitationSender
	cfg        Config
	log        zerolog.Logger
	nowF       func() time.Time
}

// NewInvitationManager returns an InvitationManager with the given dependencies.
func NewInvitationManager(
	employees EmployeeRepo,
	identities IdentityRepo,
	hasher *security.Hasher,
	codec *security.TokenCodec,
	sessions *session.Issuer,
	sender InvitationSender,
	cfg Config,
	log zerolog.Logger,
) *InvitationManager {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultInvitationTTL
	}
	return &InvitationManager{
		employees:  employees,
		identities: identities,
		hasher:     hasher,
		codec:      codec,
		sessions:   sessions,
		sender:     sender,
		cfg:        cfg,
		log:        log.With().Str("component", "invitation").Logger(),
		nowF:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateEmployee adds a roster record and mails its invitation link.
// Conflicts are checked in order: email on the roster, phone on the roster, phone on an auth identity.
// A mail failure is logged and does not undo the record. Roster records always carry the employee role.
func (m *InvitationManager) CreateEmployee(ctx context.Context, name, phone, email string) (*domain.Employee, error) {
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	existing, err := m.employees.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}
	if phone != "" {
		if err := m.checkPhoneFree(ctx, phone, ""); err != nil {
			return nil, err
		}
	}

	e := &domain.Employee{
		Name:      strings.TrimSpace(name),
		Phone:     phone,
		Email:     email,
		Role:      identitydomain.RoleEmployee,
		CreatedAt: m.nowF(),
	}
	if err := m.employees.Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	token, _, err := m.codec.Sign(security.Claims{
		UID:     e.ID,
		Role:    string(e.Role),
		Email:   e.Email,
		Purpose: security.PurposeInvitation,
	}, m.cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("employee: sign invitation: %w", err)
	}
	link, err := m.invitationLink(token)
	if err != nil {
		return nil, err
	}
	if err := m.sender.SendInvitation(ctx, e.Email, e.Name, link); err != nil {
		m.log.Warn().Err(err).Str("employee_id", e.ID).Msg("invitation mail not sent")
	}
	return e, nil
}

// PreviewInvitation returns the roster record a token would be redeemed against, applying the same
// checks as CompleteInvitation without writing anything.
func (m *InvitationManager) PreviewInvitation(ctx context.Context, token string) (*domain.Employee, error) {
	claims, err := m.verifyInvitation(token)
	if err != nil {
		return nil, err
	}
	return m.pendingEmployee(ctx, claims.Email)
}

// CompleteInvitation redeems token: it creates the employee's email identity with a hashed password,
// marks the roster record as having an account, and issues a session.
func (m *InvitationManager) CompleteInvitation(ctx context.Context, token, username, password string) (*identitydomain.AuthIdentity, *session.Session, error) {
	claims, err := m.verifyInvitation(token)
	if err != nil {
		return nil, nil, err
	}
	e, err := m.pendingEmployee(ctx, claims.Email)
	if err != nil {
		return nil, nil, err
	}
	hash, err := m.hasher.Hash(password)
	if err != nil {
		return nil, nil, fmt.Errorf("employee: hash password: %w", err)
	}
	ident := &identitydomain.AuthIdentity{
		Email:        claims.Email,
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
		Role:         identitydomain.RoleEmployee,
		CreatedAt:    m.nowF(),
	}
	if err := m.identities.Create(ctx, ident); err != nil {
		if errors.Is(err, identityrepo.ErrDuplicate) {
			return nil, nil, ErrAccountExists
		}
		return nil, nil, err
	}
	if err := m.employees.Update(ctx, e.ID, map[string]any{"has_account": true}); err != nil {
		// Without has_account RemoveEmployee would not cascade, so the identity must not outlive this call.
		if _, rbErr := m.identities.DeleteByEmail(ctx, ident.Email); rbErr != nil {
			m.log.Error().Err(rbErr).Str("employee_id", e.ID).Msg("rollback of invitation identity failed")
		}
		return nil, nil, err
	}
	s, err := m.sessions.IssueSession(ident, identitydomain.ChannelEmail)
	if err != nil {
		return nil, nil, err
	}
	m.log.Info().Str("employee_id", e.ID).Str("uid", ident.ID).Msg("invitation completed")
	return ident, s, nil
}

// RemoveEmployee deletes the roster record and, when it has an account, every identity with its email.
func (m *InvitationManager) RemoveEmployee(ctx context.Context, id string) error {
	e, err := m.employees.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrEmployeeNotFound
	}
	if e.HasAccount {
		n, err := m.identities.DeleteByEmail(ctx, e.Email)
		if err != nil {
			return err
		}
		m.log.Info().Str("employee_id", id).Int64("identities", n).Msg("removed employee identities")
	}
	if err := m.employees.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEmployeeNotFound
		}
		return err
	}
	return nil
}

// UpdateEmployee merges the non-empty fields of u into the record and stamps updated_at.
// An update with no name and no phone is a no-op.
func (m *InvitationManager) UpdateEmployee(ctx context.Context, id string, u domain.Update) error {
	e, err := m.employees.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrEmployeeNotFound
	}
	if u.Empty() {
		return nil
	}
	u.Phone = strings.TrimSpace(u.Phone)
	patch := map[string]any{"updated_at": m.nowF()}
	if u.Name != "" {
		patch["name"] = strings.TrimSpace(u.Name)
	}
	if u.Phone != "" {
		if err := m.checkPhoneFree(ctx, u.Phone, u.Email); err != nil {
			return err
		}
		patch["phone"] = u.Phone
	}
	if err := m.employees.Update(ctx, id, patch); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return ErrPhoneExists
		case errors.Is(err, store.ErrNotFound):
			return ErrEmployeeNotFound
		}
		return err
	}
	return nil
}

// ListEmployees returns the roster.
func (m *InvitationManager) ListEmployees(ctx context.Context) ([]*domain.Employee, error) {
	return m.employees.List(ctx)
}

// GetEmployee returns one roster record.
func (m *InvitationManager) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	e, err := m.employees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEmployeeNotFound
	}
	return e, nil
}

// checkPhoneFree fails when phone is held by an employee or an identity other than the one with ownerEmail.
func (m *InvitationManager) checkPhoneFree(ctx context.Context, phone, ownerEmail string) error {
	holder, err := m.employees.GetByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if holder != nil && (ownerEmail == "" || holder.Email != ownerEmail) {
		return ErrPhoneExists
	}
	ident, err := m.identities.GetByChannel(ctx, identitydomain.ChannelPhone, phone)
	if err != nil {
		return err
	}
	if ident != nil && (ownerEmail == "" || ident.Email != ownerEmail) {
		return ErrPhoneExists
	}
	return nil
}

func (m *InvitationManager) verifyInvitation(token string) (*security.Claims, error) {
	claims, err := m.codec.Verify(token, security.PurposeInvitation)
	if err != nil || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// pendingEmployee returns the roster record for email if it has not been redeemed yet.
func (m *InvitationManager) pendingEmployee(ctx context.Context, email string) (*domain.Employee, error) {
	ident, err := m.identities.GetByChannel(ctx, identitydomain.ChannelEmail, email)
	if err != nil {
		return nil, err
	}
	if ident != nil {
		return nil, ErrAccountExists
	}
	e, err := m.employees.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNoInvitation
	}
	return e, nil
}

func (m *InvitationManager) invitationLink(token string) (string, error) {
	u, err := url.Parse(m.cfg.InviteBaseURL)
	if err != nil {
		return "", fmt.Errorf("employee: invite base url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
