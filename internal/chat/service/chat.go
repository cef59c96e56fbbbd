package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"staffhub/backend/internal/chat/domain"
	"staffhub/backend/internal/chat/repository"
	identitydomain "staffhub/backend/internal/identity/domain"
)

var (
	ErrMemberNotFound = errors.New("chat member not found")
	ErrEmptyMessage   = errors.New("empty chat message")
)

// IdentityLookup is the identity access the chat service needs.
type IdentityLookup interface {
	GetByID(ctx context.Context, id string) (*identitydomain.AuthIdentity, error)
	List(ctx context.Context) ([]*identitydomain.AuthIdentity, error)
}

// Service stores and reads direct-message rooms between identities.
type Service struct {
	repo       repository.Repository
	identities IdentityLookup
	nowF       func() time.Time
}

// NewService returns a chat Service.
func NewService(repo repository.Repository, identities IdentityLookup) *Service {
	return &Service{repo: repo, identities: identities, nowF: func() time.Time { return time.Now().UTC() }}
}

// Members lists every identity as a chat member.
func (s *Service) Members(ctx context.Context) ([]domain.Member, error) {
	idents, err := s.identities.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Member, 0, len(idents))
	for _, i := range idents {
		out = append(out, domain.MemberFromIdentity(i))
	}
	return out, nil
}

// History returns the messages between userID and peerID. The peer must exist.
func (s *Service) History(ctx context.Context, userID, peerID string) ([]*domain.Message, error) {
	peer, err := s.identities.GetByID(ctx, peerID)
	if err != nil {
		return nil, err
	}
	if peer == nil {
		return nil, ErrMemberNotFound
	}
	return s.repo.History(ctx, domain.RoomID(userID, peerID))
}

// SendMessage stores text from senderID to toID in their room, creating the room on first use.
func (s *Service) SendMessage(ctx context.Context, senderID, toID, text string) (*domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	sender, err := s.identities.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil || toID == "" {
		return nil, ErrMemberNotFound
	}
	roomID := domain.RoomID(senderID, toID)
	if err := s.repo.EnsureRoom(ctx, roomID, []string{senderID, toID}); err != nil {
		return nil, err
	}
	m := &domain.Message{
		RoomID:    roomID,
		Sender:    domain.MemberFromIdentity(sender),
		SenderID:  senderID,
		Message:   text,
		CreatedAt: s.nowF(),
	}
	if err := s.repo.AppendMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
