package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"staffhub/backend/internal/chat/domain"
	"staffhub/backend/internal/store"
)

// Repository defines persistence for chat rooms and messages.
type Repository interface {
	EnsureRoom(ctx context.Context, roomID string, members []string) error
	AppendMessage(ctx context.Context, m *domain.Message) error
	History(ctx context.Context, roomID string) ([]*domain.Message, error)
}

// DocumentRepository keeps rooms in chats and messages in messages, linked by room_id.
type DocumentRepository struct {
	store store.Store
}

// NewDocumentRepository returns a chat repository backed by s.
func NewDocumentRepository(s store.Store) *DocumentRepository {
	return &DocumentRepository{store: s}
}

// EnsureRoom creates the room document if it does not exist yet.
func (r *DocumentRepository) EnsureRoom(ctx context.Context, roomID string, members []string) error {
	_, err := r.store.Create(ctx, store.CollectionChats, roomID, map[string]any{"members": members})
	if err != nil && !errors.Is(err, store.ErrConflict) {
		return err
	}
	return nil
}

// AppendMessage stores m and sets its ID.
func (r *DocumentRepository) AppendMessage(ctx context.Context, m *domain.Message) error {
	doc, err := r.store.Create(ctx, store.CollectionMessages, "", m)
	if err != nil {
		return err
	}
	m.ID = doc.ID
	return nil
}

// History returns the room's messages, oldest first.
func (r *DocumentRepository) History(ctx context.Context, roomID string) ([]*domain.Message, error) {
	docs, err := r.store.Find(ctx, store.CollectionMessages, store.Eq("room_id", roomID))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Message, 0, len(docs))
	for _, d := range docs {
		var m domain.Message
		if err := d.Decode(&m); err != nil {
			return nil, fmt.Errorf("chat: decode message %s: %w", d.ID, err)
		}
		m.ID = d.ID
		out = append(out, &m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
