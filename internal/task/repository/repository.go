package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staffhub/backend/internal/store"
	"staffhub/backend/internal/task/domain"
)

// Repository defines persistence for tasks.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context) ([]*domain.Task, error)
	ListByEmail(ctx context.Context, email string) ([]*domain.Task, error)
	Create(ctx context.Context, t *domain.Task) error
	UpdateStatus(ctx context.Context, id string, status domain.Status, at time.Time) (*domain.Task, error)
}

// DocumentRepository stores tasks in the tasks collection.
type DocumentRepository struct {
	store store.Store
}

// NewDocumentRepository returns a task repository backed by s.
func NewDocumentRepository(s store.Store) *DocumentRepository {
	return &DocumentRepository{store: s}
}

// GetByID returns the task for id, or nil if not found.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	doc, err := r.store.Get(ctx, store.CollectionTasks, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decode(doc)
}

func (r *DocumentRepository) List(ctx context.Context) ([]*domain.Task, error) {
	return r.find(ctx)
}

func (r *DocumentRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Task, error) {
	return r.find(ctx, store.Eq("email", email))
}

func (r *DocumentRepository) find(ctx context.Context, filters ...store.Filter) ([]*domain.Task, error) {
	docs, err := r.store.Find(ctx, store.CollectionTasks, filters...)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Task, 0, len(docs))
	for _, d := range docs {
		t, err := decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Create inserts t and sets its ID.
func (r *DocumentRepository) Create(ctx context.Context, t *domain.Task) error {
	doc, err := r.store.Create(ctx, store.CollectionTasks, t.ID, t)
	if err != nil {
		return err
	}
	t.ID = doc.ID
	return nil
}

// UpdateStatus sets status and updated_at and returns the updated task, or nil if it does not exist.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, at time.Time) (*domain.Task, error) {
	doc, err := r.store.Update(ctx, store.CollectionTasks, id, map[string]any{"status": status, "updated_at": at})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decode(doc)
}

func decode(doc *store.Document) (*domain.Task, error) {
	var t domain.Task
	if err := doc.Decode(&t); err != nil {
		return nil, fmt.Errorf("task: decode %s: %w", doc.ID, err)
	}
	t.ID = doc.ID
	return &t, nil
}
