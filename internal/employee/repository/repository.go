package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staffhub/backend/internal/employee/domain"
	"staffhub/backend/internal/store"
)

// ErrDuplicate is returned when the email or phone is already on another record.
var ErrDuplicate = errors.New("employee already exists")

// Repository defines persistence for employee records.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Employee, error)
	List(ctx context.Context) ([]*domain.Employee, error)
	Create(ctx context.Context, e *domain.Employee) error
	Update(ctx context.Context, id string, patch map[string]any) error
	Delete(ctx context.Context, id string) error
}

// DocumentRepository stores employees in the employees collection.
type DocumentRepository struct {
	store store.Store
}

// NewDocumentRepository returns an employee repository backed by s.
func NewDocumentRepository(s store.Store) *DocumentRepository {
	return &DocumentRepository{store: s}
}

// GetByID returns the employee for id, or nil if not found.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	doc, err := r.store.Get(ctx, store.CollectionEmployees, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decode(doc)
}

// GetByEmail returns the employee with email, or nil.
func (r *DocumentRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	return r.findOne(ctx, store.Eq("email", email))
}

// GetByPhone returns the employee with phone, or nil.
func (r *DocumentRepository) GetByPhone(ctx context.Context, phone string) (*domain.Employee, error) {
	return r.findOne(ctx, store.Eq("phone", phone))
}

func (r *DocumentRepository) findOne(ctx context.Context, f store.Filter) (*domain.Employee, error) {
	docs, err := r.store.Find(ctx, store.CollectionEmployees, f)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return decode(docs[0])
}

// List returns every employee, oldest first.
func (r *DocumentRepository) List(ctx context.Context) ([]*domain.Employee, error) {
	docs, err := r.store.Find(ctx, store.CollectionEmployees)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Employee, 0, len(docs))
	for _, d := range docs {
		e, err := decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Create inserts e and sets its ID.
func (r *DocumentRepository) Create(ctx context.Context, e *domain.Employee) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	doc, err := r.store.Create(ctx, store.CollectionEmployees, e.ID, e)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrDuplicate
		}
		return err
	}
	e.ID = doc.ID
	return nil
}

// Update merges patch into the record. A missing record yields store.ErrNotFound.
func (r *DocumentRepository) Update(ctx context.Context, id string, patch map[string]any) error {
	_, err := r.store.Update(ctx, store.CollectionEmployees, id, patch)
	if errors.Is(err, store.ErrConflict) {
		return ErrDuplicate
	}
	return err
}

// Delete removes the record. A missing record yields store.ErrNotFound.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, store.CollectionEmployees, id)
}

func decode(doc *store.Document) (*domain.Employee, error) {
	var e domain.Employee
	if err := doc.Decode(&e); err != nil {
		return nil, fmt.Errorf("employee: decode %s: %w", doc.ID, err)
	}
	e.ID = doc.ID
	return &e, nil
}
