package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	employeedomain "staffhub/backend/internal/employee/domain"
	identitydomain "staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/task/domain"
	"staffhub/backend/internal/task/repository"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrAssigneeNotFound = errors.New("assignee not found")
)

// EmployeeLookup resolves an assignee id to its roster record (nil when absent).
type EmployeeLookup interface {
	GetByID(ctx context.Context, id string) (*employeedomain.Employee, error)
}

// Viewer is who is looking at the board. Employees only see tasks assigned to their email.
type Viewer struct {
	Role  identitydomain.Role
	Email string
}

func (v Viewer) canSee(t *domain.Task) bool {
	return v.Role == identitydomain.RoleOwner || (v.Email != "" && strings.EqualFold(t.Email, v.Email))
}

// Board is the task board service.
type Board struct {
	repo      repository.Repository
	employees EmployeeLookup
	nowF      func() time.Time
}

// NewBoard returns a Board.
func NewBoard(repo repository.Repository, employees EmployeeLookup) *Board {
	return &Board{repo: repo, employees: employees, nowF: func() time.Time { return time.Now().UTC() }}
}

// Create adds a todo task assigned to the employee assigneeID.
func (b *Board) Create(ctx context.Context, title, description, assigneeID string) (*domain.Task, error) {
	e, err := b.employees.GetByID(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrAssigneeNotFound
	}
	now := b.nowF()
	t := &domain.Task{
		Title:       strings.TrimSpace(title),
		Description: description,
		AssigneeID:  assigneeID,
		Email:       e.Email,
		Assignee:    domain.Assignee{Name: e.Name, Email: e.Email, Phone: e.Phone},
		Status:      domain.StatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := b.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns every task for owners, ordered by last update, and the viewer's own tasks for employees.
func (b *Board) List(ctx context.Context, v Viewer) ([]*domain.Task, error) {
	if v.Role != identitydomain.RoleOwner {
		return b.repo.ListByEmail(ctx, v.Email)
	}
	tasks, err := b.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].UpdatedAt.Before(tasks[j].UpdatedAt) })
	return tasks, nil
}

// Get returns one task. Tasks the viewer may not see are reported as not found.
func (b *Board) Get(ctx context.Context, v Viewer, id string) (*domain.Task, error) {
	t, err := b.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || !v.canSee(t) {
		return nil, ErrTaskNotFound
	}
	return t, nil
}

// UpdateStatus moves a task to status.
func (b *Board) UpdateStatus(ctx context.Context, v Viewer, id string, status domain.Status) (*domain.Task, error) {
	if _, err := domain.ParseStatus(string(status)); err != nil {
		return nil, err
	}
	if _, err := b.Get(ctx, v, id); err != nil {
		return nil, err
	}
	t, err := b.repo.UpdateStatus(ctx, id, status, b.nowF())
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTaskNotFound
	}
	return t, nil
}
