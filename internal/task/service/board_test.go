package service

import (
	"context"
	"errors"
	"testing"
	"time"

	employeedomain "staffhub/backend/internal/employee/domain"
	employeerepo "staffhub/backend/internal/employee/repository"
	identitydomain "staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/store"
	"staffhub/backend/internal/task/domain"
	"staffhub/backend/internal/task/repository"
)

var owner = Viewer{Role: identitydomain.RoleOwner}

func newTestBoard(t *testing.T) (*Board, *employeedomain.Employee, *employeedomain.Employee) {
	t.Helper()
	st := store.NewMemoryStore(store.DefaultUniques...)
	employees := employeerepo.NewDocumentRepository(st)
	ctx := context.Background()
	ann := &employeedomain.Employee{Name: "Ann", Email: "ann@x.com", Role: identitydomain.RoleEmployee}
	bob := &employeedomain.Employee{Name: "Bob", Email: "bob@x.com", Role: identitydomain.RoleEmployee}
	if err := employees.Create(ctx, ann); err != nil {
		t.Fatal(err)
	}
	if err := employees.Create(ctx, bob); err != nil {
		t.Fatal(err)
	}
	return NewBoard(repository.NewDocumentRepository(st), employees), ann, bob
}

func TestBoard_Create(t *testing.T) {
	b, ann, _ := newTestBoard(t)
	task, err := b.Create(context.Background(), "Stock", "Count the shelves", ann.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.ID == "" || task.Status != domain.StatusTodo || task.Email != "ann@x.com" || task.Assignee.Name != "Ann" {
		t.Errorf("task = %+v", task)
	}
	if _, err := b.Create(context.Background(), "X", "Y", "missing"); !errors.Is(err, ErrAssigneeNotFound) {
		t.Errorf("missing assignee = %v, want ErrAssigneeNotFound", err)
	}
}

func TestBoard_ListByRole(t *testing.T) {
	b, ann, bob := newTestBoard(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	b.nowF = func() time.Time { return clock }

	first, _ := b.Create(ctx, "first", "d", ann.ID)
	clock = base.Add(time.Minute)
	_, _ = b.Create(ctx, "second", "d", bob.ID)
	clock = base.Add(2 * time.Minute)
	if _, err := b.UpdateStatus(ctx, owner, first.ID, domain.StatusDone); err != nil {
		t.Fatal(err)
	}

	all, err := b.List(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Title != "second" || all[1].Title != "first" {
		t.Errorf("owner list order = %v, want [second first]", titles(all))
	}
	mine, err := b.List(ctx, Viewer{Role: identitydomain.RoleEmployee, Email: "bob@x.com"})
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].Title != "second" {
		t.Errorf("employee list = %v, want [second]", titles(mine))
	}
}

func TestBoard_EmployeeCannotSeeOthersTasks(t *testing.T) {
	b, ann, _ := newTestBoard(t)
	ctx := context.Background()
	task, _ := b.Create(ctx, "t", "d", ann.ID)
	bob := Viewer{Role: identitydomain.RoleEmployee, Email: "bob@x.com"}
	if _, err := b.Get(ctx, bob, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Get = %v, want ErrTaskNotFound", err)
	}
	if _, err := b.UpdateStatus(ctx, bob, task.ID, domain.StatusDone); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("UpdateStatus = %v, want ErrTaskNotFound", err)
	}
	annView := Viewer{Role: identitydomain.RoleEmployee, Email: "ann@x.com"}
	got, err := b.UpdateStatus(ctx, annView, task.ID, domain.StatusInProgress)
	if err != nil || got.Status != domain.StatusInProgress {
		t.Errorf("own UpdateStatus = %+v, %v", got, err)
	}
}

func TestBoard_UpdateStatusErrors(t *testing.T) {
	b, ann, _ := newTestBoard(t)
	ctx := context.Background()
	task, _ := b.Create(ctx, "t", "d", ann.ID)
	if _, err := b.UpdateStatus(ctx, owner, task.ID, "blocked"); !errors.Is(err, domain.ErrUnknownStatus) {
		t.Errorf("bad status = %v, want ErrUnknownStatus", err)
	}
	if _, err := b.UpdateStatus(ctx, owner, "missing", domain.StatusDone); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("missing task = %v, want ErrTaskNotFound", err)
	}
}

func titles(ts []*domain.Task) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Title
	}
	return out
}
