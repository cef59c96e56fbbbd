package domain

import (
	"errors"
	"time"
)

// Status is a task board column.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "inprogress"
	StatusDone       Status = "done"
)

// ErrUnknownStatus is returned by ParseStatus for values outside the board columns.
var ErrUnknownStatus = errors.New("unknown task status")

// ParseStatus validates s as a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusTodo, StatusInProgress, StatusDone:
		return Status(s), nil
	}
	return "", ErrUnknownStatus
}

// Assignee is the employee snapshot copied onto a task at creation.
type Assignee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Task is a board item (stored in the tasks collection). Email is the assignee's email and drives
// the employee view of the board.
type Task struct {
	ID          string    `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AssigneeID  string    `json:"assignee_id"`
	Email       string    `json:"email"`
	Assignee    Assignee  `json:"assignee"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
