package domain

import (
	"time"

	identitydomain "staffhub/backend/internal/identity/domain"
)

// Employee is a roster record created by an owner (stored in the employees collection).
// HasAccount flips to true once, when the invitation is redeemed.
type Employee struct {
	ID         string              `json:"-"`
	Name       string              `json:"name"`
	Phone      string              `json:"phone,omitempty"`
	Email      string              `json:"email"`
	Role       identitydomain.Role `json:"role"`
	HasAccount bool                `json:"has_account"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  *time.Time          `json:"updated_at,omitempty"`
}

// Update is a partial employee edit. Email identifies the caller's view of the record for the phone conflict check.
type Update struct {
	Email string
	Name  string
	Phone string
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Name == "" && u.Phone == ""
}
