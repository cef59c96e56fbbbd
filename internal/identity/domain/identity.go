package domain

import (
	"errors"
	"time"
)

// AuthIdentity is a login identity (stored in the auth_users collection).
// Exactly one of Phone or Email is set.
type AuthIdentity struct {
	ID           string    `json:"-"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Username     string    `json:"username,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Channel is the credential channel an identity authenticates over.
type Channel string

const (
	ChannelPhone Channel = "phone"
	ChannelEmail Channel = "email"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelPhone || c == ChannelEmail
}

// Role is the closed set of application roles.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleEmployee Role = "employee"
)

// ErrUnknownRole is returned by ParseRole for values outside the role set.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole validates s as a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleEmployee:
		return Role(s), nil
	}
	return "", ErrUnknownRole
}

// ChannelValue returns the value of the identity on channel c.
func (i *AuthIdentity) ChannelValue(c Channel) string {
	if c == ChannelEmail {
		return i.Email
	}
	return i.Phone
}
