package domain

import (
	"time"

	identitydomain "staffhub/backend/internal/identity/domain"
)

// Member is a chat participant: an auth identity without its password hash.
type Member struct {
	UID       string              `json:"uid"`
	Email     string              `json:"email,omitempty"`
	Phone     string              `json:"phone,omitempty"`
	Username  string              `json:"username,omitempty"`
	Role      identitydomain.Role `json:"role"`
	CreatedAt time.Time           `json:"created_at"`
}

// MemberFromIdentity strips credentials from i.
func MemberFromIdentity(i *identitydomain.AuthIdentity) Member {
	return Member{UID: i.ID, Email: i.Email, Phone: i.Phone, Username: i.Username, Role: i.Role, CreatedAt: i.CreatedAt}
}

// Message is one chat line in a room (stored in the messages collection).
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Sender    Member    `json:"sender"`
	SenderID  string    `json:"sender_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomID is the deterministic room for a pair of users: the two ids in ascending order joined by "_".
func RoomID(a, b string) string {
	if a < b {
		return a + "_" + b
	}
	return b + "_" + a
}
