// Package store is the credential and roster persistence adapter: a collection/document store
// with field-equality queries, shallow-merge updates and conditional writes.
//
// Two implementations exist: Postgres (JSONB rows in a single documents table) and an in-memory
// store for tests and local development. Both enforce the same per-collection unique fields.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Collection names.
const (
	CollectionAuthUsers = "auth_users"
	CollectionEmployees = "employees"
	CollectionOTP       = "otp_verifications"
	CollectionTasks     = "tasks"
	CollectionChats     = "chats"
	CollectionMessages  = "messages"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("store: document not found")
	// ErrConflict is returned when a write would duplicate an id or a unique field.
	ErrConflict = errors.New("store: document conflicts with an existing one")
)

// Document is one stored record. Data is the JSON object body.
type Document struct {
	Collection string
	ID         string
	Data       json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Decode unmarshals Data into v.
func (d *Document) Decode(v any) error {
	return json.Unmarshal(d.Data, v)
}

// Filter matches documents whose top-level field, rendered as text, equals Value.
type Filter struct {
	Field string
	Value string
}

// Eq returns a Filter for field == value.
func Eq(field, value string) Filter {
	return Filter{Field: field, Value: value}
}

// Unique declares a top-level field that must be unique within a collection when non-empty.
type Unique struct {
	Collection string
	Field      string
}

// DefaultUniques mirrors the unique indexes created by the Postgres migrations.
var DefaultUniques = []Unique{
	{CollectionAuthUsers, "email"},
	{CollectionAuthUsers, "phone"},
	{CollectionEmployees, "email"},
	{CollectionEmployees, "phone"},
}

// Store is the document store contract. All methods are safe for concurrent use.
type Store interface {
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Find returns documents matching every filter, oldest first. No filters returns the whole collection.
	Find(ctx context.Context, collection string, filters ...Filter) ([]*Document, error)
	// Create inserts data under id, generating an id when empty. An existing id or unique field yields ErrConflict.
	Create(ctx context.Context, collection, id string, data any) (*Document, error)
	// Update shallow-merges patch into the document. Missing document yields ErrNotFound.
	Update(ctx context.Context, collection, id string, patch any) (*Document, error)
	// UpdateIf merges patch only when cond matches; reports whether a document was updated.
	UpdateIf(ctx context.Context, collection, id string, cond Filter, patch any) (bool, error)
	// UpdateIfCreatedAt is UpdateIf restricted to the generation created at createdAt.
	UpdateIfCreatedAt(ctx context.Context, collection, id string, createdAt time.Time, cond Filter, patch any) (bool, error)
	// Delete removes the document. Missing document yields ErrNotFound.
	Delete(ctx context.Context, collection, id string) error
	// DeleteWhere removes every document matching the filters and returns the count.
	DeleteWhere(ctx context.Context, collection string, filters ...Filter) (int64, error)
	// DeleteIfCreatedAt removes the document only if it is the generation created at createdAt.
	DeleteIfCreatedAt(ctx context.Context, collection, id string, createdAt time.Time) (bool, error)
	// Ping checks connectivity.
	Ping(ctx context.Context) error
}

func marshalObject(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 || b[0] != '{' {
		return nil, errors.New("store: document body must be a JSON object")
	}
	return b, nil
}
