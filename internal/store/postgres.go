package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

const (
	sqlGetDocument = `SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2`

	sqlInsertDocument = `INSERT INTO documents (collection, id, data, created_at, updated_at)
VALUES ($1, $2, $3::jsonb, now(), now())
RETURNING created_at, updated_at`

	sqlMergeDocument = `UPDATE documents SET data = data || $3::jsonb, updated_at = now()
WHERE collection = $1 AND id = $2
RETURNING data, created_at, updated_at`

	sqlMergeDocumentIf = `UPDATE documents SET data = data || $3::jsonb, updated_at = now()
WHERE collection = $1 AND id = $2 AND data->>$4 = $5`

	sqlMergeDocumentGenerationIf = `UPDATE documents SET data = data || $3::jsonb, updated_at = now()
WHERE collection = $1 AND id = $2 AND created_at = $4 AND data->>$5 = $6`

	sqlDeleteDocument = `DELETE FROM documents WHERE collection = $1 AND id = $2`

	sqlDeleteDocumentGeneration = `DELETE FROM documents WHERE collection = $1 AND id = $2 AND created_at = $3`
)

// PostgresStore implements Store over a pgx pool and the documents table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by pool. The schema comes from internal/db/migrations.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	d := &Document{Collection: collection}
	err := s.pool.QueryRow(ctx, sqlGetDocument, collection, id).Scan(&d.ID, &d.Data, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *PostgresStore) Find(ctx context.Context, collection string, filters ...Filter) ([]*Document, error) {
	where, args := whereClause(collection, filters)
	q := `SELECT id, data, created_at, updated_at FROM documents WHERE ` + where + ` ORDER BY created_at, id`
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Document
	for rows.Next() {
		d := &Document{Collection: collection}
		if err := rows.Scan(&d.ID, &d.Data, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Create(ctx context.Context, collection, id string, data any) (*Document, error) {
	raw, err := marshalObject(data)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.New().String()
	}
	d := &Document{Collection: collection, ID: id, Data: raw}
	err = s.pool.QueryRow(ctx, sqlInsertDocument, collection, id, string(raw)).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return d, nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, patch any) (*Document, error) {
	raw, err := marshalObject(patch)
	if err != nil {
		return nil, err
	}
	d := &Document{Collection: collection, ID: id}
	err = s.pool.QueryRow(ctx, sqlMergeDocument, collection, id, string(raw)).Scan(&d.Data, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapPgError(err)
	}
	return d, nil
}

func (s *PostgresStore) UpdateIf(ctx context.Context, collection, id string, cond Filter, patch any) (bool, error) {
	raw, err := marshalObject(patch)
	if err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, sqlMergeDocumentIf, collection, id, string(raw), cond.Field, cond.Value)
	if err != nil {
		return false, mapPgError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) UpdateIfCreatedAt(ctx context.Context, collection, id string, createdAt time.Time, cond Filter, patch any) (bool, error) {
	raw, err := marshalObject(patch)
	if err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, sqlMergeDocumentGenerationIf, collection, id, string(raw), createdAt, cond.Field, cond.Value)
	if err != nil {
		return false, mapPgError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.pool.Exec(ctx, sqlDeleteDocument, collection, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteWhere(ctx context.Context, collection string, filters ...Filter) (int64, error) {
	where, args := whereClause(collection, filters)
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE `+where, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) DeleteIfCreatedAt(ctx context.Context, collection, id string, createdAt time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, sqlDeleteDocumentGeneration, collection, id, createdAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// whereClause builds "collection = $1 AND data->>$2 = $3 ..." with positional args.
func whereClause(collection string, filters []Filter) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, 1+2*len(filters))
	args = append(args, collection)
	b.WriteString("collection = $1")
	for _, f := range filters {
		b.WriteString(" AND data->>$")
		b.WriteString(strconv.Itoa(len(args) + 1))
		b.WriteString(" = $")
		b.WriteString(strconv.Itoa(len(args) + 2))
		args = append(args, f.Field, f.Value)
	}
	return b.String(), args
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrConflict
	}
	return err
}
