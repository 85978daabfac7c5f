// Package postgres stores CRM records as JSONB documents in crm_records.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealer_crm_backend/internal/store"
)

const uniqueViolation = "23505"

// Store implements store.Store with PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new Postgres record store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Get retrieves a record by id.
func (s *Store) Get(ctx context.Context, coll store.Collection, id string, dst any) error {
	query := `SELECT doc FROM crm_records WHERE collection = $1 AND id = $2`

	var raw []byte
	if err := s.pool.QueryRow(ctx, query, string(coll), id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return fmt.Errorf("get %s record: %w", coll, err)
	}
	return json.Unmarshal(raw, dst)
}

// FindFirst retrieves the earliest record whose field equals value.
func (s *Store) FindFirst(ctx context.Context, coll store.Collection, field, value string, dst any) error {
	query := `
		SELECT doc FROM crm_records
		WHERE collection = $1 AND doc->>($2::text) = $3
		ORDER BY seq
		LIMIT 1`

	var raw []byte
	if err := s.pool.QueryRow(ctx, query, string(coll), field, value).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return fmt.Errorf("find %s record by %s: %w", coll, field, err)
	}
	return json.Unmarshal(raw, dst)
}

// Insert stores a new record.
func (s *Store) Insert(ctx context.Context, coll store.Collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", coll, err)
	}

	query := `INSERT INTO crm_records (collection, id, doc) VALUES ($1, $2, $3::jsonb)`
	if _, err := s.pool.Exec(ctx, query, string(coll), id, raw); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.ErrDuplicateID
		}
		return fmt.Errorf("insert %s record: %w", coll, err)
	}
	return nil
}

// Patch merges fields into the stored document in one statement.
func (s *Store) Patch(ctx context.Context, coll store.Collection, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode %s patch: %w", coll, err)
	}

	query := `
		UPDATE crm_records
		SET doc = doc || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2`

	tag, err := s.pool.Exec(ctx, query, string(coll), id, raw)
	if err != nil {
		return fmt.Errorf("patch %s record: %w", coll, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListAll retrieves every record of a collection in insertion order.
func (s *Store) ListAll(ctx context.Context, coll store.Collection, dst any) error {
	query := `SELECT doc FROM crm_records WHERE collection = $1 ORDER BY seq`

	rows, err := s.pool.Query(ctx, query, string(coll))
	if err != nil {
		return fmt.Errorf("list %s records: %w", coll, err)
	}
	defer rows.Close()

	docs := make([]json.RawMessage, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("scan %s record: %w", coll, err)
		}
		docs = append(docs, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s records: %w", coll, err)
	}
	return store.Decode(docs, dst)
}
