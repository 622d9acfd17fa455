// Package postgres stores every snapshot version in a Postgres table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/inamate/diagram-go/internal/snapshot"
	"github.com/inamate/inamate/diagram-go/internal/typeid"
)

const schema = `
CREATE TABLE IF NOT EXISTS document_snapshots (
	id         TEXT PRIMARY KEY,
	doc_id     TEXT NOT NULL,
	version    BIGINT NOT NULL,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (doc_id, version)
)`

type Store struct {
	pool *pgxpool.Pool
}

// NewPool opens a pool and checks the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// New connects to databaseURL and creates the snapshot table if needed.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	s := NewFromPool(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func NewFromPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, docID string, data []byte) (int64, error) {
	var version int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO document_snapshots (id, doc_id, version, document)
		SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3
		FROM document_snapshots WHERE doc_id = $2
		RETURNING version`,
		typeid.NewSnapshotID(), docID, data,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("create snapshot: %w", err)
	}
	return version, nil
}

func (s *Store) Load(ctx context.Context, docID string) ([]byte, int64, error) {
	var (
		data    []byte
		version int64
	)
	err := s.pool.QueryRow(ctx, `
		SELECT document, version FROM document_snapshots
		WHERE doc_id = $1 ORDER BY version DESC LIMIT 1`,
		docID,
	).Scan(&data, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, snapshot.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get latest snapshot: %w", err)
	}
	return data, version, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
