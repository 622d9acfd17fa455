// Package sqlite stores snapshots in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/inamate/inamate/diagram-go/internal/snapshot"
	"github.com/inamate/inamate/diagram-go/internal/typeid"
)

const schema = `
CREATE TABLE IF NOT EXISTS document_snapshots (
	id         TEXT PRIMARY KEY,
	doc_id     TEXT NOT NULL,
	version    INTEGER NOT NULL,
	document   BLOB NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE (doc_id, version)
)`

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, docID string, data []byte) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO document_snapshots (id, doc_id, version, document, created_at)
		SELECT ?, ?, COALESCE(MAX(version), 0) + 1, ?, ?
		FROM document_snapshots WHERE doc_id = ?
		RETURNING version`,
		typeid.NewSnapshotID(), docID, data, time.Now().UTC().Format(time.RFC3339Nano), docID,
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
	err := s.db.QueryRowContext(ctx, `
		SELECT document, version FROM document_snapshots
		WHERE doc_id = ? ORDER BY version DESC LIMIT 1`,
		docID,
	).Scan(&data, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, snapshot.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get latest snapshot: %w", err)
	}
	return data, version, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
