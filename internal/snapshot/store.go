// Package snapshot persists committed document snapshots.
package snapshot

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("snapshot not found")

// Store keeps the latest JSON snapshot of each document. Every Save gets the
// next version number of that document, starting at 1.
type Store interface {
	Save(ctx context.Context, docID string, data []byte) (int64, error)
	Load(ctx context.Context, docID string) ([]byte, int64, error)
	Close() error
}

type memoryEntry struct {
	data    []byte
	version int64
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Save(ctx context.Context, docID string, data []byte) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{data: append([]byte(nil), data...), version: s.docs[docID].version + 1}
	s.docs[docID] = e
	return e.version, nil
}

func (s *MemoryStore) Load(ctx context.Context, docID string) ([]byte, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.docs[docID]
	if !ok {
		return nil, 0, ErrNotFound
	}
	return append([]byte(nil), e.data...), e.version, nil
}

func (s *MemoryStore) Close() error { return nil }
