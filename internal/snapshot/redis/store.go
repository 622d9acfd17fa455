// Package redis stores snapshots in Redis hashes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/inamate/inamate/diagram-go/internal/snapshot"
)

const defaultPrefix = "diagram:snapshot:"

// Store implements snapshot.Store. Each document is one hash holding the
// snapshot and its version.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL expires snapshots that are not saved again within ttl.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New connects to the Redis server at address.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(docID string) string {
	return s.prefix + docID
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Save(ctx context.Context, docID string, data []byte) (int64, error) {
	key := s.key(docID)
	var version *backend.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		version = pipe.HIncrBy(ctx, key, "version", 1)
		pipe.HSet(ctx, key, "data", data)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("save %s to redis: %w", docID, err)
	}
	return version.Val(), nil
}

func (s *Store) Load(ctx context.Context, docID string) ([]byte, int64, error) {
	vals, err := s.client.HMGet(ctx, s.key(docID), "data", "version").Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, 0, snapshot.ErrNotFound
		}
		return nil, 0, fmt.Errorf("load %s from redis: %w", docID, err)
	}
	data, ok := vals[0].(string)
	if !ok {
		return nil, 0, snapshot.ErrNotFound
	}
	var version int64
	if v, ok := vals[1].(string); ok {
		version, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("parse version of %s: %w", docID, err)
		}
	}
	return []byte(data), version, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
