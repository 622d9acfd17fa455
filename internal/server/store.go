package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inamate/inamate/diagram-go/internal/config"
	"github.com/inamate/inamate/diagram-go/internal/snapshot"
	"github.com/inamate/inamate/diagram-go/internal/snapshot/postgres"
	"github.com/inamate/inamate/diagram-go/internal/snapshot/redis"
	"github.com/inamate/inamate/diagram-go/internal/snapshot/sqlite"
)

// OpenStore connects the snapshot backend named by cfg.SnapshotBackend.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (snapshot.Store, error) {
	switch cfg.SnapshotBackend {
	case config.BackendMemory:
		logger.Warn("snapshots are kept in memory and lost on restart")
		return snapshot.NewMemoryStore(), nil
	case config.BackendRedis:
		s := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return s, nil
	case config.BackendPostgres:
		return postgres.New(ctx, cfg.DatabaseURL)
	case config.BackendSQLite:
		return sqlite.Open(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
}
