// Package backend opens the key-value store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/whisperingwoods/woods/internal/config"
	"github.com/whisperingwoods/woods/internal/storage"
	"github.com/whisperingwoods/woods/internal/storage/postgres"
	"github.com/whisperingwoods/woods/internal/storage/redis"
)

// Backend is an opened store together with its health check and shutdown.
type Backend struct {
	// Name is the configured backend name.
	Name string
	// Open scopes the store to a namespace.
	Open storage.Opener

	health func(ctx context.Context, timeout time.Duration) error
	close  func()
}

// Open connects to the backend named by cfg.Storage.Backend.
//
// Precondition: cfg must have passed Validate.
// Postcondition: Returns a connected Backend, or a non-nil error.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		mem := storage.NewMemoryStore(cfg.Game.Namespace)
		logger.Warn("using in-memory storage; progress is lost on exit")
		return &Backend{
			Name:   config.BackendMemory,
			Open:   mem.Opener(),
			health: func(context.Context, time.Duration) error { return nil },
			close:  func() {},
		}, nil

	case config.BackendRedis:
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		checker := redis.NewStore(client, cfg.Game.Namespace, logger)
		logger.Info("redis connected", zap.String("addr", client.Options().Addr))
		return &Backend{
			Name:   config.BackendRedis,
			Open:   redis.Opener(client, logger.Named("redis")),
			health: checker.Health,
			close:  func() { _ = client.Close() },
		}, nil

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		return &Backend{
			Name:   config.BackendPostgres,
			Open:   postgres.Opener(pool.DB()),
			health: pool.Health,
			close:  pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// Health reports whether the backend answers within timeout.
func (b *Backend) Health(ctx context.Context, timeout time.Duration) error {
	return b.health(ctx, timeout)
}

// Close releases the backend's connections.
func (b *Backend) Close() {
	b.close()
}
