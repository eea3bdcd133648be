package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/erp/stockcount/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewIdempotencyStore creates the store selected by idempotency.backend.
// The redis backend pings the server first and fails fast when it is down,
// since silently falling back to memory breaks deduplication across instances.
func NewIdempotencyStore(ctx context.Context, cfg config.IdempotencyConfig, redisCfg config.RedisConfig, logger *zap.Logger) (shared.IdempotencyStore, error) {
	switch cfg.Backend {
	case "memory", "":
		logger.Info("Using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(DefaultCleanupInterval), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr(),
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", redisCfg.Addr(), err)
		}

		logger.Info("Using Redis idempotency store", zap.String("addr", redisCfg.Addr()))
		return NewRedisIdempotencyStore(client, DefaultKeyPrefix), nil

	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", cfg.Backend)
	}
}
