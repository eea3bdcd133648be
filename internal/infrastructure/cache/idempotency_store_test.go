package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/erp/stockcount/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// exerciseStore runs the behaviour every IdempotencyStore must share
func exerciseStore(t *testing.T, store shared.IdempotencyStore) {
	ctx := context.Background()

	fresh, err := store.MarkProcessed(ctx, "k1", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.MarkProcessed(ctx, "k1", time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh, "second mark must report a duplicate")

	processed, err := store.IsProcessed(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, processed)

	processed, err = store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, store.Release(ctx, "k1"))
	fresh, err = store.MarkProcessed(ctx, "k1", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh, "released key can be used again")
}

func TestInMemoryIdempotencyStore(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store)

	t.Run("expired keys are fresh again and swept", func(t *testing.T) {
		ctx := context.Background()
		now := time.Now()
		store.now = func() time.Time { return now }

		_, err := store.MarkProcessed(ctx, "short", time.Minute)
		require.NoError(t, err)

		now = now.Add(2 * time.Minute)
		processed, err := store.IsProcessed(ctx, "short")
		require.NoError(t, err)
		assert.False(t, processed)

		before := store.Size()
		store.sweep()
		assert.Less(t, store.Size(), before)

		fresh, err := store.MarkProcessed(ctx, "short", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		assert.NoError(t, store.Close())
		assert.NoError(t, store.Close())
	})
}

func TestRedisIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisIdempotencyStore(client, "")
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store)

	t.Run("keys are prefixed and expire", func(t *testing.T) {
		ctx := context.Background()
		_, err := store.MarkProcessed(ctx, "ttl", 30*time.Second)
		require.NoError(t, err)

		assert.True(t, mr.Exists(DefaultKeyPrefix+"ttl"))
		assert.Equal(t, 30*time.Second, mr.TTL(DefaultKeyPrefix+"ttl"))

		mr.FastForward(time.Minute)
		processed, err := store.IsProcessed(ctx, "ttl")
		require.NoError(t, err)
		assert.False(t, processed)
	})

	t.Run("server errors are returned", func(t *testing.T) {
		mr.SetError("READONLY")
		defer mr.SetError("")

		_, err := store.MarkProcessed(context.Background(), "x", time.Minute)
		assert.Error(t, err)
	})
}

func TestNewIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	t.Run("memory", func(t *testing.T) {
		store, err := NewIdempotencyStore(ctx, config.IdempotencyConfig{Backend: "memory"}, config.RedisConfig{}, log)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		store, err := NewIdempotencyStore(ctx, config.IdempotencyConfig{Backend: "redis"},
			config.RedisConfig{Host: mr.Host(), Port: atoi(t, mr.Port())}, log)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &RedisIdempotencyStore{}, store)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		port := atoi(t, mr.Port())
		mr.Close()

		_, err := NewIdempotencyStore(ctx, config.IdempotencyConfig{Backend: "redis"},
			config.RedisConfig{Host: "127.0.0.1", Port: port}, log)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewIdempotencyStore(ctx, config.IdempotencyConfig{Backend: "etcd"}, config.RedisConfig{}, log)
		assert.ErrorContains(t, err, "etcd")
	})
}

func atoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
