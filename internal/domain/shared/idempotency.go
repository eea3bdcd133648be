package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys that have already been processed
type IdempotencyStore interface {
	// MarkProcessed records key with a TTL.
	// Returns true if the key was newly recorded, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether key has already been recorded
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release forgets key so a failed request can be retried with it
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}

// DefaultIdempotencyTTL is how long a processed key is remembered
const DefaultIdempotencyTTL = 24 * time.Hour
