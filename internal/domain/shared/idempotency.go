package shared

import (
	"context"
	"time"
)

// IdempotencyStore stores processed submission keys to prevent duplicate processing
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL
	// Returns true if the key was newly marked, false if it was already processed
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget removes a key so it can be marked again. Forgetting an unknown
	// key is not an error.
	Forget(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
