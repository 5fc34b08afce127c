package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers client-supplied request keys so that a retried
// request returns the result of the first one instead of running again.
type IdempotencyStore interface {
	// Reserve claims key for an in-flight request. It returns false when the
	// key is already reserved or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete stores the result for a reserved key.
	Complete(ctx context.Context, key, result string, ttl time.Duration) error

	// Lookup returns the stored result. An empty result with found=true means
	// the first request is still running.
	Lookup(ctx context.Context, key string) (result string, found bool, err error)

	// Release drops a reservation after the request failed.
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}
