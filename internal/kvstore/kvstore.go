package kvstore

import (
	"context"
	"time"
)

// Store is the shared key/value surface used by the view-history tracker
// (cached browse responses) and the failure registry (permanent-failure
// markers). Implementations must be safe for concurrent use; operations on
// a single key are atomic.
type Store interface {
	// Get returns the value for key, or ok=false when absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set writes key=value. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteByPattern removes every key matching a glob-style pattern
	// (trailing-* prefix patterns are the only ones this subsystem uses)
	// and returns the number of keys removed.
	DeleteByPattern(ctx context.Context, pattern string) (int, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
}
