package storage

import (
	"context"
	"time"
)

// Store is the transient key-value storage used for payment handoff state.
// Values survive only the client's navigation to and from the external
// payment provider: they carry a TTL and are explicitly deleted once the
// return page has consumed them. A second tab overwriting a key while the
// first tab's redirect is in flight is accepted (last-writer-wins).
type Store interface {
	// Set stores a value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value for key. The second return value is false when
	// the key is absent or expired.
	Get(ctx context.Context, key string) (string, bool, error)

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
