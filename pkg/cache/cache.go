// Package cache provides pluggable caching for upstream registry responses
// and derived analysis tables.
//
// Three backends are available:
//   - FileCache: persistent on-disk cache for CLI usage
//   - RedisCache: shared cache for long-running or multi-host setups
//   - NullCache: no-op cache for tests and --no-cache runs
//
// Keys are generated through a Keyer so that every component agrees on the
// key layout and derived entries are invalidated together when the schema
// version changes.
package cache

import (
	"context"
	"fmt"
	"time"
)

// TTL constants for the different classes of cached data.
const (
	// TTLMetadata is the lifetime for upstream registry responses.
	// PyPI metadata for a released version is effectively immutable, but new
	// releases should surface within a day.
	TTLMetadata = 24 * time.Hour

	// TTLDerived is the lifetime for derived tables (reachability, summaries).
	// Entries are keyed by snapshot content hash, so they never go stale;
	// the TTL only bounds disk usage.
	TTLDerived = 7 * 24 * time.Hour
)

// keySchemaVersion is baked into derived keys. Bump it when the serialized
// form of a cached table changes so old entries read as misses.
const keySchemaVersion = 1

// Cache is the interface all cache backends implement.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// HTTPKey generates a key for upstream HTTP response caching.
	HTTPKey(namespace, key string) string

	// ReachKey generates a key for a cached reachability table.
	// Direction distinguishes forward and reverse traversals over the
	// same snapshot.
	ReachKey(snapshotHash, direction string) string

	// SummaryKey generates a key for a cached package summary table.
	SummaryKey(snapshotHash string) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}

// ReachKey generates a key for a cached reachability table.
func (k *DefaultKeyer) ReachKey(snapshotHash, direction string) string {
	return hashKey("reach", keySchemaVersion, snapshotHash, direction)
}

// SummaryKey generates a key for a cached package summary table.
func (k *DefaultKeyer) SummaryKey(snapshotHash string) string {
	return hashKey("summary", keySchemaVersion, snapshotHash)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
