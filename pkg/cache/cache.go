// Package cache provides the in-memory stores backing the market-data
// resiliency layer: a TTL+LRU store with statistics for quotes, and a
// Ristretto-backed store for data where exact eviction order is irrelevant.
package cache

import "time"

// Store is the interface for caching market data.
type Store[V any] interface {
	// Get retrieves a value from the cache.
	// Returns (value, true) if found and live, (zero, false) otherwise.
	Get(key string) (V, bool)

	// Set stores a value with the store's default TTL.
	Set(key string, value V)

	// SetTTL stores a value with an explicit TTL. A non-positive TTL
	// inserts an entry that is already expired.
	SetTTL(key string, value V, ttl time.Duration)

	// Has reports whether a live entry exists, without touching statistics.
	Has(key string) bool

	// Delete removes a value. Returns true if an entry existed.
	Delete(key string) bool

	// Clear removes all values without resetting cumulative counters.
	Clear()

	// Close releases resources and stops background goroutines.
	Close()
}

// Stats is a point-in-time snapshot of cache statistics. Hits and misses
// are cumulative since construction or the last ResetStats; everything
// else is recomputed on demand.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hitRate"`
	Size    int     `json:"size"`
	// OldestEntry and NewestEntry are insertion timestamps, zero when empty.
	OldestEntry time.Time `json:"oldestEntry"`
	NewestEntry time.Time `json:"newestEntry"`
	// EstimatedMemoryBytes is a serialized-length heuristic, not an exact
	// accounting.
	EstimatedMemoryBytes int64 `json:"estimatedMemoryBytes"`
}
