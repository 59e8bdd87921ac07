package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// Ristretto adapts a Ristretto cache to the Store interface. Unlike LRU
// it gives no eviction-order or statistics guarantees, which is fine for
// data where only hit-or-miss matters, such as symbol-validation results.
type Ristretto[V any] struct {
	cache      *ristretto.Cache
	defaultTTL time.Duration
	logger     *zap.Logger
}

// RistrettoConfig holds configuration for the Ristretto-backed store.
type RistrettoConfig struct {
	NumCounters int64 // Number of keys to track frequency (10x max items)
	MaxCost     int64 // Maximum cost of cache (in items)
	BufferItems int64 // Number of keys per Get buffer
	DefaultTTL  time.Duration
	Logger      *zap.Logger
}

// NewRistretto creates a new Ristretto-backed store.
func NewRistretto[V any](cfg *RistrettoConfig) (*Ristretto[V], error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = time.Hour
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &Ristretto[V]{
		cache:      cache,
		defaultTTL: cfg.DefaultTTL,
		logger:     cfg.Logger,
	}, nil
}

// Get retrieves a value from the cache.
func (r *Ristretto[V]) Get(key string) (V, bool) {
	var zero V

	value, found := r.cache.Get(key)
	if !found {
		MissesTotal.Inc()
		r.logger.Debug("cache-miss", zap.String("key", key))
		return zero, false
	}

	v, ok := value.(V)
	if !ok {
		MissesTotal.Inc()
		return zero, false
	}

	HitsTotal.Inc()
	r.logger.Debug("cache-hit", zap.String("key", key))
	return v, true
}

// Set stores a value with the store's default TTL.
func (r *Ristretto[V]) Set(key string, value V) {
	r.SetTTL(key, value, r.defaultTTL)
}

// SetTTL stores a value with an explicit TTL.
// Cost = 1: items are counted, not sized.
func (r *Ristretto[V]) SetTTL(key string, value V, ttl time.Duration) {
	if r.cache.SetWithTTL(key, value, 1, ttl) {
		SetsTotal.Inc()
		r.logger.Debug("cache-set",
			zap.String("key", key),
			zap.Duration("ttl", ttl))
	}
}

// Has reports whether a value exists without recording a hit or miss.
func (r *Ristretto[V]) Has(key string) bool {
	_, found := r.cache.Get(key)
	return found
}

// Delete removes a value. Ristretto does not report prior presence, so
// the return value reflects a pre-check.
func (r *Ristretto[V]) Delete(key string) bool {
	_, existed := r.cache.Get(key)
	r.cache.Del(key)
	DeletesTotal.Inc()
	return existed
}

// Clear removes all values from the cache.
func (r *Ristretto[V]) Clear() {
	r.cache.Clear()
	r.logger.Info("cache-cleared")
}

// Close closes the cache and releases resources.
func (r *Ristretto[V]) Close() {
	r.cache.Close()
	r.logger.Info("cache-closed")
}

// Wait blocks until all pending writes have been applied.
// Useful in tests: Ristretto buffers writes.
func (r *Ristretto[V]) Wait() {
	r.cache.Wait()
}
