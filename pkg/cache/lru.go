package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// entryOverheadBytes is the fixed per-entry cost added to the memory
// heuristic on top of the serialized value length.
const entryOverheadBytes = 64

// LRUConfig holds configuration for the LRU store.
type LRUConfig struct {
	// MaxEntries bounds the store. Inserting beyond it evicts the
	// least-recently-accessed entry first. <= 0 means unbounded.
	MaxEntries int

	// DefaultTTL applies to Set and to GetOrSet/BatchGet callers that
	// pass zero.
	DefaultTTL time.Duration

	// CleanupInterval drives the background sweep that removes expired
	// entries never touched by reads. <= 0 disables the sweep; lazy
	// expiry on read still applies.
	CleanupInterval time.Duration

	// TrackStats enables the hit/miss counters.
	TrackStats bool

	Logger *zap.Logger

	// Clock overrides time.Now, for deterministic tests.
	Clock func() time.Time
}

// LRU is a concurrency-safe in-memory store with per-entry TTL, bounded
// size with least-recently-accessed eviction, and cumulative statistics.
// A map gives O(1) lookup and a doubly-linked list maintains recency
// ordering, so eviction is O(1) per removed entry.
//
// LRU owns its sweep goroutine; call Close to stop it.
type LRU[V any] struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	recency *list.List // Front = most recently accessed

	maxEntries int
	defaultTTL time.Duration
	trackStats bool
	hits       uint64
	misses     uint64

	now    func() time.Time
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// lruEntry is the value stored in the recency list. The key lives here
// because eviction starts from list nodes.
type lruEntry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
	ttl        time.Duration
}

// expired reports whether the entry is past its TTL at now. A
// non-positive TTL means the entry was born expired.
func (e *lruEntry[V]) expired(now time.Time) bool {
	return e.ttl <= 0 || now.Sub(e.insertedAt) > e.ttl
}

// NewLRU creates an LRU store and starts the background sweep when a
// cleanup interval is configured.
func NewLRU[V any](cfg LRUConfig) *LRU[V] {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &LRU[V]{
		items:      make(map[string]*list.Element),
		recency:    list.New(),
		maxEntries: cfg.MaxEntries,
		defaultTTL: cfg.DefaultTTL,
		trackStats: cfg.TrackStats,
		now:        cfg.Clock,
		logger:     cfg.Logger,
		ctx:        ctx,
		cancel:     cancel,
	}

	if cfg.CleanupInterval > 0 {
		s.wg.Add(1)
		go s.sweepLoop(cfg.CleanupInterval)
	}

	return s
}

// Set stores a value with the store's default TTL.
func (s *LRU[V]) Set(key string, value V) {
	s.SetTTL(key, value, s.defaultTTL)
}

// SetTTL stores a value with an explicit TTL. Any key and value shape is
// accepted; storage is by reference, no copy or serialization happens on
// the write path. A non-positive TTL inserts an already-expired entry, so
// the next Get is a miss.
func (s *LRU[V]) SetTTL(key string, value V, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if el, ok := s.items[key]; ok {
		e := el.Value.(*lruEntry[V])
		e.value = value
		e.insertedAt = now
		e.ttl = ttl
		s.recency.MoveToFront(el)
		SetsTotal.Inc()
		return
	}

	el := s.recency.PushFront(&lruEntry[V]{
		key:        key,
		value:      value,
		insertedAt: now,
		ttl:        ttl,
	})
	s.items[key] = el
	SetsTotal.Inc()

	s.evictLocked()
}

// Get retrieves a value. Expired entries are removed on access (lazy
// expiry) and reported as misses. A hit refreshes the entry's recency.
func (s *LRU[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V

	el, ok := s.items[key]
	if !ok {
		s.missLocked(key)
		return zero, false
	}

	e := el.Value.(*lruEntry[V])
	if e.expired(s.now()) {
		s.removeLocked(el)
		s.missLocked(key)
		return zero, false
	}

	s.recency.MoveToFront(el)
	s.hitLocked(key)
	return e.value, true
}

// Has reports whether a live entry exists. Same expiry semantics as Get,
// but neither the counters nor the recency ordering are touched.
func (s *LRU[V]) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		return false
	}

	e := el.Value.(*lruEntry[V])
	if e.expired(s.now()) {
		s.removeLocked(el)
		return false
	}

	return true
}

// Delete removes a key. Returns true iff an entry existed.
func (s *LRU[V]) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		return false
	}

	s.removeLocked(el)
	DeletesTotal.Inc()
	return true
}

// Clear drops all entries. Cumulative hit/miss counters are preserved;
// use ResetStats to zero them.
func (s *LRU[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*list.Element)
	s.recency.Init()
	s.logger.Info("cache-cleared")
}

// ResetStats zeroes the cumulative hit/miss counters.
func (s *LRU[V]) ResetStats() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hits = 0
	s.misses = 0
}

// GetOrSet returns the cached value when live; otherwise it invokes
// producer, stores the result under ttl (zero means the default TTL) and
// returns it.
//
// There is no single-flight de-duplication: the producer runs outside the
// store's critical section, so two concurrent callers missing on the same
// key may both invoke it. The last write wins, which is acceptable for
// replace-on-refresh quote data.
func (s *LRU[V]) GetOrSet(ctx context.Context, key string, producer func(context.Context) (V, error), ttl time.Duration) (V, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}

	v, err := producer(ctx)
	if err != nil {
		var zero V
		return zero, fmt.Errorf("produce %q: %w", key, err)
	}

	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.SetTTL(key, v, ttl)
	return v, nil
}

// BatchGet partitions keys into cached and missing, invokes producer
// exactly once with only the missing subset (deduplicated, input order
// preserved), stores its results under ttl, and merges everything into a
// single map.
//
// When the producer fails, expired-but-unswept values for the missing
// keys are returned as a degraded fallback where available, alongside the
// error so callers can tell the data may be stale.
func (s *LRU[V]) BatchGet(ctx context.Context, keys []string, producer func(context.Context, []string) (map[string]V, error), ttl time.Duration) (map[string]V, error) {
	result := make(map[string]V, len(keys))

	// Partition under one lock so liveness checks are consistent.
	// Expired entries are left in place here: they are the degraded
	// fallback if the producer fails.
	s.mu.Lock()
	now := s.now()
	missing := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		el, ok := s.items[key]
		if ok {
			e := el.Value.(*lruEntry[V])
			if !e.expired(now) {
				s.recency.MoveToFront(el)
				s.hitLocked(key)
				result[key] = e.value
				continue
			}
		}
		s.missLocked(key)
		missing = append(missing, key)
	}
	s.mu.Unlock()

	if len(missing) == 0 {
		return result, nil
	}

	fresh, err := producer(ctx, missing)
	if err != nil {
		degraded := 0
		s.mu.Lock()
		for _, key := range missing {
			if el, ok := s.items[key]; ok {
				result[key] = el.Value.(*lruEntry[V]).value
				degraded++
			}
		}
		s.mu.Unlock()

		s.logger.Warn("batch-producer-failed",
			zap.Int("missing", len(missing)),
			zap.Int("degraded", degraded),
			zap.Error(err))
		return result, fmt.Errorf("batch produce: %w", err)
	}

	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	for key, v := range fresh {
		s.SetTTL(key, v, ttl)
		result[key] = v
	}

	return result, nil
}

// Stats recomputes and returns a statistics snapshot. The memory figure
// is a serialized-length heuristic; a value that cannot be marshaled is
// counted by the fixed per-entry overhead only (the failure is logged and
// swallowed — the cache is an optimization, not a correctness
// requirement).
func (s *LRU[V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Hits:   s.hits,
		Misses: s.misses,
		Size:   len(s.items),
	}
	if total := s.hits + s.misses; total > 0 {
		st.HitRate = float64(s.hits) / float64(total)
	}

	for key, el := range s.items {
		e := el.Value.(*lruEntry[V])
		if st.OldestEntry.IsZero() || e.insertedAt.Before(st.OldestEntry) {
			st.OldestEntry = e.insertedAt
		}
		if e.insertedAt.After(st.NewestEntry) {
			st.NewestEntry = e.insertedAt
		}

		st.EstimatedMemoryBytes += int64(len(key)) + entryOverheadBytes
		b, err := json.Marshal(e.value)
		if err != nil {
			ErrorsTotal.Inc()
			s.logger.Warn("memory-estimate-failed",
				zap.String("key", key),
				zap.Error(err))
			continue
		}
		st.EstimatedMemoryBytes += int64(len(b))
	}

	return st
}

// ExpiredKeys returns keys whose TTL has elapsed but which have not yet
// been lazily or proactively swept. Diagnostic only.
func (s *LRU[V]) ExpiredKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var out []string
	for key, el := range s.items {
		if el.Value.(*lruEntry[V]).expired(now) {
			out = append(out, key)
		}
	}
	return out
}

// Close stops the background sweep. Safe to call multiple times.
func (s *LRU[V]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.logger.Info("cache-closed")
}

// sweepLoop proactively removes expired entries so write-only keys do not
// accumulate. Lazy expiry alone would leave them in memory until the next
// read.
func (s *LRU[V]) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *LRU[V]) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for _, el := range s.items {
		if el.Value.(*lruEntry[V]).expired(now) {
			s.removeLocked(el)
			removed++
		}
	}

	SweepsTotal.Inc()
	if removed > 0 {
		s.logger.Debug("cache-swept", zap.Int("removed", removed))
	}
}

func (s *LRU[V]) evictLocked() {
	if s.maxEntries <= 0 {
		return
	}

	for len(s.items) > s.maxEntries {
		el := s.recency.Back()
		if el == nil {
			return
		}
		e := el.Value.(*lruEntry[V])
		s.removeLocked(el)
		EvictionsTotal.Inc()
		s.logger.Debug("cache-evicted", zap.String("key", e.key))
	}
}

func (s *LRU[V]) removeLocked(el *list.Element) {
	e := el.Value.(*lruEntry[V])
	delete(s.items, e.key)
	s.recency.Remove(el)
}

func (s *LRU[V]) hitLocked(key string) {
	if s.trackStats {
		s.hits++
	}
	HitsTotal.Inc()
	s.logger.Debug("cache-hit", zap.String("key", key))
}

func (s *LRU[V]) missLocked(key string) {
	if s.trackStats {
		s.misses++
	}
	MissesTotal.Inc()
	s.logger.Debug("cache-miss", zap.String("key", key))
}
