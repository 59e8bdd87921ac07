// Package batch turns N individual quote requests into rate-limit
// respecting grouped fetches merged with cached results.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quotegate/quotegate/internal/quote"
	"github.com/quotegate/quotegate/pkg/cache"
	"github.com/quotegate/quotegate/pkg/retry"
)

// QuoteFetcher resolves a single symbol; implemented by the provider
// router.
type QuoteFetcher interface {
	GetQuote(ctx context.Context, symbol string) retry.Result[quote.Quote]
}

// Config holds coordinator configuration.
type Config struct {
	Fetcher QuoteFetcher
	Cache   *cache.LRU[quote.Quote]

	// BatchSize bounds how many symbols are in flight per chunk.
	BatchSize int

	// BatchDelay is the pause between chunks, respecting upstream rate
	// limits.
	BatchDelay time.Duration

	// CacheTTL applies to quotes written back after a fetch; zero means
	// the cache's default.
	CacheTTL time.Duration

	Logger *zap.Logger

	// Sleep is injectable for deterministic tests.
	Sleep func(context.Context, time.Duration) error
}

// Coordinator resolves many symbols at once: cache hits immediately,
// misses through the fetcher in size-bounded sequential chunks with
// concurrent calls inside each chunk.
type Coordinator struct {
	fetcher    QuoteFetcher
	cache      *cache.LRU[quote.Quote]
	batchSize  int
	batchDelay time.Duration
	cacheTTL   time.Duration
	logger     *zap.Logger
	sleep      func(context.Context, time.Duration) error
}

// New creates a coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher cannot be nil")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache cannot be nil")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}

	return &Coordinator{
		fetcher:    cfg.Fetcher,
		cache:      cfg.Cache,
		batchSize:  cfg.BatchSize,
		batchDelay: cfg.BatchDelay,
		cacheTTL:   cfg.CacheTTL,
		logger:     cfg.Logger,
		sleep:      cfg.Sleep,
	}, nil
}

// GetMany resolves symbols into a map keyed by symbol. Cached quotes are
// returned as-is; the rest are fetched. A failed symbol is simply absent
// from the result, it never aborts its chunk or the batch.
func (c *Coordinator) GetMany(ctx context.Context, symbols []string) map[string]quote.Quote {
	result := make(map[string]quote.Quote, len(symbols))

	// Cache pass. Misses keep their input order so chunking is stable.
	misses := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}

		if q, ok := c.cache.Get(symbol); ok {
			result[symbol] = q
			continue
		}
		misses = append(misses, symbol)
	}

	if len(misses) == 0 {
		return result
	}

	c.logger.Debug("batch-resolving",
		zap.Int("requested", len(symbols)),
		zap.Int("cached", len(result)),
		zap.Int("misses", len(misses)))

	for start := 0; start < len(misses); start += c.batchSize {
		if start > 0 && c.batchDelay > 0 {
			if err := c.sleep(ctx, c.batchDelay); err != nil {
				c.logger.Warn("batch-interrupted", zap.Error(err))
				return result
			}
		}

		end := min(start+c.batchSize, len(misses))
		for symbol, q := range c.fetchChunk(ctx, misses[start:end]) {
			result[symbol] = q
		}
	}

	return result
}

// fetchChunk issues all fetches of one chunk without waiting for each
// other and reassembles the outcome keyed by symbol, not completion
// order.
func (c *Coordinator) fetchChunk(ctx context.Context, symbols []string) map[string]quote.Quote {
	ChunksTotal.Inc()

	type outcome struct {
		symbol string
		result retry.Result[quote.Quote]
	}

	outcomes := make(chan outcome, len(symbols))

	var wg sync.WaitGroup
	for _, symbol := range symbols {
		symbol := symbol
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes <- outcome{symbol: symbol, result: c.fetcher.GetQuote(ctx, symbol)}
		}()
	}
	wg.Wait()
	close(outcomes)

	chunk := make(map[string]quote.Quote, len(symbols))
	for o := range outcomes {
		if !o.result.Success {
			SymbolFailuresTotal.Inc()
			c.logger.Warn("batch-symbol-failed",
				zap.String("symbol", o.symbol),
				zap.Error(o.result.Err))
			continue
		}

		// Write back before merging so a concurrent caller sees the
		// fresh value.
		if c.cacheTTL > 0 {
			c.cache.SetTTL(o.symbol, o.result.Data, c.cacheTTL)
		} else {
			c.cache.Set(o.symbol, o.result.Data)
		}
		chunk[o.symbol] = o.result.Data
	}

	return chunk
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
