package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/quotegate/quotegate/internal/quote"
	"github.com/quotegate/quotegate/internal/testutil"
	"github.com/quotegate/quotegate/pkg/cache"
	"github.com/quotegate/quotegate/pkg/retry"
)

// stubFetcher scripts per-symbol outcomes and records every request.
type stubFetcher struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func newStubFetcher(failing ...string) *stubFetcher {
	f := &stubFetcher{fail: make(map[string]bool)}
	for _, s := range failing {
		f.fail[s] = true
	}
	return f
}

func (f *stubFetcher) GetQuote(_ context.Context, symbol string) retry.Result[quote.Quote] {
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	failed := f.fail[symbol]
	f.mu.Unlock()

	if failed {
		return retry.Result[quote.Quote]{
			Success: false,
			Err:     fmt.Errorf("scripted failure for %s", symbol),
			Source:  "stub",
		}
	}
	return retry.Result[quote.Quote]{
		Success: true,
		Data:    testutil.MakeQuote(symbol, 10, "stub"),
		Source:  "stub",
	}
}

func (f *stubFetcher) sortedCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	sort.Strings(out)
	return out
}

func newTestCache(t *testing.T) *cache.LRU[quote.Quote] {
	t.Helper()

	c := cache.NewLRU[quote.Quote](cache.LRUConfig{Logger: zaptest.NewLogger(t)})
	t.Cleanup(c.Close)
	return c
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Cache: newTestCache(t)})
	require.Error(t, err)

	_, err = New(Config{Fetcher: newStubFetcher()})
	require.Error(t, err)
}

func TestGetMany_CachedSymbolsSkipFetch(t *testing.T) {
	t.Parallel()

	store := newTestCache(t)
	cached := testutil.MakeQuote("PETR4", 38.52, "brapi")
	store.Set("PETR4", cached)

	fetcher := newStubFetcher()
	c, err := New(Config{Fetcher: fetcher, Cache: store, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	got := c.GetMany(context.Background(), []string{"PETR4", "AAPL"})

	require.Len(t, got, 2)
	assert.Equal(t, cached, got["PETR4"])
	assert.Equal(t, []string{"AAPL"}, fetcher.sortedCalls())
}

func TestGetMany_DeduplicatesInput(t *testing.T) {
	t.Parallel()

	fetcher := newStubFetcher()
	c, err := New(Config{Fetcher: fetcher, Cache: newTestCache(t), Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	got := c.GetMany(context.Background(), []string{"AAPL", "AAPL", "MSFT", "AAPL"})

	require.Len(t, got, 2)
	assert.Equal(t, []string{"AAPL", "MSFT"}, fetcher.sortedCalls())
}

func TestGetMany_ChunksWithDelayBetween(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	fetcher := newStubFetcher()
	c, err := New(Config{
		Fetcher:    fetcher,
		Cache:      newTestCache(t),
		BatchSize:  2,
		BatchDelay: 250 * time.Millisecond,
		Logger:     zaptest.NewLogger(t),
		Sleep:      sleep,
	})
	require.NoError(t, err)

	symbols := []string{"A1", "A2", "B1", "B2", "C1"}
	got := c.GetMany(context.Background(), symbols)

	require.Len(t, got, 5)
	// Five misses at chunk size two means three chunks and two pauses.
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, delays)
}

func TestGetMany_FailedSymbolIsAbsentNotFatal(t *testing.T) {
	t.Parallel()

	fetcher := newStubFetcher("BROKE")
	c, err := New(Config{Fetcher: fetcher, Cache: newTestCache(t), Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	got := c.GetMany(context.Background(), []string{"AAPL", "BROKE", "MSFT"})

	require.Len(t, got, 2)
	assert.Contains(t, got, "AAPL")
	assert.Contains(t, got, "MSFT")
	assert.NotContains(t, got, "BROKE")
}

func TestGetMany_WritesFetchedQuotesBack(t *testing.T) {
	t.Parallel()

	store := newTestCache(t)
	fetcher := newStubFetcher("BROKE")
	c, err := New(Config{
		Fetcher:  fetcher,
		Cache:    store,
		CacheTTL: time.Minute,
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	c.GetMany(context.Background(), []string{"AAPL", "BROKE"})

	assert.True(t, store.Has("AAPL"))
	assert.False(t, store.Has("BROKE"))

	// The second resolution is served from cache.
	c.GetMany(context.Background(), []string{"AAPL"})
	assert.Equal(t, []string{"AAPL", "BROKE"}, fetcher.sortedCalls())
}

func TestGetMany_InterruptedSleepReturnsPartialResult(t *testing.T) {
	t.Parallel()

	sleep := func(context.Context, time.Duration) error {
		return context.Canceled
	}

	fetcher := newStubFetcher()
	c, err := New(Config{
		Fetcher:    fetcher,
		Cache:      newTestCache(t),
		BatchSize:  2,
		BatchDelay: time.Second,
		Logger:     zaptest.NewLogger(t),
		Sleep:      sleep,
	})
	require.NoError(t, err)

	got := c.GetMany(context.Background(), []string{"A1", "A2", "B1", "B2"})

	// Only the first chunk completed before the pause was interrupted.
	require.Len(t, got, 2)
	assert.Contains(t, got, "A1")
	assert.Contains(t, got, "A2")
}

func TestGetMany_EmptyInput(t *testing.T) {
	t.Parallel()

	c, err := New(Config{Fetcher: newStubFetcher(), Cache: newTestCache(t)})
	require.NoError(t, err)

	got := c.GetMany(context.Background(), nil)
	assert.Empty(t, got)
}
