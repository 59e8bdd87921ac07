// Package service exposes the market-data core to the rest of the
// application through a narrow request/response interface. All
// dependencies are constructor-injected; there is no module-level state.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quotegate/quotegate/internal/batch"
	"github.com/quotegate/quotegate/internal/classify"
	"github.com/quotegate/quotegate/internal/quote"
	"github.com/quotegate/quotegate/internal/router"
	"github.com/quotegate/quotegate/pkg/cache"
)

// healthProbeSymbols are known-good tickers used to probe each provider.
const (
	probeSymbolBR = "PETR4"
	probeSymbolUS = "AAPL"
)

// QuoteResponse is the discriminated result handed to callers for a
// single symbol.
type QuoteResponse struct {
	Success        bool         `json:"success"`
	Data           *quote.Quote `json:"data,omitempty"`
	Error          string       `json:"error,omitempty"`
	Source         string       `json:"source,omitempty"`
	Cached         bool         `json:"cached"`
	ResponseTimeMs int64        `json:"responseTimeMs"`
}

// QuotesResponse is the result for a multi-symbol request.
type QuotesResponse struct {
	Success bool          `json:"success"`
	Data    []quote.Quote `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Health reports per-provider reachability and cache state.
type Health struct {
	Brapi          bool        `json:"brapi"`
	Finnhub        bool        `json:"finnhub"`
	PrimarySource  string      `json:"primarySource"`
	FallbackSource string      `json:"fallbackSource"`
	CacheStats     cache.Stats `json:"cacheStats"`
}

// MarketData is the facade over cache, router and batch coordinator.
type MarketData struct {
	router      *router.Router
	coordinator *batch.Coordinator
	quotes      *cache.LRU[quote.Quote]
	validations cache.Store[bool]
	cacheTTL    time.Duration
	logger      *zap.Logger
	clock       func() time.Time
}

// Config holds service configuration.
type Config struct {
	Router      *router.Router
	Coordinator *batch.Coordinator

	// Quotes is the TTL+LRU quote cache shared with the coordinator.
	Quotes *cache.LRU[quote.Quote]

	// Validations caches symbol-validation booleans. Exact eviction
	// order is irrelevant here, so any store works.
	Validations cache.Store[bool]

	// CacheTTL applies to quotes written back on the single-symbol path;
	// zero means the cache's default.
	CacheTTL time.Duration

	Logger *zap.Logger
	Clock  func() time.Time
}

// New creates the market-data service.
func New(cfg Config) (*MarketData, error) {
	if cfg.Router == nil {
		return nil, fmt.Errorf("router cannot be nil")
	}
	if cfg.Coordinator == nil {
		return nil, fmt.Errorf("coordinator cannot be nil")
	}
	if cfg.Quotes == nil {
		return nil, fmt.Errorf("quote cache cannot be nil")
	}
	if cfg.Validations == nil {
		return nil, fmt.Errorf("validation cache cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &MarketData{
		router:      cfg.Router,
		coordinator: cfg.Coordinator,
		quotes:      cfg.Quotes,
		validations: cfg.Validations,
		cacheTTL:    cfg.CacheTTL,
		logger:      cfg.Logger,
		clock:       cfg.Clock,
	}, nil
}

// GetQuote resolves one symbol through cache then routing. The response
// is always structured; provider failures surface as Success=false, not
// as errors.
func (m *MarketData) GetQuote(ctx context.Context, symbol string) QuoteResponse {
	start := m.clock()

	if q, ok := m.quotes.Get(symbol); ok {
		return QuoteResponse{
			Success:        true,
			Data:           &q,
			Source:         q.Source,
			Cached:         true,
			ResponseTimeMs: m.clock().Sub(start).Milliseconds(),
		}
	}

	res := m.router.GetQuote(ctx, symbol)
	if !res.Success {
		msg := "quote unavailable"
		if res.Err != nil {
			msg = res.Err.Error()
		}
		return QuoteResponse{
			Success:        false,
			Error:          msg,
			Source:         res.Source,
			ResponseTimeMs: res.ResponseTimeMs,
		}
	}

	if m.cacheTTL > 0 {
		m.quotes.SetTTL(symbol, res.Data, m.cacheTTL)
	} else {
		m.quotes.Set(symbol, res.Data)
	}

	return QuoteResponse{
		Success:        true,
		Data:           &res.Data,
		Source:         res.Source,
		ResponseTimeMs: res.ResponseTimeMs,
	}
}

// GetQuotes resolves many symbols through the batch coordinator. Symbols
// that failed are absent from Data; the call itself only fails on an
// empty request.
func (m *MarketData) GetQuotes(ctx context.Context, symbols []string) QuotesResponse {
	if len(symbols) == 0 {
		return QuotesResponse{Success: false, Error: "no symbols requested"}
	}

	resolved := m.coordinator.GetMany(ctx, symbols)

	data := make([]quote.Quote, 0, len(resolved))
	seen := make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}
		if q, ok := resolved[symbol]; ok {
			data = append(data, q)
		}
	}

	return QuotesResponse{Success: true, Data: data}
}

// ValidateSymbol reports whether a string resolves to a tradeable ticker:
// plausible classification plus a lightweight provider lookup. The
// boolean outcome is cached.
func (m *MarketData) ValidateSymbol(ctx context.Context, symbol string) bool {
	if v, ok := m.validations.Get(symbol); ok {
		return v
	}

	c := classify.Classify(symbol)
	valid := c.Region != classify.RegionUnknown
	if valid {
		valid = m.router.GetQuote(ctx, symbol).Success
	}

	m.validations.Set(symbol, valid)

	m.logger.Debug("symbol-validated",
		zap.String("symbol", symbol),
		zap.Bool("valid", valid))

	return valid
}

// CacheStats returns a snapshot of the quote cache statistics.
func (m *MarketData) CacheStats() cache.Stats {
	return m.quotes.Stats()
}

// ClearCache drops all cached quotes and validation results.
func (m *MarketData) ClearCache() {
	m.quotes.Clear()
	m.validations.Clear()
}

// HealthCheck probes both providers with a known symbol each and reports
// reachability plus cache state. A probe failure marks the provider
// unhealthy but never errors.
func (m *MarketData) HealthCheck(ctx context.Context) Health {
	h := Health{
		PrimarySource:  m.router.PrimarySource(),
		FallbackSource: m.router.FallbackSource(),
		CacheStats:     m.quotes.Stats(),
	}

	// Probe through the router so each leg exercises its real path:
	// a BR symbol lands on the primary, a US one on the fallback.
	br := m.router.GetQuote(ctx, probeSymbolBR)
	us := m.router.GetQuote(ctx, probeSymbolUS)

	h.Brapi = br.Success && br.Source == m.router.PrimarySource()
	h.Finnhub = us.Success && us.Source == m.router.FallbackSource()

	return h
}
