// Package router selects market-data providers per symbol and owns the
// fallback path between them.
package router

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quotegate/quotegate/internal/classify"
	"github.com/quotegate/quotegate/internal/provider"
	"github.com/quotegate/quotegate/internal/quote"
	"github.com/quotegate/quotegate/pkg/retry"
)

// brSuffix is the region transform applied to B3 symbols before handing
// them to the global provider (PETR4 -> PETR4.SA).
const brSuffix = ".SA"

// Router classifies a symbol, picks an ordered provider list and runs
// each call under the retry executor. The quote that comes back carries
// the source that actually produced it, which is how callers observe
// fallback behavior.
type Router struct {
	primary   provider.Provider
	secondary provider.Provider
	executor  *retry.Executor
	logger    *zap.Logger
}

// Config holds router configuration.
type Config struct {
	// Primary is the BR-oriented provider tried first for B3 symbols.
	Primary provider.Provider

	// Secondary is the global provider: the fallback for BR symbols and
	// the direct source for US and unknown ones.
	Secondary provider.Provider

	Executor *retry.Executor
	Logger   *zap.Logger
}

// New creates a router.
func New(cfg Config) (*Router, error) {
	if cfg.Primary == nil {
		return nil, fmt.Errorf("primary provider cannot be nil")
	}
	if cfg.Secondary == nil {
		return nil, fmt.Errorf("secondary provider cannot be nil")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Router{
		primary:   cfg.Primary,
		secondary: cfg.Secondary,
		executor:  cfg.Executor,
		logger:    cfg.Logger,
	}, nil
}

// PrimarySource returns the primary provider's source identifier.
func (r *Router) PrimarySource() string { return r.primary.Name() }

// FallbackSource returns the secondary provider's source identifier.
func (r *Router) FallbackSource() string { return r.secondary.Name() }

// GetQuote resolves one symbol through the routing order. BR-classified
// symbols try the primary provider first and fall back to the secondary
// with the region suffix applied; everything else goes straight to the
// secondary. Each provider call is individually retried; a validation
// failure skips straight to the next provider instead of backing off.
func (r *Router) GetQuote(ctx context.Context, symbol string) retry.Result[quote.Quote] {
	c := classify.Classify(symbol)

	r.logger.Debug("routing-symbol",
		zap.String("symbol", symbol),
		zap.String("region", string(c.Region)),
		zap.Float64("confidence", c.Confidence))

	if c.Region == classify.RegionBR {
		res := r.fetch(ctx, r.primary, symbol, symbol)
		if res.Success {
			return res
		}

		FallbacksTotal.Inc()
		r.logger.Warn("provider-fallback",
			zap.String("symbol", symbol),
			zap.String("from", r.primary.Name()),
			zap.String("to", r.secondary.Name()),
			zap.Error(res.Err))

		return r.fetch(ctx, r.secondary, symbol, symbol+brSuffix)
	}

	return r.fetch(ctx, r.secondary, symbol, symbol)
}

// fetch runs one provider call under the retry executor. The quote keeps
// the caller's symbol even when a transformed one went over the wire.
func (r *Router) fetch(ctx context.Context, p provider.Provider, symbol, wireSymbol string) retry.Result[quote.Quote] {
	name := fmt.Sprintf("%s:%s", p.Name(), wireSymbol)

	res := retry.Do(ctx, r.executor, name, func(ctx context.Context) (quote.Quote, error) {
		return p.Quote(ctx, wireSymbol)
	})
	res.Source = p.Name()

	if res.Success {
		res.Data.Symbol = symbol
		QuotesTotal.WithLabelValues(p.Name(), "success").Inc()
	} else {
		QuotesTotal.WithLabelValues(p.Name(), "failure").Inc()
	}

	return res
}
