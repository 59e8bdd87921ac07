package watch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quotegate/quotegate/internal/quote"
)

// QuoteResolver resolves a symbol list into quotes; implemented by the
// batch coordinator.
type QuoteResolver interface {
	GetMany(ctx context.Context, symbols []string) map[string]quote.Quote
}

// Frame is the message pushed to subscribers on every refresh.
type Frame struct {
	Type      string        `json:"type"`
	Quotes    []quote.Quote `json:"quotes"`
	Timestamp time.Time     `json:"timestamp"`
}

// Watcher refreshes a fixed symbol list on an interval and broadcasts
// the result to the hub.
type Watcher struct {
	symbols  []string
	interval time.Duration
	resolver QuoteResolver
	hub      *Hub
	logger   *zap.Logger
}

// Config holds watcher configuration.
type Config struct {
	Symbols  []string
	Interval time.Duration
	Resolver QuoteResolver
	Hub      *Hub
	Logger   *zap.Logger
}

// New creates a watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("resolver cannot be nil")
	}
	if cfg.Hub == nil {
		return nil, fmt.Errorf("hub cannot be nil")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Watcher{
		symbols:  cfg.Symbols,
		interval: cfg.Interval,
		resolver: cfg.Resolver,
		hub:      cfg.Hub,
		logger:   cfg.Logger,
	}, nil
}

// Start begins the refresh loop. It runs until the context is cancelled.
// With an empty symbol list the watcher is a no-op.
func (w *Watcher) Start(ctx context.Context) {
	if len(w.symbols) == 0 {
		w.logger.Info("watcher-disabled", zap.String("reason", "no symbols configured"))
		return
	}

	w.logger.Info("watcher-started",
		zap.Strings("symbols", w.symbols),
		zap.Duration("interval", w.interval))

	w.refresh(ctx)
	go w.loop(ctx)
}

func (w *Watcher) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher-stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *Watcher) refresh(ctx context.Context) {
	resolved := w.resolver.GetMany(ctx, w.symbols)
	RefreshesTotal.Inc()

	quotes := make([]quote.Quote, 0, len(resolved))
	for _, symbol := range w.symbols {
		if q, ok := resolved[symbol]; ok {
			quotes = append(quotes, q)
		}
	}

	w.logger.Debug("watchlist-refreshed",
		zap.Int("requested", len(w.symbols)),
		zap.Int("resolved", len(quotes)))

	w.hub.Broadcast(Frame{
		Type:      "quotes",
		Quotes:    quotes,
		Timestamp: time.Now().UTC(),
	})
}
