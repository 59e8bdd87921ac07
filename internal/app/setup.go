package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quotegate/quotegate/internal/batch"
	"github.com/quotegate/quotegate/internal/provider"
	"github.com/quotegate/quotegate/internal/quote"
	"github.com/quotegate/quotegate/internal/router"
	"github.com/quotegate/quotegate/internal/service"
	"github.com/quotegate/quotegate/internal/watch"
	"github.com/quotegate/quotegate/pkg/cache"
	"github.com/quotegate/quotegate/pkg/config"
	"github.com/quotegate/quotegate/pkg/errlog"
	"github.com/quotegate/quotegate/pkg/healthprobe"
	"github.com/quotegate/quotegate/pkg/httpserver"
	"github.com/quotegate/quotegate/pkg/retry"
)

// New builds the full dependency graph from configuration. Construction
// is explicit and caller-controlled; nothing here is a package-level
// singleton.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthprobe.New(),
		ctx:           ctx,
		cancel:        cancel,
	}

	err := a.setupErrlog()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup error log: %w", err)
	}

	err = a.setupMarketData()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup market data: %w", err)
	}

	a.setupWatch()

	a.httpServer = httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: a.healthChecker,
		MarketData:    a.market,
		WatchHub:      a.watchHub,
	})

	return a, nil
}

func (a *App) setupErrlog() error {
	switch a.cfg.ErrlogMode {
	case "file":
		sink, err := errlog.NewFile(a.cfg.ErrlogPath)
		if err != nil {
			return fmt.Errorf("file sink: %w", err)
		}
		a.sink = sink

	case "postgres":
		sink, err := errlog.NewPostgres(&errlog.PostgresConfig{
			Host:     a.cfg.PostgresHost,
			Port:     a.cfg.PostgresPort,
			User:     a.cfg.PostgresUser,
			Password: a.cfg.PostgresPass,
			Database: a.cfg.PostgresDB,
			SSLMode:  a.cfg.PostgresSSL,
			Logger:   a.logger,
		})
		if err != nil {
			return fmt.Errorf("postgres sink: %w", err)
		}
		a.sink = sink

	default:
		a.sink = errlog.NewRing()
	}

	a.logger.Info("errlog-configured", zap.String("mode", a.cfg.ErrlogMode))
	return nil
}

func (a *App) setupMarketData() error {
	a.quotes = cache.NewLRU[quote.Quote](cache.LRUConfig{
		MaxEntries:      a.cfg.CacheMaxEntries,
		DefaultTTL:      a.cfg.CacheTTL,
		CleanupInterval: a.cfg.CacheCleanupInterval,
		TrackStats:      a.cfg.CacheTrackStats,
		Logger:          a.logger.Named("quote-cache"),
	})

	validations, err := cache.NewRistretto[bool](&cache.RistrettoConfig{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
		Logger:      a.logger.Named("validation-cache"),
	})
	if err != nil {
		return fmt.Errorf("validation cache: %w", err)
	}
	a.validations = validations

	executor := retry.New(retry.Config{
		Policy: retry.Policy{
			MaxRetries: a.cfg.RetryMaxRetries,
			BaseDelay:  a.cfg.RetryBaseDelay,
		},
		Logger:    a.logger.Named("retry"),
		Sink:      a.sink,
		Retryable: quote.Retryable,
	})

	rtr, err := router.New(router.Config{
		Primary:   provider.NewBrapi(a.cfg.BrapiBaseURL, a.cfg.BrapiToken, a.logger.Named("brapi")),
		Secondary: provider.NewFinnhub(a.cfg.FinnhubBaseURL, a.cfg.FinnhubToken, a.logger.Named("finnhub")),
		Executor:  executor,
		Logger:    a.logger.Named("router"),
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	coordinator, err := batch.New(batch.Config{
		Fetcher:    rtr,
		Cache:      a.quotes,
		BatchSize:  a.cfg.BatchSize,
		BatchDelay: a.cfg.BatchDelay,
		CacheTTL:   a.cfg.CacheTTL,
		Logger:     a.logger.Named("batch"),
	})
	if err != nil {
		return fmt.Errorf("coordinator: %w", err)
	}

	a.market, err = service.New(service.Config{
		Router:      rtr,
		Coordinator: coordinator,
		Quotes:      a.quotes,
		Validations: a.validations,
		CacheTTL:    a.cfg.CacheTTL,
		Logger:      a.logger.Named("service"),
	})
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}

	return nil
}

func (a *App) setupWatch() {
	a.watchHub = watch.NewHub(a.logger.Named("watch-hub"))

	if len(a.cfg.WatchSymbols) == 0 {
		return
	}

	// Construction cannot fail here: resolver, hub and interval are all
	// validated by config loading.
	watcher, err := watch.New(watch.Config{
		Symbols:  a.cfg.WatchSymbols,
		Interval: a.cfg.WatchRefreshInterval,
		Resolver: a.marketResolver(),
		Hub:      a.watchHub,
		Logger:   a.logger.Named("watcher"),
	})
	if err != nil {
		a.logger.Warn("watcher-setup-failed", zap.Error(err))
		return
	}
	a.watcher = watcher
}

// marketResolver adapts the service's batch path to the watcher.
func (a *App) marketResolver() watch.QuoteResolver {
	return resolverFunc(func(ctx context.Context, symbols []string) map[string]quote.Quote {
		resp := a.market.GetQuotes(ctx, symbols)
		out := make(map[string]quote.Quote, len(resp.Data))
		for _, q := range resp.Data {
			out[q.Symbol] = q
		}
		return out
	})
}

type resolverFunc func(ctx context.Context, symbols []string) map[string]quote.Quote

func (f resolverFunc) GetMany(ctx context.Context, symbols []string) map[string]quote.Quote {
	return f(ctx, symbols)
}
