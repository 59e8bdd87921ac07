// Package app wires the application together and owns its lifecycle.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/quotegate/quotegate/internal/quote"
	"github.com/quotegate/quotegate/internal/service"
	"github.com/quotegate/quotegate/internal/watch"
	"github.com/quotegate/quotegate/pkg/cache"
	"github.com/quotegate/quotegate/pkg/config"
	"github.com/quotegate/quotegate/pkg/errlog"
	"github.com/quotegate/quotegate/pkg/healthprobe"
	"github.com/quotegate/quotegate/pkg/httpserver"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server

	quotes      *cache.LRU[quote.Quote]
	validations cache.Store[bool]
	sink        errlog.Sink
	market      *service.MarketData
	watchHub    *watch.Hub
	watcher     *watch.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}
