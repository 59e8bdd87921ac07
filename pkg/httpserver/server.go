// Package httpserver exposes the market-data service over HTTP: quote
// endpoints, cache administration, health and readiness probes, metrics
// and the watchlist websocket.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/quotegate/quotegate/internal/service"
	"github.com/quotegate/quotegate/internal/watch"
	"github.com/quotegate/quotegate/pkg/healthprobe"
)

// Server provides the HTTP surface of the application.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// Config holds server configuration.
type Config struct {
	Port          string
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker
	MarketData    *service.MarketData
	WatchHub      *watch.Hub
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Probes and metrics
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	// Market-data API
	qh := newQuoteHandler(cfg.MarketData, cfg.Logger)
	r.Route("/api", func(r chi.Router) {
		r.Get("/quote/{symbol}", qh.handleQuote)
		r.Get("/quotes", qh.handleQuotes)
		r.Get("/validate/{symbol}", qh.handleValidate)
		r.Get("/cache/stats", qh.handleCacheStats)
		r.Delete("/cache", qh.handleClearCache)
		r.Get("/health", qh.handleServiceHealth)
	})

	// Watchlist streaming
	if cfg.WatchHub != nil {
		r.Get("/ws/watch", cfg.WatchHub.ServeHTTP)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server: server,
		logger: cfg.Logger,
	}
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}
