package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	QuotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quotegate_router_quotes_total",
		Help: "Total number of provider quote fetches by source and outcome",
	}, []string{"source", "outcome"})

	FallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotegate_router_fallbacks_total",
		Help: "Total number of primary-to-secondary provider fallbacks",
	})
)
