package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	HitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotegate_cache_hits_total",
		Help: "Total number of cache hits",
	})

	MissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotegate_cache_misses_total",
		Help: "Total number of cache misses",
	})

	SetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotegate_cache_sets_total",
		Help: "Total number of cache sets",
	})

	DeletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotegate_cache_deletes_total",
		Help: "Total number of cache deletes",
	})

	EvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotegate_cache_evictions_total",
		Help: "Total number of entries evicted by the size bound",
	})

	SweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotegate_cache_sweeps_total",
		Help: "Total number of background expiry sweeps",
	})

	ErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotegate_cache_errors_total",
		Help: "Total number of swallowed cache errors",
	})
)
