package retry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	AttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotegate_retry_operations_total",
		Help: "Total number of operations executed under a retry policy",
	})

	RetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotegate_retry_retries_total",
		Help: "Total number of retry attempts after an initial failure",
	})

	ExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotegate_retry_exhausted_total",
		Help: "Total number of operations that failed after exhausting retries",
	})

	DurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quotegate_retry_operation_duration_seconds",
		Help:    "Duration of successful operations including backoff",
		Buckets: prometheus.DefBuckets,
	})
)
