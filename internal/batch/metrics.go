package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	ChunksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotegate_batch_chunks_total",
		Help: "Total number of batch chunks dispatched to providers",
	})

	SymbolFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotegate_batch_symbol_failures_total",
		Help: "Total number of symbols that failed inside a batch chunk",
	})
)
