package watch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	SubscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quotegate_watch_subscribers",
		Help: "Current number of websocket watchlist subscribers",
	})

	FramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotegate_watch_frames_total",
		Help: "Total number of frames broadcast to subscribers",
	})

	RefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotegate_watch_refreshes_total",
		Help: "Total number of watchlist refresh cycles",
	})
)
