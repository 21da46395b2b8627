package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "melina_board_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "melina_board_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Board server metrics
	BoardWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "melina_board_writes_total",
			Help: "Total board documents written",
		},
		[]string{"source"}, // "http", "ws" or "relay"
	)

	Broadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "melina_board_broadcasts_total",
			Help: "Total board updates fanned out to subscribers",
		},
	)

	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "melina_board_websocket_connections",
			Help: "Open websocket connections",
		},
	)

	ImagesImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "melina_board_images_imported_total",
			Help: "Total images imported",
		},
		[]string{"format"},
	)

	// Client sync metrics
	SyncWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "melina_board_sync_writes_total",
			Help: "Total debounced document writes to the remote channel",
		},
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "melina_board_sync_errors_total",
			Help: "Total remote channel failures",
		},
		[]string{"op"}, // "read", "write", "subscribe", "decode"
	)

	RemoteApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "melina_board_remote_applied_total",
			Help: "Total remote documents that replaced local state",
		},
	)

	CodecFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "melina_board_codec_failures_total",
			Help: "Total state tokens that failed to decode",
		},
	)

	// Infrastructure metrics
	RedisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "melina_board_redis_latency_seconds",
			Help:    "Redis operation latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		},
	)
)
