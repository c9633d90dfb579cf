package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics of the web shell itself
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Upstream REST API metrics
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Latency of calls to the course marketplace API",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	TokenRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_refreshes_total",
			Help: "Silent token refresh attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Query cache metrics
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_lookups_total",
			Help: "Query cache lookups by domain and result (hit, miss, stale, disabled)",
		},
		[]string{"domain", "result"},
	)

	CacheFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_fetches_total",
			Help: "Network fetches issued by the query cache by domain and outcome",
		},
		[]string{"domain", "outcome"},
	)

	CacheRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_retries_total",
			Help: "Query retries scheduled after a failed fetch",
		},
		[]string{"domain"},
	)

	CacheInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_invalidations_total",
			Help: "Invalidated cache entries by domain and origin (local, remote)",
		},
		[]string{"domain", "origin"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "query_cache_entries",
			Help: "Number of entries currently held by the query cache",
		},
	)

	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mutations_total",
			Help: "Mutations by outcome",
		},
		[]string{"outcome"},
	)

	// Session metrics
	SessionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_transitions_total",
			Help: "Session state transitions (login, refresh, logout)",
		},
		[]string{"transition"},
	)

	// Toast channel metrics
	WebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of browsers connected to the notification channel",
		},
	)

	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "User-visible notifications by level",
		},
		[]string{"level"},
	)
)
