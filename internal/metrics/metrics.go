// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Source acquisition

	SourceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscope_source_requests_total",
			Help: "Upstream platform API requests by outcome",
		},
		[]string{"platform", "outcome"},
	)

	SourceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trendscope_source_request_duration_seconds",
			Help:    "Duration of upstream platform API requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"platform"},
	)

	SourceRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscope_source_retries_total",
			Help: "Retries scheduled after transient upstream failures",
		},
		[]string{"platform"},
	)

	SourceFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscope_source_fallbacks_total",
			Help: "Fetches routed to the scraping fallback, by reason",
		},
		[]string{"platform", "reason"},
	)

	// Cache

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscope_cache_lookups_total",
			Help: "Trend cache lookups by result (hit, miss, expired)",
		},
		[]string{"result"},
	)

	CacheFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscope_cache_fetches_total",
			Help: "Fetches issued on cache miss; shared means the caller joined an in-flight fetch",
		},
		[]string{"mode"},
	)

	CacheStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscope_cache_store_errors_total",
			Help: "Backing store failures degraded to cache misses",
		},
		[]string{"operation"},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trendscope_cache_evictions_total",
			Help: "Expired entries removed by lazy eviction or sweep",
		},
	)

	// Circuit breakers

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Rate budgets

	RateLimitDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscope_rate_limit_decisions_total",
			Help: "Rate budget decisions (granted, deferred, drained, rejected)",
		},
		[]string{"platform", "decision"},
	)

	RateLimitQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trendscope_rate_limit_queue_depth",
			Help: "Requests waiting for the next rate window",
		},
		[]string{"platform"},
	)

	// Scraper

	ScrapeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscope_scrape_requests_total",
			Help: "Scrape attempts by outcome (ok, forbidden, error)",
		},
		[]string{"platform", "outcome"},
	)

	// Engine

	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trendscope_query_duration_seconds",
			Help:    "End-to-end duration of FetchTrends",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	PlatformResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscope_platform_results_total",
			Help: "Per-platform query results by status and error code",
		},
		[]string{"platform", "status", "code"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscope_events_published_total",
			Help: "Fresh trend snapshots pushed to subscribers",
		},
		[]string{"sink", "result"},
	)

	// HTTP API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)
)

// RecordSourceRequest records one upstream API call.
func RecordSourceRequest(platform, outcome string, duration time.Duration) {
	SourceRequests.WithLabelValues(platform, outcome).Inc()
	SourceRequestDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache read result.
func RecordCacheLookup(result string) {
	CacheLookups.WithLabelValues(result).Inc()
}

// RecordPlatformResult records the final status of one platform within a query.
func RecordPlatformResult(platform, status, code string) {
	PlatformResults.WithLabelValues(platform, status, code).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
