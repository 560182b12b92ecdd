// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

// Package metrics holds the Prometheus collectors for Liftsync.
//
// Collectors are registered on the default registry through promauto and
// exposed by the API router at /metrics. Callers prefer the Record* helpers
// over touching collectors directly so label values stay consistent.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of workout store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of failed workout store operations",
		},
		[]string{"backend", "operation"},
	)

	StoreConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_conflicts_total",
			Help: "Conditional inserts rejected because the key already existed",
		},
		[]string{"backend", "kind"}, // kind: "workout", "exercise"
	)

	// API Endpoint Metrics
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
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Backfill Metrics
	BackfillDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backfill_duration_seconds",
			Help:    "Duration of backfill runs in seconds",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	BackfillRecordsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backfill_records_inserted_total",
			Help: "Total number of workouts inserted by backfill runs",
		},
	)

	BackfillPagesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backfill_pages_fetched_total",
			Help: "Total number of upstream pages fetched by backfill runs",
		},
	)

	BackfillRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backfill_runs_total",
			Help: "Total number of backfill runs by stop reason",
		},
		[]string{"stop_reason"}, // "exhausted", "caught_up", "failed"
	)

	BackfillErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backfill_errors_total",
			Help: "Total number of failed backfill runs by error type",
		},
		[]string{"error_type"}, // "upstream", "store", "config", "canceled", "other"
	)

	BackfillLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backfill_last_success_timestamp",
			Help: "Unix timestamp of last successful backfill run",
		},
	)

	BackfillInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backfill_runs_in_flight",
			Help: "Number of backfill runs currently executing",
		},
	)

	// Upstream (Hevy API) Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"endpoint", "status_code"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Upstream API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	UpstreamRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upstream_rate_limited_total",
			Help: "Total number of HTTP 429 responses from the upstream API",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry)",
		},
		[]string{"cache_type"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Total number of entries removed by explicit invalidation",
		},
		[]string{"cache_type"},
	)

	CacheFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_fetch_errors_total",
			Help: "Total number of read-through fetches that failed",
		},
		[]string{"cache_type"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of sync events published",
		},
		[]string{"topic"},
	)

	EventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_publish_errors_total",
			Help: "Total number of sync events that failed to publish",
		},
		[]string{"topic"},
	)

	// Circuit Breaker Metrics
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
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordStoreOperation records the latency and outcome of a store call.
// Conflicts are not errors and should be recorded with RecordStoreConflict.
func RecordStoreOperation(backend, operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(backend, operation).Inc()
	}
}

// RecordStoreConflict counts a rejected conditional insert.
func RecordStoreConflict(backend, kind string) {
	StoreConflicts.WithLabelValues(backend, kind).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordUpstreamRequest records one call to the upstream workout API.
func RecordUpstreamRequest(endpoint string, statusCode int, duration time.Duration) {
	UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	if statusCode == 429 {
		UpstreamRateLimited.Inc()
	}
}

// RecordBackfillRun records the outcome of one backfill run. errorType is
// empty for successful runs.
func RecordBackfillRun(duration time.Duration, inserted, pages int, stopReason, errorType string) {
	BackfillDuration.Observe(duration.Seconds())
	BackfillRecordsInserted.Add(float64(inserted))
	BackfillPagesFetched.Add(float64(pages))
	BackfillRuns.WithLabelValues(stopReason).Inc()
	if errorType != "" {
		BackfillErrors.WithLabelValues(errorType).Inc()
		return
	}
	BackfillLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordEventPublish records a publish attempt for topic.
func RecordEventPublish(topic string, err error) {
	if err != nil {
		EventPublishErrors.WithLabelValues(topic).Inc()
		return
	}
	EventsPublished.WithLabelValues(topic).Inc()
}
