// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/eventsync/internal/models"
)

var (
	// Event store metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventstore_query_duration_seconds",
			Help:    "Duration of event store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventstore_query_errors_total",
			Help: "Total number of event store query errors",
		},
		[]string{"driver", "operation", "error_type"}, // slug_conflict, source_conflict, not_found, other
	)

	// API metrics
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
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120, 600}, // sync triggers block for the whole run
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

	// Sync run metrics
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total number of sync runs by result",
		},
		[]string{"result"}, // ok, warnings, fatal
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		},
	)

	SyncItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_items_total",
			Help: "Total number of listings processed by outcome",
		},
		[]string{"outcome"}, // created, updated, skipped, invalid
	)

	SyncListingsFetched = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_listings_fetched",
			Help:    "Number of listings returned per area fetch",
			Buckets: []float64{0, 10, 25, 50, 100, 200},
		},
	)

	SyncFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_fetch_errors_total",
			Help: "Total number of failed area fetches",
		},
		[]string{"area"},
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp",
			Help: "Unix timestamp of the last run that finished without errors",
		},
	)

	SyncInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_in_progress",
			Help: "1 while a sync run is executing",
		},
	)

	// Upstream client metrics
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of listing source requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	UpstreamRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upstream_rate_limit_retries_total",
			Help: "Total number of retries after HTTP 429 responses",
		},
	)

	// Lookup cache metrics
	LookupCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lookup_cache_hits_total",
			Help: "Total number of source id lookups served from cache",
		},
	)

	LookupCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lookup_cache_misses_total",
			Help: "Total number of source id lookups that hit the store",
		},
	)

	// Circuit breaker metrics
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

	// Publisher metrics
	PublisherMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publisher_messages_total",
			Help: "Total number of EventSynced messages by result",
		},
		[]string{"result"}, // published, failed
	)
)

// RecordDBQuery records an event store query.
func RecordDBQuery(driver, operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(driver, operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(driver, operation, classifyStoreError(err)).Inc()
	}
}

func classifyStoreError(err error) string {
	switch {
	case errors.Is(err, models.ErrSlugConflict):
		return "slug_conflict"
	case errors.Is(err, models.ErrSourceConflict):
		return "source_conflict"
	case errors.Is(err, models.ErrEventNotFound):
		return "not_found"
	default:
		return "other"
	}
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSyncRun records the outcome of a completed run.
func RecordSyncRun(report *models.SyncReport, duration time.Duration) {
	SyncDuration.Observe(duration.Seconds())
	SyncItemsTotal.WithLabelValues(string(models.OutcomeCreated)).Add(float64(report.Created))
	SyncItemsTotal.WithLabelValues(string(models.OutcomeUpdated)).Add(float64(report.Updated))
	SyncItemsTotal.WithLabelValues(string(models.OutcomeSkipped)).Add(float64(report.Skipped))
	SyncItemsTotal.WithLabelValues("invalid").Add(float64(report.Invalid))

	if report.OK() {
		SyncRunsTotal.WithLabelValues("ok").Inc()
		SyncLastSuccess.Set(float64(report.FinishedAt.Unix()))
		return
	}
	SyncRunsTotal.WithLabelValues("warnings").Inc()
}

// RecordSyncFatal records a run aborted by a configuration error.
func RecordSyncFatal() {
	SyncRunsTotal.WithLabelValues("fatal").Inc()
}

// RecordAreaFetch records one area fetch.
func RecordAreaFetch(area string, fetched int, err error) {
	if err != nil {
		SyncFetchErrors.WithLabelValues(area).Inc()
		return
	}
	SyncListingsFetched.Observe(float64(fetched))
}

// RecordLookup records whether a source id lookup was served from cache.
func RecordLookup(cached bool) {
	if cached {
		LookupCacheHits.Inc()
	} else {
		LookupCacheMisses.Inc()
	}
}

// RecordPublish records one EventSynced publish attempt.
func RecordPublish(err error) {
	if err != nil {
		PublisherMessages.WithLabelValues("failed").Inc()
		return
	}
	PublisherMessages.WithLabelValues("published").Inc()
}
