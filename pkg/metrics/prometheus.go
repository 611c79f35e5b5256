// Package metrics provides Prometheus metrics for the userboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Ranking pipeline
	pipelineRuns     prometheus.Counter
	pipelineLatency  prometheus.Histogram
	rankedRecords    prometheus.Gauge
	nanScoredRecords prometheus.Gauge
	snapshotLastUnix prometheus.Gauge

	// Queries against the ranked snapshot
	queries        *prometheus.CounterVec
	queryLatency   prometheus.Histogram
	queryMatches   prometheus.Histogram
	invalidQueries *prometheus.CounterVec

	// User source
	sourceFetches      *prometheus.CounterVec
	sourceFetchLatency *prometheus.HistogramVec
	sourceRetries      prometheus.Counter

	// Periodic refresh
	refreshes *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "userboard",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.pipelineRuns = auto.NewCounter(m.counterOpts("pipeline_runs_total",
		"Total number of score-and-rank passes over a user collection"))
	m.pipelineLatency = auto.NewHistogram(m.histogramOpts("pipeline_latency_milliseconds",
		"Time to normalize, score and rank a user collection", m.histogramBuckets))
	m.rankedRecords = auto.NewGauge(m.gaugeOpts("ranked_records",
		"Number of users in the current ranked snapshot"))
	m.nanScoredRecords = auto.NewGauge(m.gaugeOpts("nan_scored_records",
		"Users in the current snapshot whose score is NaN (unparseable recentlyActive)"))
	m.snapshotLastUnix = auto.NewGauge(m.gaugeOpts("snapshot_last_unix_seconds",
		"Unix time the current snapshot was ranked"))

	m.queries = auto.NewCounterVec(m.counterOpts("queries_total",
		"Total number of page queries by whether a search was applied"), []string{"search"})
	m.queryLatency = auto.NewHistogram(m.histogramOpts("query_latency_milliseconds",
		"Time to filter and paginate a ranked snapshot", m.histogramBuckets))
	m.queryMatches = auto.NewHistogram(m.histogramOpts("query_matches",
		"Number of users matching the search text per query", prometheus.ExponentialBuckets(1, 4, 8)))
	m.invalidQueries = auto.NewCounterVec(m.counterOpts("invalid_queries_total",
		"Queries rejected for invalid view parameters"), []string{"reason"})

	m.sourceFetches = auto.NewCounterVec(m.counterOpts("source_fetches_total",
		"User source fetches by source and result"), []string{"source", "result"})
	m.sourceFetchLatency = auto.NewHistogramVec(m.histogramOpts("source_fetch_latency_milliseconds",
		"User source fetch latency", m.histogramBuckets), []string{"source"})
	m.sourceRetries = auto.NewCounter(m.counterOpts("source_retries_total",
		"Retried user source requests"))

	m.refreshes = auto.NewCounterVec(m.counterOpts("refreshes_total",
		"Fetch-and-rank refreshes by trigger and result"), []string{"trigger", "result"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})
	m.httpErrors = auto.NewCounterVec(m.counterOpts("http_errors_total",
		"HTTP responses with status >= 400 by endpoint and error type"), []string{"endpoint", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes",
		"Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines",
		"Number of goroutines"))
}

// Pipeline Metrics Functions.

// RecordPipelineRun records one score-and-rank pass.
func RecordPipelineRun(latencyMs float64, ranked, nanScored int, atUnix int64) {
	globalManager.pipelineRuns.Inc()
	globalManager.pipelineLatency.Observe(latencyMs)
	globalManager.rankedRecords.Set(float64(ranked))
	globalManager.nanScoredRecords.Set(float64(nanScored))
	globalManager.snapshotLastUnix.Set(float64(atUnix))
}

// Query Metrics Functions.

// RecordQuery records a successful page query.
func RecordQuery(searched bool, matches int, latencyMs float64) {
	label := "none"
	if searched {
		label = "text"
	}
	globalManager.queries.WithLabelValues(label).Inc()
	globalManager.queryMatches.Observe(float64(matches))
	globalManager.queryLatency.Observe(latencyMs)
}

// RecordInvalidQuery records a query rejected for reason.
func RecordInvalidQuery(reason string) {
	globalManager.invalidQueries.WithLabelValues(reason).Inc()
}

// Source Metrics Functions.

// RecordSourceFetch records a fetch outcome for source.
func RecordSourceFetch(source string, ok bool, latencyMs float64) {
	result := "ok"
	if !ok {
		result = "error"
	}
	globalManager.sourceFetches.WithLabelValues(source, result).Inc()
	globalManager.sourceFetchLatency.WithLabelValues(source).Observe(latencyMs)
}

// RecordSourceRetry increments the retry counter.
func RecordSourceRetry() {
	globalManager.sourceRetries.Inc()
}

// Refresh Metrics Functions.

// RecordRefresh records a refresh started by trigger ("periodic", "manual" or "startup").
func RecordRefresh(trigger string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	globalManager.refreshes.WithLabelValues(trigger, result).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType).Inc()
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
