// Package metrics provides Prometheus metrics for the strokes-gained engine.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets are shared by every millisecond histogram.
var latencyBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500} //nolint:gochecknoglobals // immutable bucket layout

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Shot ingestion
	shotsSubmitted     prometheus.Counter
	shotsRejected      *prometheus.CounterVec
	submissionsDup     prometheus.Counter
	shotReplaceLatency prometheus.Histogram

	// Strokes-gained computation
	sgResults       *prometheus.CounterVec
	baselineLookups *prometheus.CounterVec
	baselineErrors  *prometheus.CounterVec
	baselineModels  prometheus.Gauge

	// Leaderboard and aggregates
	leaderboardQueries *prometheus.CounterVec
	leaderboardLatency prometheus.Histogram
	leaderboardRows    prometheus.Gauge
	rollingQueries     prometheus.Counter

	// Repository
	repositoryLatency *prometheus.HistogramVec
	dataUnavailable   *prometheus.CounterVec
	repositoryRetries prometheus.Counter

	// Worker pool
	workerJobs    prometheus.Counter
	workerLatency prometheus.Histogram
	workerCount   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "sgengine",
		subsystem:        "core",
		histogramBuckets: latencyBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// SetEnabled turns the global recorders on or off.
func SetEnabled(enabled bool) { globalManager.enabled.Store(enabled) }

// Enabled reports whether the global recorders write to their collectors.
func Enabled() bool { return globalManager.enabled.Load() }

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: m.histogramBuckets, ConstLabels: m.customLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.shotsSubmitted = auto.NewCounter(m.counterOpts("shots_submitted_total", "Shots accepted by the normalizer"))
	m.shotsRejected = auto.NewCounterVec(m.counterOpts("shots_rejected_total", "Shot submissions rejected by validation, by field"), []string{"field"})
	m.submissionsDup = auto.NewCounter(m.counterOpts("submissions_duplicate_total", "Shot submissions short-circuited by submission id"))
	m.shotReplaceLatency = auto.NewHistogram(m.histogramOpts("shot_replace_latency_milliseconds", "Latency of replace-all shot writes"))

	m.sgResults = auto.NewCounterVec(m.counterOpts("sg_results_total", "Strokes-gained results computed, by category"), []string{"category"})
	m.baselineLookups = auto.NewCounterVec(m.counterOpts("baseline_lookups_total", "Baseline curve lookups, by curve kind"), []string{"kind"})
	m.baselineErrors = auto.NewCounterVec(m.counterOpts("baseline_errors_total", "Baseline failures, by error type"), []string{"type"})
	m.baselineModels = auto.NewGauge(m.gaugeOpts("baseline_models", "Number of loaded baseline models"))

	m.leaderboardQueries = auto.NewCounterVec(m.counterOpts("leaderboard_queries_total", "Leaderboard queries, by scope"), []string{"scope"})
	m.leaderboardLatency = auto.NewHistogram(m.histogramOpts("leaderboard_latency_milliseconds", "End-to-end leaderboard query latency"))
	m.leaderboardRows = auto.NewGauge(m.gaugeOpts("leaderboard_rows", "Rows returned by the most recent leaderboard query"))
	m.rollingQueries = auto.NewCounter(m.counterOpts("rolling_queries_total", "Rolling average queries"))

	m.repositoryLatency = auto.NewHistogramVec(m.histogramOpts("repository_latency_milliseconds", "Repository operation latency, by operation"), []string{"op"})
	m.dataUnavailable = auto.NewCounterVec(m.counterOpts("data_unavailable_total", "Repository calls that failed as unavailable, by operation"), []string{"op"})
	m.repositoryRetries = auto.NewCounter(m.counterOpts("repository_retries_total", "Retries issued after data-unavailable failures"))

	m.workerJobs = auto.NewCounter(m.counterOpts("worker_jobs_total", "Jobs completed by the fan-out pool"))
	m.workerLatency = auto.NewHistogram(m.histogramOpts("worker_job_latency_milliseconds", "Per-job latency in the fan-out pool"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured fan-out pool size"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component and type"), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total", "Errors by type and severity"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds"))
}

// Shot ingestion.

// RecordShotsSubmitted adds n accepted shots.
func RecordShotsSubmitted(n int) {
	if !Enabled() {
		return
	}
	globalManager.shotsSubmitted.Add(float64(n))
}

// RecordShotRejected counts a validation failure on field.
func RecordShotRejected(field string) {
	if !Enabled() {
		return
	}
	globalManager.shotsRejected.WithLabelValues(field).Inc()
}

// RecordSubmissionDuplicate counts a repeated submission id.
func RecordSubmissionDuplicate() {
	if !Enabled() {
		return
	}
	globalManager.submissionsDup.Inc()
}

// RecordShotReplaceLatency records the latency of one replace-all write.
func RecordShotReplaceLatency(latencyMs float64) {
	if !Enabled() {
		return
	}
	globalManager.shotReplaceLatency.Observe(latencyMs)
}

// Strokes gained.

// RecordSGResult counts one computed result in category.
func RecordSGResult(category string) {
	if !Enabled() {
		return
	}
	globalManager.sgResults.WithLabelValues(category).Inc()
}

// RecordBaselineLookup counts one curve lookup of kind.
func RecordBaselineLookup(kind string) {
	if !Enabled() {
		return
	}
	globalManager.baselineLookups.WithLabelValues(kind).Inc()
}

// RecordBaselineError counts a baseline failure such as model_not_found.
func RecordBaselineError(errorType string) {
	if !Enabled() {
		return
	}
	globalManager.baselineErrors.WithLabelValues(errorType).Inc()
}

// UpdateBaselineModels sets the number of loaded models.
func UpdateBaselineModels(count int) {
	if !Enabled() {
		return
	}
	globalManager.baselineModels.Set(float64(count))
}

// Leaderboard and aggregates.

// RecordLeaderboardQuery counts a leaderboard query for scope.
func RecordLeaderboardQuery(scope string) {
	if !Enabled() {
		return
	}
	globalManager.leaderboardQueries.WithLabelValues(scope).Inc()
}

// RecordLeaderboardLatency records end-to-end leaderboard latency.
func RecordLeaderboardLatency(latencyMs float64) {
	if !Enabled() {
		return
	}
	globalManager.leaderboardLatency.Observe(latencyMs)
}

// UpdateLeaderboardRows sets the size of the latest leaderboard.
func UpdateLeaderboardRows(count int) {
	if !Enabled() {
		return
	}
	globalManager.leaderboardRows.Set(float64(count))
}

// RecordRollingQuery counts a rolling average query.
func RecordRollingQuery() {
	if !Enabled() {
		return
	}
	globalManager.rollingQueries.Inc()
}

// Repository.

// RecordRepositoryLatency records the latency of op.
func RecordRepositoryLatency(op string, latencyMs float64) {
	if !Enabled() {
		return
	}
	globalManager.repositoryLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordDataUnavailable counts an unavailable failure for op.
func RecordDataUnavailable(op string) {
	if !Enabled() {
		return
	}
	globalManager.dataUnavailable.WithLabelValues(op).Inc()
}

// RecordRepositoryRetry counts one retry.
func RecordRepositoryRetry() {
	if !Enabled() {
		return
	}
	globalManager.repositoryRetries.Inc()
}

// Worker pool.

// RecordWorkerJob records one completed job and its latency.
func RecordWorkerJob(latencyMs float64) {
	if !Enabled() {
		return
	}
	globalManager.workerJobs.Inc()
	globalManager.workerLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the pool size.
func UpdateWorkerCount(count int) {
	if !Enabled() {
		return
	}
	globalManager.workerCount.Set(float64(count))
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !Enabled() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !Enabled() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !Enabled() {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if !Enabled() {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !Enabled() {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !Enabled() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !Enabled() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !Enabled() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Since returns the elapsed milliseconds since start as a float.
func Since(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
