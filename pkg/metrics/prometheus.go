// Package metrics provides Prometheus metrics for the sopmatch service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the sopmatch service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	sizeBuckets      []float64
	registry         prometheus.Registerer

	// Matching
	matchRequests  *prometheus.CounterVec
	matchLatency   prometheus.Histogram
	vocabularySize prometheus.Histogram
	poolSize       prometheus.Gauge
	topScore       prometheus.Histogram

	// Submissions and assignments
	submissionsStored *prometheus.CounterVec
	submissionsTotal  prometheus.Gauge
	assignments       *prometheus.CounterVec

	// Registry snapshots
	registrySnapshots       prometheus.Counter
	registrySnapshotVersion prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Batch queue
	queueCapacity     prometheus.Gauge
	queueSize         prometheus.Gauge
	queueUtilization  prometheus.Gauge
	queueEnqueued     prometheus.Counter
	queueDequeued     prometheus.Counter
	queueEnqueueError prometheus.Counter

	// Batch workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

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
		namespace:        "sopmatch",
		subsystem:        "matcher",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		sizeBuckets:      prometheus.ExponentialBuckets(16, 2, 12),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.matchRequests = m.counterVec("match_requests_total", "Matching calls by outcome", "outcome")
	m.matchLatency = m.histogram("match_latency_milliseconds", "Latency of a full matching call in milliseconds", m.histogramBuckets)
	m.vocabularySize = m.histogram("vocabulary_size", "Number of unigram/bigram features built per matching call", m.sizeBuckets)
	m.poolSize = m.gauge("reviewer_pool_size", "Reviewers in the latest registry snapshot")
	m.topScore = m.histogram("top_composite_score", "Composite score of the best-ranked reviewer per call",
		prometheus.LinearBuckets(0, 0.1, 11))

	m.submissionsStored = m.counterVec("submissions_stored_total", "Submissions stored by action", "action")
	m.submissionsTotal = m.gauge("submissions", "Submissions currently held by the store")
	m.assignments = m.counterVec("assignments_total", "Assignment operations by action", "action")

	m.registrySnapshots = m.counter("registry_snapshots_total", "Registry snapshots published")
	m.registrySnapshotVersion = m.gauge("registry_snapshot_version", "Version of the latest registry snapshot")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")

	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the batch match queue")
	m.queueSize = m.gauge("queue_size", "Jobs waiting in the batch match queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Batch queue fill ratio (0-1)")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Jobs accepted by the batch queue")
	m.queueDequeued = m.counter("queue_dequeued_total", "Jobs taken off the batch queue")
	m.queueEnqueueError = m.counter("queue_enqueue_errors_total", "Jobs rejected by the batch queue")

	m.workerCount = m.gauge("worker_count", "Configured batch workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Batch workers currently processing a job")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Batch job processing latency",
		m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Batch jobs that failed")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and error type",
		"component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and error type",
		"endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of requests that ended in an error",
		"component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds", m.histogramBuckets)
}

// Matching.

func RecordMatchRequest(outcome string) {
	globalManager.matchRequests.WithLabelValues(outcome).Inc()
}

func RecordMatchLatency(latencyMs float64) {
	globalManager.matchLatency.Observe(latencyMs)
}

func RecordVocabularySize(size int) {
	globalManager.vocabularySize.Observe(float64(size))
}

func UpdatePoolSize(size int) {
	globalManager.poolSize.Set(float64(size))
}

func RecordTopScore(score float64) {
	globalManager.topScore.Observe(score)
}

// Submissions and assignments.

func RecordSubmissionStored(action string) {
	globalManager.submissionsStored.WithLabelValues(action).Inc()
}

func UpdateSubmissionsTotal(count int) {
	globalManager.submissionsTotal.Set(float64(count))
}

func RecordAssignment(action string) {
	globalManager.assignments.WithLabelValues(action).Inc()
}

// Registry.

func RecordRegistrySnapshot(version uint64) {
	globalManager.registrySnapshots.Inc()
	globalManager.registrySnapshotVersion.Set(float64(version))
}

// HTTP.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue.

func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

func RecordQueueEnqueueError() {
	globalManager.queueEnqueueError.Inc()
}

// Workers.

func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

func AddWorkerActive(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Errors.

func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System.

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
