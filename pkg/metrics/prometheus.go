// Package metrics provides Prometheus metrics for the rugbysim engine and service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Engine
	trialsTotal          prometheus.Counter
	turnoversTotal       *prometheus.CounterVec
	saturatedTotal       prometheus.Counter
	aggregateLatency     prometheus.Histogram
	recommendationsTotal *prometheus.CounterVec
	reviewsTotal         *prometheus.CounterVec
	treeAdvancesTotal    *prometheus.CounterVec

	// Scans
	scansTotal     *prometheus.CounterVec
	scanLatency    prometheus.Histogram
	scansDuplicate prometheus.Counter
	storedScans    prometheus.Gauge

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueTotal      prometheus.Counter
	queueDequeueTotal      prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerBusyCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rugbysim",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if !m.enabled {
		// collectors stay usable but are never exported
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval is how often gauges fed by polling should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// RefreshInterval returns the refresh interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.trialsTotal = m.counter("trials_total", "Monte Carlo trials executed")
	m.turnoversTotal = m.counterVec("turnovers_total", "Trial turnovers by cause (matchup, execution)", "cause")
	m.saturatedTotal = m.counter("saturated_probability_total", "Trials whose turnover probability exceeded 1 before clamping")
	m.aggregateLatency = m.histogram("aggregate_latency_milliseconds", "Latency of one play aggregation in milliseconds")
	m.recommendationsTotal = m.counterVec("recommendations_total", "Recommendations issued by play", "play")
	m.reviewsTotal = m.counterVec("reviews_total", "Reviewed calls by classification", "classification")
	m.treeAdvancesTotal = m.counterVec("tree_advances_total", "Decision tree transitions by result", "result")

	m.scansTotal = m.counterVec("scans_total", "Scans finished by status", "status")
	m.scanLatency = m.histogram("scan_latency_milliseconds", "End-to-end scan latency in milliseconds")
	m.scansDuplicate = m.counter("scans_duplicate_total", "Scan submissions rejected as duplicates")
	m.storedScans = m.gauge("stored_scans", "Scans currently held by the result store")

	m.queueSize = m.gauge("queue_size", "Current number of queued scans")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued scans")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueueTotal = m.counter("queue_enqueue_total", "Scans enqueued")
	m.queueDequeueTotal = m.counter("queue_dequeue_total", "Scans dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Rejected enqueue attempts")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Enqueue latency in milliseconds")

	m.workerCount = m.gauge("worker_count", "Configured scan workers")
	m.workerBusyCount = m.gauge("worker_busy_count", "Workers currently running a scan")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker time per scan in milliseconds")
	m.workerErrors = m.counter("worker_errors_total", "Scans that ended in an error")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("http_request_duration_milliseconds"),
		Help: "HTTP request duration in milliseconds", ConstLabels: m.customLabels, Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

// Engine metrics.

// RecordTrials adds n executed trials.
func RecordTrials(n int) {
	globalManager.trialsTotal.Add(float64(n))
}

// RecordTurnovers adds n turnovers for the given cause.
func RecordTurnovers(cause string, n int) {
	if n <= 0 {
		return
	}
	globalManager.turnoversTotal.WithLabelValues(cause).Add(float64(n))
}

// RecordSaturated adds n trials with a clamped turnover probability.
func RecordSaturated(n int) {
	if n <= 0 {
		return
	}
	globalManager.saturatedTotal.Add(float64(n))
}

// RecordAggregateLatency records the latency of one aggregation.
func RecordAggregateLatency(latencyMs float64) {
	globalManager.aggregateLatency.Observe(latencyMs)
}

// RecordRecommendation counts a recommendation of play.
func RecordRecommendation(play string) {
	globalManager.recommendationsTotal.WithLabelValues(play).Inc()
}

// RecordReview counts a reviewer verdict.
func RecordReview(classification string) {
	globalManager.reviewsTotal.WithLabelValues(classification).Inc()
}

// RecordTreeAdvance counts a decision tree transition ("ok" or "unknown_trigger").
func RecordTreeAdvance(result string) {
	globalManager.treeAdvancesTotal.WithLabelValues(result).Inc()
}

// Scan metrics.

// RecordScan counts a finished scan by status.
func RecordScan(status string) {
	globalManager.scansTotal.WithLabelValues(status).Inc()
}

// RecordScanLatency records end-to-end scan latency.
func RecordScanLatency(latencyMs float64) {
	globalManager.scanLatency.Observe(latencyMs)
}

// RecordScanDuplicate counts a duplicate scan submission.
func RecordScanDuplicate() {
	globalManager.scansDuplicate.Inc()
}

// UpdateStoredScans sets the number of stored scans.
func UpdateStoredScans(n int) {
	globalManager.storedScans.Set(float64(n))
}

// Queue metrics.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueTotal.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueTotal.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records enqueue latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker metrics.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerBusy moves the busy worker gauge by delta.
func AddWorkerBusy(delta int) {
	globalManager.workerBusyCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records worker time per scan.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an HTTP error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by the package helpers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
