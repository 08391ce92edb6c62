// Package metrics provides Prometheus metrics for the EcoProof verification service.
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

// Manager manages all Prometheus metrics for the EcoProof service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Core Business Metrics - verification outcomes
	verificationsTotal      *prometheus.CounterVec
	verificationDuplicates  prometheus.Counter
	verificationLatency     prometheus.Histogram
	inferenceLatency        prometheus.Histogram
	subcheckLatency         *prometheus.HistogramVec
	subcheckDegraded        *prometheus.CounterVec

	// Operational Health Metrics
	queueSize     prometheus.Gauge
	workerCount   prometheus.Gauge
	hashStoreSize prometheus.Gauge
	resultsStored prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue Metrics - job queue performance
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueDequeueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker Metrics - processing performance
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Error Metrics - detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ecoproof",
		subsystem:        "verify",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.register()
	return m
}

// register creates all metric collectors against the configured registry.
func (m *Manager) register() {
	factory := promauto.With(m.registry)

	m.verificationsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "verifications_total",
		Help:      "Total verifications processed, labeled by outcome.",
	}, []string{"outcome"})

	m.verificationDuplicates = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_images_total",
		Help:      "Total submissions rejected as perceptual-hash duplicates.",
	})

	m.verificationLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "verification_latency_ms",
		Help:      "End-to-end verification latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.inferenceLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "inference_latency_ms",
		Help:      "Model inference latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.subcheckLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "subcheck_latency_ms",
		Help:      "Per-signal sub-check latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"signal"})

	m.subcheckDegraded = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "subcheck_degraded_total",
		Help:      "Sub-checks that failed and fell back to their safest default.",
	}, []string{"signal"})

	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of queued verification jobs.",
	})

	m.workerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Configured number of verification workers.",
	})

	m.hashStoreSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hash_store_size",
		Help:      "Number of fingerprints in the seen-hash store.",
	})

	m.resultsStored = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_stored",
		Help:      "Number of verification results held by the results store.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured queue capacity.",
	})

	m.queueUtilization = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization",
		Help:      "Queue utilization ratio (0-1).",
	})

	m.queueEnqueueRate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_total",
		Help:      "Total jobs enqueued.",
	})

	m.queueDequeueRate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeue_total",
		Help:      "Total jobs dequeued.",
	})

	m.queueEnqueueErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Enqueue attempts rejected (full, closed or cancelled).",
	})

	m.queueDequeueErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeue_errors_total",
		Help:      "Dequeue failures.",
	})

	m.queueProcessingLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_processing_latency_ms",
		Help:      "Enqueue call latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.workerActiveCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of active workers.",
	})

	m.workerIdleCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_idle_count",
		Help:      "Number of idle workers.",
	})

	m.workerMessagesPerSecond = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_jobs_per_second",
		Help:      "Jobs processed per second across the pool.",
	})

	m.workerProcessingLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_ms",
		Help:      "Per-job worker processing latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrorRate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Worker processing errors.",
	})

	m.errorRateByComponent = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and kind.",
	}, []string{"component", "kind"})

	m.errorRateByType = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_type_total",
		Help:      "Errors by type and severity.",
	}, []string{"type", "severity"})

	m.errorRateByEndpoint = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "HTTP errors by endpoint, method and type.",
	}, []string{"endpoint", "method", "type"})

	m.errorLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "error_latency_ms",
		Help:      "Latency of failed operations in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"component", "type"})

	m.systemMemoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated heap bytes.",
	})

	m.systemGoroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current goroutine count.",
	})

	m.systemGCPauseTime = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_ms",
		Help:      "Average GC pause time in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Verification metrics.

// RecordVerification records one completed verification by outcome.
func RecordVerification(verified bool) {
	outcome := "rejected"
	if verified {
		outcome = "verified"
	}
	globalManager.verificationsTotal.WithLabelValues(outcome).Inc()
}

// RecordVerificationDuplicate records a duplicate-image detection.
func RecordVerificationDuplicate() {
	globalManager.verificationDuplicates.Inc()
}

// RecordVerificationLatency records end-to-end verification latency.
func RecordVerificationLatency(ms float64) {
	globalManager.verificationLatency.Observe(ms)
}

// RecordInferenceLatency records model inference latency.
func RecordInferenceLatency(ms float64) {
	globalManager.inferenceLatency.Observe(ms)
}

// RecordSubcheckLatency records the latency of one sub-check signal.
func RecordSubcheckLatency(signal string, ms float64) {
	globalManager.subcheckLatency.WithLabelValues(signal).Observe(ms)
}

// RecordSubcheckDegraded records a sub-check falling back to its safest default.
func RecordSubcheckDegraded(signal string) {
	globalManager.subcheckDegraded.WithLabelValues(signal).Inc()
}

// Operational gauges.

func UpdateQueueSize(n int)       { globalManager.queueSize.Set(float64(n)) }
func UpdateWorkerCount(n int)     { globalManager.workerCount.Set(float64(n)) }
func UpdateHashStoreSize(n int64) { globalManager.hashStoreSize.Set(float64(n)) }
func UpdateResultsStored(n int)   { globalManager.resultsStored.Set(float64(n)) }

// HTTP metrics.

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

// Queue metrics.

func UpdateQueueCapacity(n int)             { globalManager.queueCapacity.Set(float64(n)) }
func UpdateQueueUtilization(ratio float64)  { globalManager.queueUtilization.Set(ratio) }
func RecordQueueEnqueue()                   { globalManager.queueEnqueueRate.Inc() }
func RecordQueueDequeue()                   { globalManager.queueDequeueRate.Inc() }
func RecordQueueEnqueueError()              { globalManager.queueEnqueueErrors.Inc() }
func RecordQueueDequeueError()              { globalManager.queueDequeueErrors.Inc() }
func RecordQueueProcessingLatency(ms float64) {
	globalManager.queueProcessingLatency.Observe(ms)
}

// Worker metrics.

func UpdateWorkerActiveCount(n int)            { globalManager.workerActiveCount.Set(float64(n)) }
func UpdateWorkerIdleCount(n int)              { globalManager.workerIdleCount.Set(float64(n)) }
func UpdateWorkerMessagesPerSecond(v float64)  { globalManager.workerMessagesPerSecond.Set(v) }
func RecordWorkerProcessingLatency(ms float64) { globalManager.workerProcessingLatency.Observe(ms) }
func RecordWorkerError()                       { globalManager.workerErrorRate.Inc() }

// Error metrics.

func RecordErrorByComponent(component, kind string) {
	globalManager.errorRateByComponent.WithLabelValues(component, kind).Inc()
}

func RecordErrorByType(errType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errType, severity).Inc()
}

func RecordErrorByEndpoint(endpoint, method, errType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errType).Inc()
}

func RecordErrorLatency(component, errType string, ms float64) {
	globalManager.errorLatency.WithLabelValues(component, errType).Observe(ms)
}

// System metrics.

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(n int)     { globalManager.systemGoroutineCount.Set(float64(n)) }
func RecordSystemGCPauseTime(ms float64)   { globalManager.systemGCPauseTime.Observe(ms) }
