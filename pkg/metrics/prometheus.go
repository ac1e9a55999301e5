// Package metrics provides Prometheus metrics for the Delhi House site service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Leads
	leadsSubmitted    prometheus.Counter
	leadsDuplicate    prometheus.Counter
	leadsRejected     *prometheus.CounterVec
	leadsPersisted    prometheus.Counter
	leadsDeleted      prometheus.Counter
	leadDeleteErrors  prometheus.Counter
	leadFetchErrors   prometheus.Counter
	leadsStored       prometheus.Gauge
	leadPersistMillis prometheus.Histogram

	// Submission queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec
	workerCount        prometheus.Gauge

	// Auth
	logins *prometheus.CounterVec

	// Reservation widget and booking
	widgetOutcomes  *prometheus.CounterVec
	bookingRequests prometheus.Counter

	// Reveal engine
	revealFrames prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByComponent   *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "delhihouse",
		subsystem:        "site",
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

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.leadsSubmitted = m.counter("leads_submitted_total", "Contact submissions accepted for persistence")
	m.leadsDuplicate = m.counter("leads_duplicate_total", "Contact submissions dropped as duplicates of an earlier token")
	m.leadsRejected = m.counterVec("leads_rejected_total", "Contact submissions rejected before persistence", "reason")
	m.leadsPersisted = m.counter("leads_persisted_total", "Leads written to the store")
	m.leadsDeleted = m.counter("leads_deleted_total", "Leads deleted from the dashboard")
	m.leadDeleteErrors = m.counter("lead_delete_errors_total", "Failed lead deletions")
	m.leadFetchErrors = m.counter("lead_fetch_errors_total", "Failed lead list fetches")
	m.leadsStored = m.gauge("leads_stored", "Leads currently held by the store")
	m.leadPersistMillis = m.histogram("lead_persist_latency_milliseconds", "Latency of writing one lead", m.histogramBuckets)

	m.queueSize = m.gauge("queue_size", "Submissions waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum capacity of the submission queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Rejected enqueue attempts", "reason")
	m.workerCount = m.gauge("worker_count", "Submission workers running")

	m.logins = m.counterVec("logins_total", "Admin sign-in attempts by outcome code", "outcome")

	m.widgetOutcomes = m.counterVec("widget_outcomes_total", "Reservation widget load outcomes", "outcome")
	m.bookingRequests = m.counter("booking_requests_total", "Booking requests accepted")

	m.revealFrames = m.counter("reveal_frames_total", "Reveal frames computed")

	auto := promauto.With(m.registry)
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total", Help: "HTTP requests by endpoint, method and status", ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_request_duration_milliseconds", Help: "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordLeadSubmitted counts an accepted submission.
func RecordLeadSubmitted() { globalManager.leadsSubmitted.Inc() }

// RecordLeadDuplicate counts a duplicate submission.
func RecordLeadDuplicate() { globalManager.leadsDuplicate.Inc() }

// RecordLeadRejected counts a rejected submission.
func RecordLeadRejected(reason string) { globalManager.leadsRejected.WithLabelValues(reason).Inc() }

// RecordLeadPersisted counts a lead written to the store and its latency.
func RecordLeadPersisted(latencyMs float64) {
	globalManager.leadsPersisted.Inc()
	globalManager.leadPersistMillis.Observe(latencyMs)
}

// RecordLeadDeleted counts a deleted lead.
func RecordLeadDeleted() { globalManager.leadsDeleted.Inc() }

// RecordLeadDeleteError counts a failed delete.
func RecordLeadDeleteError() { globalManager.leadDeleteErrors.Inc() }

// RecordLeadFetchError counts a failed list fetch.
func RecordLeadFetchError() { globalManager.leadFetchErrors.Inc() }

// UpdateLeadsStored sets the number of stored leads.
func UpdateLeadsStored(n int) { globalManager.leadsStored.Set(float64(n)) }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(ratio float64) { globalManager.queueUtilization.Set(ratio) }

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordLogin counts a sign-in attempt; outcome is "ok" or an auth error code.
func RecordLogin(outcome string) { globalManager.logins.WithLabelValues(outcome).Inc() }

// RecordWidgetOutcome counts a widget outcome (loaded, error, timeout, probe_ok, probe_failed).
func RecordWidgetOutcome(outcome string) { globalManager.widgetOutcomes.WithLabelValues(outcome).Inc() }

// RecordBookingRequest counts an accepted booking request.
func RecordBookingRequest() { globalManager.bookingRequests.Inc() }

// RecordRevealFrame counts a computed reveal frame.
func RecordRevealFrame() { globalManager.revealFrames.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error attributed to a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// Configure rebuilds the global collectors on a fresh registry with opts.
// Call it once at startup, before anything records; values recorded earlier
// are discarded.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(registry)}, opts...)...)
	customRegistry = registry
}

// GetRegistry returns the custom registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
