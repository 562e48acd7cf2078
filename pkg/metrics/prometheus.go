// Package metrics provides Prometheus metrics for the attendance ledger service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Command pipeline
	commandsApplied  *prometheus.CounterVec
	commandsRejected *prometheus.CounterVec
	faceDuplicates   prometheus.Counter

	// Ledger
	ledgerUpserts       prometheus.Counter
	ledgerReplacements  prometheus.Counter
	ledgerUpsertLatency prometheus.Histogram
	snapshotLatency     prometheus.Histogram
	persistenceFailures *prometheus.CounterVec

	// Today's view
	presentToday prometheus.Gauge
	rosterSize   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

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

// Init rebuilds the global manager from opts on a fresh registry, which
// GetRegistry returns from then on. Call it once at startup, before serving.
func Init(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rollcall",
		subsystem:        "ledger",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		constLabels:      map[string]string{},
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

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.commandsApplied = auto.NewCounterVec(m.counterOpts(
		"commands_applied_total", "Commands written to the ledger, by producer and status"),
		[]string{"source", "status"})
	m.commandsRejected = auto.NewCounterVec(m.counterOpts(
		"commands_rejected_total", "Producer inputs that yielded no command, by producer and kind"),
		[]string{"source", "kind"})
	m.faceDuplicates = auto.NewCounter(m.counterOpts(
		"face_duplicate_detections_total", "Detections dropped because their subject was already matched in the same photo"))

	m.ledgerUpserts = auto.NewCounter(m.counterOpts(
		"upserts_total", "Committed ledger upserts"))
	m.ledgerReplacements = auto.NewCounter(m.counterOpts(
		"replacements_total", "Upserts that replaced an existing entry"))
	m.ledgerUpsertLatency = auto.NewHistogram(m.histogramOpts(
		"upsert_latency_milliseconds", "Read-modify-replace latency of one upsert"))
	m.snapshotLatency = auto.NewHistogram(m.histogramOpts(
		"snapshot_latency_milliseconds", "Latency of loading a daily ledger"))
	m.persistenceFailures = auto.NewCounterVec(m.counterOpts(
		"persistence_failures_total", "Backend operations that failed, by operation"),
		[]string{"op"})

	m.presentToday = auto.NewGauge(m.gaugeOpts(
		"present_today", "Roster members currently Present in today's ledger"))
	m.rosterSize = auto.NewGauge(m.gaugeOpts(
		"roster_size", "Number of subjects in the loaded roster"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "HTTP requests by endpoint, method and status code"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "HTTP errors by endpoint, method and error type"),
		[]string{"endpoint", "method", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts(
		"errors_by_type_total", "HTTP errors by type and severity"),
		[]string{"error_type", "severity"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_bytes", "Allocated heap bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_milliseconds", "Average GC pause in milliseconds"))
}

// Command pipeline.

// RecordCommandApplied counts a command written to the ledger.
func (m *Manager) RecordCommandApplied(source, status string) {
	m.commandsApplied.WithLabelValues(source, status).Inc()
}

// RecordCommandRejected counts producer input that yielded no command.
func (m *Manager) RecordCommandRejected(source, kind string) {
	m.commandsRejected.WithLabelValues(source, kind).Inc()
}

// RecordFaceDuplicates counts detections dropped as same-photo duplicates.
func (m *Manager) RecordFaceDuplicates(n int) {
	if n > 0 {
		m.faceDuplicates.Add(float64(n))
	}
}

// Ledger.

// RecordLedgerUpsert records a committed upsert and its latency.
func (m *Manager) RecordLedgerUpsert(replaced bool, latencyMs float64) {
	m.ledgerUpserts.Inc()
	if replaced {
		m.ledgerReplacements.Inc()
	}
	m.ledgerUpsertLatency.Observe(latencyMs)
}

// RecordLedgerSnapshot records the latency of a ledger load.
func (m *Manager) RecordLedgerSnapshot(latencyMs float64) {
	m.snapshotLatency.Observe(latencyMs)
}

// RecordPersistenceFailure counts a failed backend operation.
func (m *Manager) RecordPersistenceFailure(op string) {
	m.persistenceFailures.WithLabelValues(op).Inc()
}

// UpdatePresentToday sets the present-today gauge.
func (m *Manager) UpdatePresentToday(n int) { m.presentToday.Set(float64(n)) }

// UpdateRosterSize sets the roster size gauge.
func (m *Manager) UpdateRosterSize(n int) { m.rosterSize.Set(float64(n)) }

// HTTP.

// RecordHTTPRequest counts one HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes one HTTP request duration.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint counts an HTTP error for an endpoint.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType counts an HTTP error by type and severity.
func (m *Manager) RecordErrorByType(errorType, severity string) {
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func (m *Manager) UpdateSystemMemoryUsage(bytes uint64) { m.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func (m *Manager) UpdateSystemGoroutineCount(n int) { m.systemGoroutineCount.Set(float64(n)) }

// RecordSystemGCPauseTime observes the average GC pause.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) { m.systemGCPauseTime.Observe(pauseMs) }

// Package-level helpers delegate to the global manager.

func RecordCommandApplied(source, status string) { globalManager.RecordCommandApplied(source, status) }
func RecordCommandRejected(source, kind string)  { globalManager.RecordCommandRejected(source, kind) }
func RecordFaceDuplicates(n int)                 { globalManager.RecordFaceDuplicates(n) }
func RecordLedgerUpsert(replaced bool, latencyMs float64) {
	globalManager.RecordLedgerUpsert(replaced, latencyMs)
}
func RecordLedgerSnapshot(latencyMs float64) { globalManager.RecordLedgerSnapshot(latencyMs) }
func RecordPersistenceFailure(op string)     { globalManager.RecordPersistenceFailure(op) }
func UpdatePresentToday(n int)               { globalManager.UpdatePresentToday(n) }
func UpdateRosterSize(n int)                 { globalManager.UpdateRosterSize(n) }
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode)
}
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequestDuration(endpoint, method, statusCode, durationMs)
}
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}
func RecordErrorByType(errorType, severity string) { globalManager.RecordErrorByType(errorType, severity) }
func UpdateSystemMemoryUsage(bytes uint64)         { globalManager.UpdateSystemMemoryUsage(bytes) }
func UpdateSystemGoroutineCount(n int)             { globalManager.UpdateSystemGoroutineCount(n) }
func RecordSystemGCPauseTime(pauseMs float64)      { globalManager.RecordSystemGCPauseTime(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
