// Package metrics provides Prometheus metrics for the mealspin suggestion service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Suggestion engine
	suggestionsServed  *prometheus.CounterVec
	suggestionsEmpty   *prometheus.CounterVec
	fallbackStages     *prometheus.CounterVec
	diversityRetries   prometheus.Counter
	engineLatency      *prometheus.HistogramVec
	collaboratorErrors *prometheus.CounterVec

	// Selection history
	selectionsRecorded *prometheus.CounterVec
	selectionErrors    prometheus.Counter
	idempotentReplays  prometheus.Counter

	// Repository
	repositoryItems      *prometheus.GaugeVec
	repositorySelections prometheus.Gauge
	repositoryQueryTime  *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry keeps default Go collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mealspin",
		subsystem:        "suggest",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.suggestionsServed = m.counterVec("suggestions_served_total",
		"Suggestions returned to callers by engine operation and item type", "operation", "item_type")
	m.suggestionsEmpty = m.counterVec("suggestions_empty_total",
		"Engine calls that found nothing to suggest", "operation")
	m.fallbackStages = m.counterVec("fallback_stage_total",
		"Candidate set that produced a pick, by item type and fallback stage", "item_type", "stage")
	m.diversityRetries = m.counter("diversity_retries_total",
		"Extra picks made to avoid repeating a cuisine within one batch")
	m.collaboratorErrors = m.counterVec("collaborator_errors_total",
		"Failures returned by catalog, history or preference collaborators", "collaborator")

	m.engineLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "engine_latency_milliseconds",
		Help:        "Engine operation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"operation"})

	m.selectionsRecorded = m.counterVec("selections_recorded_total",
		"Selection records appended to history", "item_type")
	m.selectionErrors = m.counter("selection_record_errors_total",
		"Selection appends that failed")
	m.idempotentReplays = m.counter("selection_replays_total",
		"POST /selections requests answered from the idempotency cache")

	m.repositoryItems = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "repository_items",
		Help:        "Catalog items held by the store",
		ConstLabels: m.constLabels,
	}, []string{"item_type"})
	m.repositorySelections = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "repository_selections",
		Help:        "Selection records held by the store",
		ConstLabels: m.constLabels,
	})
	m.repositoryQueryTime = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "repository_query_duration_milliseconds",
		Help:        "Store call latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"store", "operation"})

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = m.counterVec("http_errors_total",
		"HTTP responses with status >= 400 by endpoint and error type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "Heap bytes allocated",
		ConstLabels: m.constLabels,
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "Average GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// UpdateRepositoryItems sets the catalog size gauge for one item type.
func (m *Manager) UpdateRepositoryItems(itemType string, count int) {
	m.repositoryItems.WithLabelValues(itemType).Set(float64(count))
}

// UpdateRepositorySelections sets the selection history size gauge.
func (m *Manager) UpdateRepositorySelections(count int) {
	m.repositorySelections.Set(float64(count))
}

// RecordRepositoryQuery observes one store call.
func (m *Manager) RecordRepositoryQuery(store, operation string, durationMs float64) {
	m.repositoryQueryTime.WithLabelValues(store, operation).Observe(durationMs)
}

// RecordSuggestionServed counts a suggestion handed back by an engine operation.
func (m *Manager) RecordSuggestionServed(operation, itemType string) {
	m.suggestionsServed.WithLabelValues(operation, itemType).Inc()
}

// RecordSuggestionEmpty counts an engine call that had nothing to suggest.
func (m *Manager) RecordSuggestionEmpty(operation string) {
	m.suggestionsEmpty.WithLabelValues(operation).Inc()
}

// RecordFallbackStage counts which candidate set a pick was drawn from.
func (m *Manager) RecordFallbackStage(itemType, stage string) {
	m.fallbackStages.WithLabelValues(itemType, stage).Inc()
}

// RecordDiversityRetry counts one extra pick made by the diversity loop.
func (m *Manager) RecordDiversityRetry() {
	m.diversityRetries.Inc()
}

// RecordCollaboratorError counts a failure from an external collaborator.
func (m *Manager) RecordCollaboratorError(collaborator string) {
	m.collaboratorErrors.WithLabelValues(collaborator).Inc()
}

// RecordEngineLatency records engine operation latency in milliseconds.
func (m *Manager) RecordEngineLatency(operation string, latencyMs float64) {
	m.engineLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordSelection counts an appended selection record.
func (m *Manager) RecordSelection(itemType string) {
	m.selectionsRecorded.WithLabelValues(itemType).Inc()
}

// RecordSelectionError counts a failed selection append.
func (m *Manager) RecordSelectionError() {
	m.selectionErrors.Inc()
}

// RecordIdempotentReplay counts a selection request answered from the idempotency cache.
func (m *Manager) RecordIdempotentReplay() {
	m.idempotentReplays.Inc()
}

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an HTTP error response.
func (m *Manager) RecordHTTPError(endpoint, method, errorType string) {
	m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Package-level helpers delegate to the global manager.

// RecordSuggestionServed counts a suggestion handed back by an engine operation.
func RecordSuggestionServed(operation, itemType string) {
	globalManager.RecordSuggestionServed(operation, itemType)
}

// RecordSuggestionEmpty counts an engine call that had nothing to suggest.
func RecordSuggestionEmpty(operation string) { globalManager.RecordSuggestionEmpty(operation) }

// RecordFallbackStage counts which candidate set a pick was drawn from.
func RecordFallbackStage(itemType, stage string) {
	globalManager.RecordFallbackStage(itemType, stage)
}

// RecordDiversityRetry counts one extra pick made by the diversity loop.
func RecordDiversityRetry() { globalManager.RecordDiversityRetry() }

// RecordCollaboratorError counts a failure from an external collaborator.
func RecordCollaboratorError(collaborator string) {
	globalManager.RecordCollaboratorError(collaborator)
}

// RecordEngineLatency records engine operation latency in milliseconds.
func RecordEngineLatency(operation string, latencyMs float64) {
	globalManager.RecordEngineLatency(operation, latencyMs)
}

// RecordSelection counts an appended selection record.
func RecordSelection(itemType string) { globalManager.RecordSelection(itemType) }

// RecordSelectionError counts a failed selection append.
func RecordSelectionError() { globalManager.RecordSelectionError() }

// RecordIdempotentReplay counts a selection request answered from the idempotency cache.
func RecordIdempotentReplay() { globalManager.RecordIdempotentReplay() }

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError records an HTTP error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.RecordHTTPError(endpoint, method, errorType)
}

// UpdateRepositoryItems sets the catalog size gauge for one item type.
func UpdateRepositoryItems(itemType string, count int) {
	globalManager.UpdateRepositoryItems(itemType, count)
}

// UpdateRepositorySelections sets the selection history size gauge.
func UpdateRepositorySelections(count int) { globalManager.UpdateRepositorySelections(count) }

// RecordRepositoryQuery observes one store call.
func RecordRepositoryQuery(store, operation string, durationMs float64) {
	globalManager.RecordRepositoryQuery(store, operation, durationMs)
}

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

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
