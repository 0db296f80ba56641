// Package metrics provides Prometheus metrics for the lodge content service.
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

// Manager manages all Prometheus metrics for the lodge service.
type Manager struct {
	namespace       string
	subsystem       string
	loadBuckets     []float64
	httpBuckets     []float64
	enabled         bool
	refreshInterval time.Duration
	constLabels     map[string]string
	metricPrefix    string
	registry        prometheus.Registerer

	// Cache Metrics
	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	cacheEntries prometheus.Gauge

	// Content Loading Metrics
	categoryLoads         *prometheus.CounterVec
	categoryLoadLatency   *prometheus.HistogramVec
	recordsServed         *prometheus.GaugeVec
	validationIssues      *prometheus.CounterVec
	parseErrors           *prometheus.CounterVec
	fallbackSubstitutions *prometheus.CounterVec
	loadCycles            *prometheus.CounterVec
	staleCycles           prometheus.Counter
	lastLoadUnix          prometheus.Gauge

	// Retry and Refresh Metrics
	retries          prometheus.Counter
	retriesExhausted prometheus.Counter
	refreshes        *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec

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
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "lodge",
		subsystem:       "content",
		loadBuckets:     defaultLoadBuckets,
		httpBuckets:     defaultHTTPBuckets,
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		constLabels:     make(map[string]string),
		registry:        prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// RefreshInterval returns how often gauge updaters should run.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	// Cache Metrics
	m.cacheHits = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("cache_hits_total"),
			Help:        "Total number of cache lookups served from a live entry",
			ConstLabels: labels,
		},
		[]string{"key"},
	)

	m.cacheMisses = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("cache_misses_total"),
			Help:        "Total number of cache lookups that found no live entry",
			ConstLabels: labels,
		},
		[]string{"key"},
	)

	m.cacheEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("cache_entries"),
		Help:        "Current number of entries held by the content cache",
		ConstLabels: labels,
	})

	// Content Loading Metrics
	m.categoryLoads = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("category_loads_total"),
			Help:        "Total number of category loads by outcome (cached, loaded, failed)",
			ConstLabels: labels,
		},
		[]string{"category", "outcome"},
	)

	m.categoryLoadLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("category_load_duration_milliseconds"),
			Help:        "Time spent fetching, parsing and transforming a category",
			Buckets:     m.loadBuckets,
			ConstLabels: labels,
		},
		[]string{"category"},
	)

	m.recordsServed = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("records_served"),
			Help:        "Number of records in the current content state per category",
			ConstLabels: labels,
		},
		[]string{"category"},
	)

	m.validationIssues = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("validation_issues_total"),
			Help:        "Total number of field-level validation issues by severity",
			ConstLabels: labels,
		},
		[]string{"category", "severity"},
	)

	m.parseErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("parse_errors_total"),
			Help:        "Total number of records skipped because they could not be processed",
			ConstLabels: labels,
		},
		[]string{"category"},
	)

	m.fallbackSubstitutions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("fallback_substitutions_total"),
			Help:        "Total number of times placeholder content was served for a category",
			ConstLabels: labels,
		},
		[]string{"category"},
	)

	m.loadCycles = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("load_cycles_total"),
			Help:        "Total number of committed load cycles by outcome",
			ConstLabels: labels,
		},
		[]string{"outcome"},
	)

	m.staleCycles = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("stale_cycles_total"),
		Help:        "Total number of load cycles discarded because a newer cycle started",
		ConstLabels: labels,
	})

	m.lastLoadUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("last_load_unix"),
		Help:        "Unix timestamp of the last committed load cycle",
		ConstLabels: labels,
	})

	// Retry and Refresh Metrics
	m.retries = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("retries_total"),
		Help:        "Total number of retry attempts",
		ConstLabels: labels,
	})

	m.retriesExhausted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("retries_exhausted_total"),
		Help:        "Total number of retries refused because the limit was reached",
		ConstLabels: labels,
	})

	m.refreshes = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("refreshes_total"),
			Help:        "Total number of content refreshes by trigger",
			ConstLabels: labels,
		},
		[]string{"trigger"},
	)

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds (user experience)",
			Buckets:     m.httpBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_component_total"),
			Help:        "Total number of errors by component",
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// Cache Metrics Functions.

// RecordCacheHit increments the cache hit counter for key.
func RecordCacheHit(key string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheHits.WithLabelValues(key).Inc()
}

// RecordCacheMiss increments the cache miss counter for key.
func RecordCacheMiss(key string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheMisses.WithLabelValues(key).Inc()
}

// UpdateCacheEntries sets the number of live cache entries.
func UpdateCacheEntries(count int) {
	globalManager.cacheEntries.Set(float64(count))
}

// Content Loading Metrics Functions.

// RecordCategoryLoad counts a category load with its outcome.
func RecordCategoryLoad(category, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.categoryLoads.WithLabelValues(category, outcome).Inc()
}

// RecordCategoryLoadLatency records how long a category load took in milliseconds.
func RecordCategoryLoadLatency(category string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.categoryLoadLatency.WithLabelValues(category).Observe(latencyMs)
}

// UpdateRecordsServed sets the number of records served for category.
func UpdateRecordsServed(category string, count int) {
	globalManager.recordsServed.WithLabelValues(category).Set(float64(count))
}

// RecordValidationIssue counts a validation issue.
func RecordValidationIssue(category, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.validationIssues.WithLabelValues(category, severity).Inc()
}

// RecordParseError counts a skipped record.
func RecordParseError(category string) {
	if !globalManager.enabled {
		return
	}
	globalManager.parseErrors.WithLabelValues(category).Inc()
}

// RecordFallbackSubstitution counts a category served from placeholder content.
func RecordFallbackSubstitution(category string) {
	if !globalManager.enabled {
		return
	}
	globalManager.fallbackSubstitutions.WithLabelValues(category).Inc()
}

// RecordLoadCycle counts a committed load cycle and stamps its time.
func RecordLoadCycle(outcome string, at time.Time) {
	if !globalManager.enabled {
		return
	}
	globalManager.loadCycles.WithLabelValues(outcome).Inc()
	globalManager.lastLoadUnix.Set(float64(at.Unix()))
}

// RecordStaleCycle counts a discarded load cycle.
func RecordStaleCycle() {
	if !globalManager.enabled {
		return
	}
	globalManager.staleCycles.Inc()
}

// Retry and Refresh Metrics Functions.

// RecordRetry counts a retry attempt.
func RecordRetry() {
	if !globalManager.enabled {
		return
	}
	globalManager.retries.Inc()
}

// RecordRetryExhausted counts a refused retry.
func RecordRetryExhausted() {
	if !globalManager.enabled {
		return
	}
	globalManager.retriesExhausted.Inc()
}

// RecordRefresh counts a refresh by trigger ("manual" or "scheduled").
func RecordRefresh(trigger string) {
	if !globalManager.enabled {
		return
	}
	globalManager.refreshes.WithLabelValues(trigger).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
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

// RefreshInterval returns the global manager's gauge refresh interval.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
