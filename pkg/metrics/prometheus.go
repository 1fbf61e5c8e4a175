// Package metrics provides Prometheus metrics for the boardsync exporter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Manager manages all Prometheus metrics for the exporter.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Cycle metrics
	cycles           *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
	lastSuccessUnix  prometheus.Gauge
	exportedRecords  prometheus.Gauge
	topScore         prometheus.Gauge
	exportDuration   prometheus.Histogram
	exportWriteError prometheus.Counter

	// Source metrics
	pagesFetched   prometheus.Counter
	fetchErrors    *prometheus.CounterVec
	recordsSkipped prometheus.Counter
	fetchLatency   prometheus.Histogram

	// HTTP status server metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "boardsync",
		subsystem:        "exporter",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.cycles = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cycles_total",
		Help:        "Total number of export cycles by outcome",
		ConstLabels: m.customLabels,
	}, []string{"outcome"})

	m.cycleDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cycle_duration_milliseconds",
		Help:        "Duration of a full fetch and export cycle in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})

	m.lastSuccessUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_success_unix",
		Help:        "Unix timestamp of the last successful export",
		ConstLabels: m.customLabels,
	})

	m.exportedRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "exported_records",
		Help:        "Number of participant rows in the last export",
		ConstLabels: m.customLabels,
	})

	m.topScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "top_score",
		Help:        "Score of the rank-1 participant in the last export",
		ConstLabels: m.customLabels,
	})

	m.exportDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "export_duration_milliseconds",
		Help:        "Time spent writing the CSV and metadata files in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})

	m.exportWriteError = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "export_write_errors_total",
		Help:        "Total number of failed export writes",
		ConstLabels: m.customLabels,
	})

	m.pagesFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "pages_fetched_total",
		Help:        "Total number of leaderboard pages fetched successfully",
		ConstLabels: m.customLabels,
	})

	m.fetchErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetch_errors_total",
		Help:        "Total number of page fetch errors by kind",
		ConstLabels: m.customLabels,
	}, []string{"kind"})

	m.recordsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "records_skipped_total",
		Help:        "Total number of malformed participant records skipped",
		ConstLabels: m.customLabels,
	})

	m.fetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetch_latency_milliseconds",
		Help:        "Leaderboard page request latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of status server requests by endpoint and method",
			ConstLabels: m.customLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "Status server request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.customLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordCycle records the outcome and duration of one export cycle.
func RecordCycle(ok bool, durationMs float64) {
	outcome := OutcomeFailure
	if ok {
		outcome = OutcomeSuccess
	}
	globalManager.cycles.WithLabelValues(outcome).Inc()
	globalManager.cycleDuration.Observe(durationMs)
}

// RecordExport records a successful export of n records.
func RecordExport(n int, topScore float64, unix int64, durationMs float64) {
	globalManager.exportedRecords.Set(float64(n))
	globalManager.topScore.Set(topScore)
	globalManager.lastSuccessUnix.Set(float64(unix))
	globalManager.exportDuration.Observe(durationMs)
}

// RecordExportWriteError increments the failed export write counter.
func RecordExportWriteError() {
	globalManager.exportWriteError.Inc()
}

// RecordPageFetched records one successful page request.
func RecordPageFetched(latencyMs float64) {
	globalManager.pagesFetched.Inc()
	globalManager.fetchLatency.Observe(latencyMs)
}

// RecordFetchError increments the fetch error counter for kind.
func RecordFetchError(kind string) {
	globalManager.fetchErrors.WithLabelValues(kind).Inc()
}

// RecordRecordSkipped increments the skipped record counter.
func RecordRecordSkipped() {
	globalManager.recordsSkipped.Inc()
}

// RecordHTTPRequest records a status server request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records status server request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
