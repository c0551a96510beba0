// Package metrics provides Prometheus metrics for smearing runs.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the smearing engine.
type Manager struct {
	namespace       string
	subsystem       string
	drawBuckets     []float64
	durationBuckets []float64
	customLabels    map[string]string
	registry        prometheus.Registerer

	// Core smearing metrics
	eventsSmeared  prometheus.Counter
	draws          *prometheus.CounterVec
	rejectedDraws  *prometheus.CounterVec
	drawsPerSample *prometheus.HistogramVec
	sigma          *prometheus.HistogramVec

	// Run metrics
	runs             *prometheus.CounterVec
	runDuration      prometheus.Histogram
	runOverhead      *prometheus.GaugeVec
	runEvents        *prometheus.GaugeVec
	datasetRecords   *prometheus.CounterVec
	errorByComponent *prometheus.CounterVec
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
		namespace:       "smear",
		subsystem:       "engine",
		drawBuckets:     []float64{1, 2, 3, 5, 10, 20, 50, 100, 1000, 10000},
		durationBuckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		customLabels:    make(map[string]string),
		registry:        prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.eventsSmeared = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events_smeared_total",
		Help:        "Total number of events smeared and appended to the sink",
		ConstLabels: labels,
	})

	m.draws = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "draws_total",
		Help:        "Total number of normal draws, accepted and rejected, by axis",
		ConstLabels: labels,
	}, []string{"axis"})

	m.rejectedDraws = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rejected_draws_total",
		Help:        "Total number of draws rejected by the domain constraint, by axis",
		ConstLabels: labels,
	}, []string{"axis"})

	m.drawsPerSample = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "draws_per_sample",
		Help:        "Number of draws needed to accept one sample, by axis",
		Buckets:     m.drawBuckets,
		ConstLabels: labels,
	}, []string{"axis"})

	m.sigma = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sigma",
		Help:        "Standard deviation of the smearing kernel, by axis",
		Buckets:     prometheus.ExponentialBuckets(0.001, 2, 16),
		ConstLabels: labels,
	}, []string{"axis"})

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Total number of smearing runs by final state",
		ConstLabels: labels,
	}, []string{"status"})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_duration_seconds",
		Help:        "Wall time of completed smearing runs",
		Buckets:     m.durationBuckets,
		ConstLabels: labels,
	})

	m.runOverhead = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "oversampling_overhead_percent",
		Help:        "Rejected draws of the last completed run as a percentage of the minimum",
		ConstLabels: labels,
	}, []string{"label"})

	m.runEvents = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_events",
		Help:        "Events processed by the last completed run",
		ConstLabels: labels,
	}, []string{"label"})

	m.datasetRecords = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "dataset",
		Name:        "records_total",
		Help:        "Records read from sources and written to sinks, by format and direction",
		ConstLabels: labels,
	}, []string{"format", "direction"})

	m.errorByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_total",
		Help:        "Errors by component and type",
		ConstLabels: labels,
	}, []string{"component", "error_type"})
}

// RecordEventSmeared increments the events smeared counter.
func RecordEventSmeared() {
	globalManager.eventsSmeared.Inc()
}

// RecordSample records one accepted sample that needed draws draws.
func RecordSample(axis string, draws int, sigma float64) {
	globalManager.draws.WithLabelValues(axis).Add(float64(draws))
	if draws > 1 {
		globalManager.rejectedDraws.WithLabelValues(axis).Add(float64(draws - 1))
	}
	globalManager.drawsPerSample.WithLabelValues(axis).Observe(float64(draws))
	globalManager.sigma.WithLabelValues(axis).Observe(sigma)
}

// RecordRun records the final state of a run.
func RecordRun(status string) {
	globalManager.runs.WithLabelValues(status).Inc()
}

// RecordRunCompleted records the diagnostics of a completed run.
func RecordRunCompleted(label string, events int64, overheadPercent, seconds float64) {
	globalManager.runEvents.WithLabelValues(label).Set(float64(events))
	globalManager.runOverhead.WithLabelValues(label).Set(overheadPercent)
	globalManager.runDuration.Observe(seconds)
}

// RecordDatasetRecord counts one record moving through a dataset adapter.
// direction is "read" or "write".
func RecordDatasetRecord(format, direction string) {
	globalManager.datasetRecords.WithLabelValues(format, direction).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the custom registry in the Prometheus text format,
// suitable for the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteMetrics, path, err)
	}
	return nil
}
