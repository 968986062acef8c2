// Package middleware provides observability adapters for the evaluation
// engine.
package middleware

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quillml/quill/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. Metric vectors are created lazily on first observation, with
// label keys fixed by that first call; later observations with missing
// labels report empty values for them.
type PrometheusMetrics struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*labeledVec[*prometheus.CounterVec]
	gauges     map[string]*labeledVec[*prometheus.GaugeVec]
	histograms map[string]*labeledVec[*prometheus.HistogramVec]
}

// labeledVec pairs a metric vector with the label keys it was created with.
type labeledVec[V any] struct {
	vec  V
	keys []string
}

// Compile-time verification that PrometheusMetrics implements
// MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a collector that registers its metrics in
// the default Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsWithRegisterer creates a collector backed by a custom
// registerer. Tests use this with an isolated registry.
func NewPrometheusMetricsWithRegisterer(registerer prometheus.Registerer) *PrometheusMetrics {
	return &PrometheusMetrics{
		registerer: registerer,
		counters:   make(map[string]*labeledVec[*prometheus.CounterVec]),
		gauges:     make(map[string]*labeledVec[*prometheus.GaugeVec]),
		histograms: make(map[string]*labeledVec[*prometheus.HistogramVec]),
	}
}

// RecordLatency records the duration of an operation in a histogram named
// after the operation with a _duration_seconds suffix.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.RecordHistogram(operation+"_duration_seconds", duration.Seconds(), labels)
}

// RecordCounter adds the value to the named counter.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	pm.mu.Lock()
	entry, ok := pm.counters[metric]
	if !ok {
		keys := labelKeys(labels)
		vec := prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metric,
				Help: "Counter recorded by the evaluation engine.",
			},
			keys,
		)
		pm.registerer.MustRegister(vec)
		entry = &labeledVec[*prometheus.CounterVec]{vec: vec, keys: keys}
		pm.counters[metric] = entry
	}
	pm.mu.Unlock()

	entry.vec.WithLabelValues(labelValues(entry.keys, labels)...).Add(value)
}

// RecordGauge sets the named gauge to the value.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.mu.Lock()
	entry, ok := pm.gauges[metric]
	if !ok {
		keys := labelKeys(labels)
		vec := prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metric,
				Help: "Gauge recorded by the evaluation engine.",
			},
			keys,
		)
		pm.registerer.MustRegister(vec)
		entry = &labeledVec[*prometheus.GaugeVec]{vec: vec, keys: keys}
		pm.gauges[metric] = entry
	}
	pm.mu.Unlock()

	entry.vec.WithLabelValues(labelValues(entry.keys, labels)...).Set(value)
}

// RecordHistogram observes the value in the named histogram using the
// default bucket layout.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	pm.mu.Lock()
	entry, ok := pm.histograms[metric]
	if !ok {
		keys := labelKeys(labels)
		vec := prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metric,
				Help:    "Histogram recorded by the evaluation engine.",
				Buckets: prometheus.DefBuckets,
			},
			keys,
		)
		pm.registerer.MustRegister(vec)
		entry = &labeledVec[*prometheus.HistogramVec]{vec: vec, keys: keys}
		pm.histograms[metric] = entry
	}
	pm.mu.Unlock()

	entry.vec.WithLabelValues(labelValues(entry.keys, labels)...).Observe(value)
}

// labelKeys returns the label names in a deterministic order.
func labelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// labelValues resolves label values in key order, with empty strings for
// labels absent from this observation.
func labelValues(keys []string, labels map[string]string) []string {
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = labels[k]
	}
	return values
}
