// Package metrics provides Prometheus metrics for pantry store operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Mutation outcome labels.
const (
	StatusOK       = "ok"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// StoreMetrics counts mutations and guard rejections. A nil *StoreMetrics
// is valid and records nothing.
type StoreMetrics struct {
	mutationsTotal   *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
	rejectionsTotal  *prometheus.CounterVec
	collectors       []prometheus.Collector
}

// NewStoreMetrics creates the store metrics and registers them on registry.
func NewStoreMetrics(registry prometheus.Registerer) (*StoreMetrics, error) {
	m := &StoreMetrics{
		mutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pantry",
				Name:      "mutations_total",
				Help:      "Total number of store mutations by table, operation and outcome",
			},
			[]string{"table", "operation", "status"},
		),
		mutationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pantry",
				Name:      "mutation_duration_seconds",
				Help:      "Time taken by store mutations, including JSONL persistence",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"table", "operation"},
		),
		rejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pantry",
				Name:      "validation_rejections_total",
				Help:      "Total number of writes rejected by validation, by field",
			},
			[]string{"field"},
		),
	}
	m.collectors = []prometheus.Collector{m.mutationsTotal, m.mutationDuration, m.rejectionsTotal}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements prometheus.Collector.
func (m *StoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *StoreMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordMutation records one mutation outcome and its duration.
func (m *StoreMetrics) RecordMutation(table, operation, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.mutationsTotal.WithLabelValues(table, operation, status).Inc()
	m.mutationDuration.WithLabelValues(table, operation).Observe(d.Seconds())
}

// RecordRejection records a write rejected by validation on field.
func (m *StoreMetrics) RecordRejection(field string) {
	if m == nil {
		return
	}
	m.rejectionsTotal.WithLabelValues(field).Inc()
}
