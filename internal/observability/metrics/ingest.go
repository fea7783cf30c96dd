// Package metrics provides custom Prometheus metrics for various components of the RushRoster cloud service.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics contains all Prometheus metrics related to event ingestion.
type IngestMetrics struct {
	EventsProcessed *prometheus.CounterVec
	BatchesReceived prometheus.Counter
	BatchSize       prometheus.Histogram
	BatchDuration   prometheus.Histogram
	registry        *prometheus.Registry
}

// NewIngestMetrics creates a new instance of IngestMetrics.
// It requires a Prometheus registry to register the metrics.
// It returns an error if metric registration fails.
func NewIngestMetrics(registry *prometheus.Registry) (*IngestMetrics, error) {
	m := &IngestMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize ingest metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register ingest metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for IngestMetrics.
func (m *IngestMetrics) initMetrics() error {
	m.EventsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_events_processed_total",
		Help: "Total number of processed events by outcome status",
	}, []string{"status"})

	m.BatchesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_batches_received_total",
		Help: "Total number of event batches received from devices",
	})

	m.BatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_batch_size_events",
		Help:    "Number of events per received batch",
		Buckets: prometheus.ExponentialBuckets(1, 2, 11),
	})

	m.BatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_batch_duration_seconds",
		Help:    "Time spent processing one event batch",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	return nil
}

// RecordEvent increments the processed-events counter for a status.
func (m *IngestMetrics) RecordEvent(status string) {
	m.EventsProcessed.WithLabelValues(status).Inc()
}

// RecordBatch records one processed batch.
func (m *IngestMetrics) RecordBatch(size int, duration time.Duration) {
	m.BatchesReceived.Inc()
	m.BatchSize.Observe(float64(size))
	m.BatchDuration.Observe(duration.Seconds())
}

// Collect implements the prometheus.Collector interface.
func (m *IngestMetrics) Collect(ch chan<- prometheus.Metric) {
	m.EventsProcessed.Collect(ch)
	ch <- m.BatchesReceived
	ch <- m.BatchSize
	ch <- m.BatchDuration
}

// Describe implements the prometheus.Collector interface.
func (m *IngestMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.EventsProcessed.Describe(ch)
	ch <- m.BatchesReceived.Desc()
	ch <- m.BatchSize.Desc()
	ch <- m.BatchDuration.Desc()
}
