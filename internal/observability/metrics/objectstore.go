package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ObjectStoreMetrics contains all Prometheus metrics related to photo blob storage.
type ObjectStoreMetrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	PhotoSize         prometheus.Histogram
	registry          *prometheus.Registry
}

// NewObjectStoreMetrics creates a new instance of ObjectStoreMetrics.
// It requires a Prometheus registry to register the metrics.
// It returns an error if metric registration fails.
func NewObjectStoreMetrics(registry *prometheus.Registry) (*ObjectStoreMetrics, error) {
	m := &ObjectStoreMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize object store metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register object store metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for ObjectStoreMetrics.
func (m *ObjectStoreMetrics) initMetrics() error {
	m.Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "objectstore_operations_total",
		Help: "Total number of object storage operations by operation and result",
	}, []string{"operation", "result"})

	m.OperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "objectstore_operation_duration_seconds",
		Help:    "Duration of object storage operations in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"operation"})

	m.PhotoSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "objectstore_photo_size_bytes",
		Help:    "Size of stored photos in bytes",
		Buckets: prometheus.ExponentialBuckets(1024, 2, 13),
	})

	return nil
}

// RecordOperation records one storage operation with its outcome.
func (m *ObjectStoreMetrics) RecordOperation(operation, result string, duration time.Duration) {
	m.Operations.WithLabelValues(operation, result).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordPhotoSize records the size of a stored photo.
func (m *ObjectStoreMetrics) RecordPhotoSize(sizeBytes int) {
	m.PhotoSize.Observe(float64(sizeBytes))
}

// Collect implements the prometheus.Collector interface.
func (m *ObjectStoreMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Operations.Collect(ch)
	m.OperationDuration.Collect(ch)
	ch <- m.PhotoSize
}

// Describe implements the prometheus.Collector interface.
func (m *ObjectStoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Operations.Describe(ch)
	m.OperationDuration.Describe(ch)
	ch <- m.PhotoSize.Desc()
}
