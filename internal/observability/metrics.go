// Package observability provides metrics and monitoring capabilities for the RushRoster cloud service.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calz1/rushroster-cloud/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry    *prometheus.Registry
	Ingest      *metrics.IngestMetrics
	ObjectStore *metrics.ObjectStoreMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors.
// It returns an error if any metric collector fails to initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	ingestMetrics, err := metrics.NewIngestMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest metrics: %w", err)
	}

	objectStoreMetrics, err := metrics.NewObjectStoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create object store metrics: %w", err)
	}

	return &Metrics{
		registry:    registry,
		Ingest:      ingestMetrics,
		ObjectStore: objectStoreMetrics,
	}, nil
}

// Handler returns an http.Handler serving the metrics in Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
