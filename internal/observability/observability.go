// Package observability aggregates the engine's Prometheus metrics behind a
// single registry.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkallio/photoguard-go/internal/observability/metrics"
)

// Metrics holds all metric collectors used by the engine.
type Metrics struct {
	Moderation *metrics.ModerationMetrics
	Credits    *metrics.CreditMetrics

	registry *prometheus.Registry
}

// NewMetrics creates a registry with all engine metrics registered.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	moderationMetrics, err := metrics.NewModerationMetrics(registry)
	if err != nil {
		return nil, err
	}
	creditMetrics, err := metrics.NewCreditMetrics(registry)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Moderation: moderationMetrics,
		Credits:    creditMetrics,
		registry:   registry,
	}, nil
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
