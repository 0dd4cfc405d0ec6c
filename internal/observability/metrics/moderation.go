// Package metrics provides custom Prometheus metrics for the photoguard engine.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ModerationMetrics contains all Prometheus metrics related to moderation decisions.
type ModerationMetrics struct {
	DecisionCounter         *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec
	ProviderFailures        *prometheus.CounterVec
	FallbackCounter         *prometheus.CounterVec
	ReanalysisCounter       prometheus.Counter

	registry *prometheus.Registry
}

// NewModerationMetrics creates a new instance of ModerationMetrics and
// registers it on the given registry.
func NewModerationMetrics(registry *prometheus.Registry) (*ModerationMetrics, error) {
	m := &ModerationMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register moderation metrics: %w", err)
	}
	return m, nil
}

func (m *ModerationMetrics) initMetrics() {
	m.DecisionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoguard_moderation_decisions_total",
			Help: "Total number of moderation decisions partitioned by status and provider.",
		},
		[]string{"status", "provider"},
	)
	m.ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photoguard_provider_request_duration_seconds",
			Help:    "Duration of analysis provider requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
	m.ProviderFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoguard_provider_failures_total",
			Help: "Total number of provider failures partitioned by provider and failure kind.",
		},
		[]string{"provider", "kind"},
	)
	m.FallbackCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoguard_provider_fallbacks_total",
			Help: "Total number of times the conservative fallback result was used.",
		},
		[]string{"provider"},
	)
	m.ReanalysisCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "photoguard_reanalysis_total",
			Help: "Total number of on-demand re-analysis runs.",
		},
	)
}

// RecordDecision increments the decision counter for the given outcome.
func (m *ModerationMetrics) RecordDecision(status, provider string) {
	m.DecisionCounter.WithLabelValues(status, provider).Inc()
}

// RecordProviderRequest observes a provider request duration.
func (m *ModerationMetrics) RecordProviderRequest(provider string, durationSeconds float64) {
	m.ProviderRequestDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordProviderFailure increments the failure counter for the given kind.
func (m *ModerationMetrics) RecordProviderFailure(provider, kind string) {
	m.ProviderFailures.WithLabelValues(provider, kind).Inc()
}

// RecordFallback increments the fallback counter for the given provider.
func (m *ModerationMetrics) RecordFallback(provider string) {
	m.FallbackCounter.WithLabelValues(provider).Inc()
}

// RecordReanalysis increments the re-analysis counter.
func (m *ModerationMetrics) RecordReanalysis() {
	m.ReanalysisCounter.Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *ModerationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.DecisionCounter.Describe(ch)
	m.ProviderRequestDuration.Describe(ch)
	m.ProviderFailures.Describe(ch)
	m.FallbackCounter.Describe(ch)
	ch <- m.ReanalysisCounter.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *ModerationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.DecisionCounter.Collect(ch)
	m.ProviderRequestDuration.Collect(ch)
	m.ProviderFailures.Collect(ch)
	m.FallbackCounter.Collect(ch)
	ch <- m.ReanalysisCounter
}
