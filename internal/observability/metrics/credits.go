package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CreditMetrics contains all Prometheus metrics related to credit reconciliation.
type CreditMetrics struct {
	MutationCounter      *prometheus.CounterVec
	InconsistencyCounter prometheus.Counter
	NoopCounter          prometheus.Counter

	registry *prometheus.Registry
}

// NewCreditMetrics creates a new instance of CreditMetrics and registers it
// on the given registry.
func NewCreditMetrics(registry *prometheus.Registry) (*CreditMetrics, error) {
	m := &CreditMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register credit metrics: %w", err)
	}
	return m, nil
}

func (m *CreditMetrics) initMetrics() {
	m.MutationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoguard_credit_mutations_total",
			Help: "Total number of credit ledger mutations partitioned by direction.",
		},
		[]string{"direction"},
	)
	m.InconsistencyCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "photoguard_credit_inconsistencies_total",
			Help: "Total number of credit revocations skipped because the balance was already zero.",
		},
	)
	m.NoopCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "photoguard_credit_noop_transitions_total",
			Help: "Total number of status transitions that required no credit mutation.",
		},
	)
}

// RecordMutation increments the mutation counter for the given direction.
func (m *CreditMetrics) RecordMutation(direction string) {
	m.MutationCounter.WithLabelValues(direction).Inc()
}

// RecordInconsistency increments the inconsistency counter.
func (m *CreditMetrics) RecordInconsistency() {
	m.InconsistencyCounter.Inc()
}

// RecordNoop increments the no-op transition counter.
func (m *CreditMetrics) RecordNoop() {
	m.NoopCounter.Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *CreditMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.MutationCounter.Describe(ch)
	ch <- m.InconsistencyCounter.Desc()
	ch <- m.NoopCounter.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *CreditMetrics) Collect(ch chan<- prometheus.Metric) {
	m.MutationCounter.Collect(ch)
	ch <- m.InconsistencyCounter
	ch <- m.NoopCounter
}
