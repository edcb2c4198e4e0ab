package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline holds the verification pipeline's Prometheus collectors.
// A nil *Pipeline is valid and records nothing, so tests and callers
// that do not care about metrics can pass nil.
type Pipeline struct {
	outcomes         *prometheus.CounterVec
	resolverFallback prometheus.Counter
}

// NewPipeline registers the pipeline collectors on reg.
func NewPipeline(reg prometheus.Registerer) (*Pipeline, error) {
	m := &Pipeline{
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_outcomes_total",
				Help: "Terminal verification pipeline outcomes by result.",
			},
			[]string{"result"},
		),
		resolverFallback: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "verification_resolver_fallback_total",
				Help: "Times the resolver fell back to the latest-completed-task heuristic.",
			},
		),
	}
	if err := reg.Register(m.outcomes); err != nil {
		return nil, err
	}
	if err := reg.Register(m.resolverFallback); err != nil {
		return nil, err
	}
	return m, nil
}

// ObserveOutcome counts a terminal pipeline outcome
// (recorded, rejected, skipped, error).
func (m *Pipeline) ObserveOutcome(result string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(result).Inc()
}

// ObserveResolverFallback counts a use of the weak resolution heuristic.
func (m *Pipeline) ObserveResolverFallback() {
	if m == nil {
		return
	}
	m.resolverFallback.Inc()
}
