package metrics

import "github.com/prometheus/client_golang/prometheus"

// DispatchMetrics counts assignment and completion attempts by outcome.
type DispatchMetrics struct {
	assign   *prometheus.CounterVec
	complete *prometheus.CounterVec
}

func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	assign := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dispatch",
		Name:      "assign_total",
		Help:      "Driver assignment attempts by outcome.",
	}, []string{"outcome"})
	complete := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dispatch",
		Name:      "complete_total",
		Help:      "Delivery completion attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(assign, complete)
	return &DispatchMetrics{assign: assign, complete: complete}
}

func (d *DispatchMetrics) ObserveAssign(outcome string) {
	if d == nil || d.assign == nil {
		return
	}
	d.assign.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (d *DispatchMetrics) ObserveComplete(outcome string) {
	if d == nil || d.complete == nil {
		return
	}
	d.complete.WithLabelValues(normalizeLabel(outcome)).Inc()
}
