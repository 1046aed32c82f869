package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics counts publish outcomes of the outbox publisher.
type OutboxMetrics struct {
	published *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "events_total",
		Help:      "Outbox events handled by the publisher, by event type and result.",
	}, []string{"event_type", "result"})
	reg.MustRegister(published)
	return &OutboxMetrics{published: published}
}

func (m *OutboxMetrics) IncPublished(eventType string) {
	m.inc(eventType, "published")
}

func (m *OutboxMetrics) IncRetry(eventType string) {
	m.inc(eventType, "retry")
}

// IncDeadLettered counts events moved to the DLQ.
func (m *OutboxMetrics) IncDeadLettered(eventType string) {
	m.inc(eventType, "dead_lettered")
}

func (m *OutboxMetrics) inc(eventType, result string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType), result).Inc()
}
