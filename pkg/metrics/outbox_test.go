package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOutboxMetricsCountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("notification_requested")
	m.IncPublished("notification_requested")
	m.IncRetry("notification_requested")
	m.IncDeadLettered("")

	if got := testutil.ToFloat64(m.published.WithLabelValues("notification_requested", "published")); got != 2 {
		t.Fatalf("expected published=2, got %v", got)
	}
	if got := testutil.ToFloat64(m.published.WithLabelValues("notification_requested", "retry")); got != 1 {
		t.Fatalf("expected retry=1, got %v", got)
	}
	if got := testutil.ToFloat64(m.published.WithLabelValues("unknown", "dead_lettered")); got != 1 {
		t.Fatalf("expected dead_lettered=1, got %v", got)
	}
}

func TestNilOutboxMetricsIsNoop(t *testing.T) {
	var m *OutboxMetrics
	m.IncPublished("x")
	NewOutboxMetrics(nil).IncRetry("x")
}
