package worker

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics holds the dispatcher's counters.
type Metrics struct {
	fired  metric.Int64Counter
	sent   metric.Int64Counter
	failed metric.Int64Counter
}

// NewMetrics creates the dispatcher instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	fired, err := meter.Int64Counter("hearth.reminders.fired",
		metric.WithDescription("Reminder occurrences written to the delivery outbox"))
	if err != nil {
		return nil, err
	}
	sent, err := meter.Int64Counter("hearth.deliveries.sent",
		metric.WithDescription("Deliveries handed to the notifier successfully"))
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter("hearth.deliveries.failed",
		metric.WithDescription("Failed delivery attempts by outcome"))
	if err != nil {
		return nil, err
	}
	return &Metrics{fired: fired, sent: sent, failed: failed}, nil
}

// NoopMetrics returns metrics that record nothing.
func NoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

func (m *Metrics) RemindersFired(ctx context.Context, n int) {
	if n > 0 {
		m.fired.Add(ctx, int64(n))
	}
}

func (m *Metrics) DeliverySent(ctx context.Context) {
	m.sent.Add(ctx, 1)
}

func (m *Metrics) DeliveryFailed(ctx context.Context, outcome string) {
	m.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
