// Package metrics defines the business-level instruments for order creation.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels for create requests.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

type Metrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requests, err := meter.Int64Counter(
		"orders_create_requests_total",
		metric.WithDescription("Create order requests by outcome; duplicate means an idempotent replay"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_create_requests_total counter: %w", err)
	}

	latency, err := meter.Float64Histogram(
		"orders_create_duration_seconds",
		metric.WithDescription("Create order latency by outcome"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_create_duration histogram: %w", err)
	}

	return &Metrics{requests: requests, latency: latency}, nil
}

// RecordCreate counts one create request and its latency under outcome.
func (m *Metrics) RecordCreate(ctx context.Context, outcome string, durationSeconds float64) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.requests.Add(ctx, 1, attrs)
	m.latency.Record(ctx, durationSeconds, attrs)
}
