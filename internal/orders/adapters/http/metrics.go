package http

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the RED instruments for the order API. Requests are labelled
// by chi route pattern, never by raw path, to keep cardinality bounded.
type Metrics struct {
	requestDuration  metric.Float64Histogram
	requestsTotal    metric.Int64Counter
	requestsInFlight metric.Int64UpDownCounter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	duration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration by route"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_request_duration histogram: %w", err)
	}

	total, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("HTTP requests by route and status class"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_requests_total counter: %w", err)
	}

	inFlight, err := meter.Int64UpDownCounter(
		"http_requests_in_flight",
		metric.WithDescription("HTTP requests currently being served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_requests_in_flight counter: %w", err)
	}

	return &Metrics{
		requestDuration:  duration,
		requestsTotal:    total,
		requestsInFlight: inFlight,
	}, nil
}

func (m *Metrics) RecordRequest(ctx context.Context, method, route string, statusCode int, durationSeconds float64) {
	routeAttrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("route", route),
	}

	m.requestsTotal.Add(ctx, 1, metric.WithAttributes(append(routeAttrs,
		attribute.Int("status_code", statusCode),
		attribute.String("status_class", strconv.Itoa(statusCode/100)+"xx"),
	)...))
	m.requestDuration.Record(ctx, durationSeconds, metric.WithAttributes(routeAttrs...))
}

// TrackInFlight adjusts the in-flight gauge by delta (+1 on entry, -1 on exit).
func (m *Metrics) TrackInFlight(ctx context.Context, delta int64) {
	m.requestsInFlight.Add(ctx, delta)
}
