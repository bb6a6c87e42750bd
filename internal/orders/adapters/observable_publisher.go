package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/idemorders/internal/events"
	"github.com/dejobratic/idemorders/internal/orders/domain"
	"github.com/dejobratic/idemorders/internal/orders/ports"
	"github.com/dejobratic/idemorders/internal/telemetry"
)

type ObservablePublisher struct {
	publisher ports.EventPublisher
	metrics   *events.Metrics
}

func NewObservablePublisher(publisher ports.EventPublisher, metrics *events.Metrics) *ObservablePublisher {
	return &ObservablePublisher{
		publisher: publisher,
		metrics:   metrics,
	}
}

func (p *ObservablePublisher) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	ctx, span := telemetry.StartSpan(ctx, "EventPublisher.PublishOrderCreated",
		attribute.String("order.id", order.ID),
		attribute.String("event.type", events.OrderCreatedSubject),
	)

	start := time.Now()
	err := p.publisher.PublishOrderCreated(ctx, order)
	p.metrics.RecordPublish(ctx, events.OrderCreatedSubject, time.Since(start).Seconds(), err == nil)

	telemetry.EndSpan(span, err)
	return err
}
