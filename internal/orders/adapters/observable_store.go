package adapters

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/idemorders/internal/database"
	"github.com/dejobratic/idemorders/internal/orders/domain"
	"github.com/dejobratic/idemorders/internal/orders/ports"
	"github.com/dejobratic/idemorders/internal/telemetry"
)

// ObservableStore wraps an OrderStore with spans and latency metrics.
type ObservableStore struct {
	store   ports.OrderStore
	backend string
	metrics *database.Metrics
}

func NewObservableStore(store ports.OrderStore, backend string, metrics *database.Metrics) *ObservableStore {
	return &ObservableStore{
		store:   store,
		backend: backend,
		metrics: metrics,
	}
}

func (s *ObservableStore) CreateIfAbsent(ctx context.Context, input domain.CreateOrderInput, key string) (domain.Order, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderStore.CreateIfAbsent", s.spanAttrs("create_if_absent")...)

	start := time.Now()
	order, created, err := s.store.CreateIfAbsent(ctx, input, key)
	s.metrics.RecordQuery(ctx, s.backend, "create_if_absent", time.Since(start).Seconds(), err != nil)

	if err == nil && !created {
		span.AddEvent("idempotency_key_conflict")
	}
	telemetry.EndSpan(span, err,
		attribute.String("order.id", order.ID),
		attribute.Bool("order.created", created),
	)
	if err != nil {
		return domain.Order{}, false, err
	}
	return order, created, nil
}

// GetByIdempotencyKey does not count ErrNotFound as a failed query.
func (s *ObservableStore) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderStore.GetByIdempotencyKey", s.spanAttrs("get_by_idempotency_key")...)

	start := time.Now()
	order, err := s.store.GetByIdempotencyKey(ctx, key)
	notFound := errors.Is(err, ports.ErrNotFound)
	s.metrics.RecordQuery(ctx, s.backend, "get_by_idempotency_key", time.Since(start).Seconds(), err != nil && !notFound)

	if notFound {
		telemetry.EndSpan(span, nil, attribute.Bool("order.found", false))
		return nil, err
	}
	telemetry.EndSpan(span, err, attribute.Bool("order.found", true))
	return order, err
}

func (s *ObservableStore) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	attrs := append(s.spanAttrs("list_recent"), attribute.Int("limit", limit))
	ctx, span := telemetry.StartSpan(ctx, "OrderStore.ListRecent", attrs...)

	start := time.Now()
	orders, err := s.store.ListRecent(ctx, limit)
	s.metrics.RecordQuery(ctx, s.backend, "list_recent", time.Since(start).Seconds(), err != nil)

	telemetry.EndSpan(span, err, attribute.Int("result.count", len(orders)))
	return orders, err
}

func (s *ObservableStore) spanAttrs(operation string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("db.system", s.backend),
		attribute.String("operation", operation),
	}
}
