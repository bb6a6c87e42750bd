package events

import (
	"context"
	"log/slog"

	"github.com/dejobratic/idemorders/internal/orders/domain"
)

// NoopPublisher logs events without sending them anywhere. Used when NATS is not configured.
type NoopPublisher struct {
	logger *slog.Logger
}

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

func (n *NoopPublisher) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	n.logger.DebugContext(ctx, "event::order_created", "order_id", order.ID)
	return nil
}
