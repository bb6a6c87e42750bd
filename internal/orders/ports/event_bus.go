package ports

import (
	"context"

	"github.com/dejobratic/idemorders/internal/orders/domain"
)

// EventPublisher announces order lifecycle events to other systems.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order domain.Order) error
}
