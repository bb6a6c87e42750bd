package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/idemorders/internal/orders/domain"
)

// OrderStore persists orders keyed by their idempotency key.
type OrderStore interface {
	// CreateIfAbsent stores a new order for key unless one already exists.
	// It returns the stored order and whether this call created it. Concurrent
	// calls with the same key all observe the single stored order.
	CreateIfAbsent(ctx context.Context, input domain.CreateOrderInput, key string) (domain.Order, bool, error)
	// GetByIdempotencyKey returns ErrNotFound when no order exists for key.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	// ListRecent returns up to limit orders, newest first.
	ListRecent(ctx context.Context, limit int) ([]domain.Order, error)
}

var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = errors.New("order not found")
)
