package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/idemorders/internal/orders/domain"
	"github.com/dejobratic/idemorders/internal/orders/ports"
)

// Store provides an in-memory order store useful for local development and tests.
// Orders are lost when the process exits.
type Store struct {
	mu     sync.RWMutex
	orders []domain.Order
	byKey  map[string]domain.Order

	now   func() time.Time
	newID func() string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator overrides the order ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// NewStore constructs an empty in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		byKey: make(map[string]domain.Order),
		now:   time.Now,
		newID: domain.NewOrderID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateIfAbsent stores a new order for key unless one exists already. The
// lookup and both inserts happen under one lock.
func (s *Store) CreateIfAbsent(_ context.Context, input domain.CreateOrderInput, key string) (domain.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byKey[key]; ok {
		return existing, false, nil
	}

	order := domain.NewOrder(s.newID(), input, key, s.now())
	s.orders = append(s.orders, order)
	s.byKey[key] = order

	return order, true, nil
}

// GetByIdempotencyKey fetches the order stored for key.
func (s *Store) GetByIdempotencyKey(_ context.Context, key string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.byKey[key]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &order, nil
}

// ListRecent returns up to limit orders in reverse insertion order.
func (s *Store) ListRecent(_ context.Context, limit int) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit = max(0, min(limit, len(s.orders)))

	result := make([]domain.Order, 0, limit)
	for i := len(s.orders) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.orders[i])
	}

	return result, nil
}
