package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus captures the lifecycle of an order in the system.
type OrderStatus string

const (
	// StatusCreated is the only status produced at creation time.
	StatusCreated OrderStatus = "created"
)

// DefaultCurrency applies when a request omits the currency.
const DefaultCurrency = "EUR"

// Order represents a persisted purchase request. Orders are immutable once created.
type Order struct {
	ID             string      `json:"order_id"`
	UserID         string      `json:"user_id"`
	Amount         float64     `json:"amount"`
	Currency       string      `json:"currency"`
	Status         OrderStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	IdempotencyKey string      `json:"idempotency_key"`
}

// CreateOrderInput is the caller-supplied part of an order.
type CreateOrderInput struct {
	UserID   string
	Amount   float64
	Currency string
}

// NewOrder builds a fresh order for the given idempotency key. The timestamp is
// normalized to UTC with microsecond precision so every backend stores and
// returns the same instant.
func NewOrder(id string, input CreateOrderInput, idempotencyKey string, now time.Time) Order {
	currency := strings.TrimSpace(input.Currency)
	if currency == "" {
		currency = DefaultCurrency
	}

	return Order{
		ID:             id,
		UserID:         input.UserID,
		Amount:         input.Amount,
		Currency:       currency,
		Status:         StatusCreated,
		CreatedAt:      NormalizeTime(now),
		IdempotencyKey: idempotencyKey,
	}
}

// NormalizeTime converts t to UTC truncated to microseconds.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// NewOrderID returns a random UUID v4 string.
func NewOrderID() string {
	return uuid.NewString()
}
