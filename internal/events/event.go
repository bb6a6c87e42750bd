// Package events publishes order lifecycle events.
package events

import (
	"encoding/json"
	"time"

	"github.com/dejobratic/idemorders/internal/orders/domain"
)

const (
	// StreamName is the JetStream stream that captures order events.
	StreamName = "ORDERS"
	// OrderCreatedSubject is published once per newly persisted order.
	OrderCreatedSubject = "orders.created"
)

// OrderCreated is the payload of an OrderCreatedSubject message.
type OrderCreated struct {
	OrderID        string    `json:"order_id"`
	UserID         string    `json:"user_id"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	IdempotencyKey string    `json:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewOrderCreated(order domain.Order) OrderCreated {
	return OrderCreated{
		OrderID:        order.ID,
		UserID:         order.UserID,
		Amount:         order.Amount,
		Currency:       order.Currency,
		IdempotencyKey: order.IdempotencyKey,
		CreatedAt:      order.CreatedAt,
	}
}

func (e OrderCreated) Payload() ([]byte, error) {
	return json.Marshal(e)
}
