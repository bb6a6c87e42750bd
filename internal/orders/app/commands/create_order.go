package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dejobratic/idemorders/internal/orders/domain"
	"github.com/dejobratic/idemorders/internal/orders/ports"
)

// ErrMissingIdempotencyKey is returned when a create request carries no idempotency key.
var ErrMissingIdempotencyKey = errors.New("missing Idempotency-Key header")

// Result tells the caller whether the order was created by this request.
type Result string

const (
	ResultCreated   Result = "created"
	ResultDuplicate Result = "duplicate_request_returned_existing"
)

type CreateOrderCommand struct {
	IdempotencyKey string
	UserID         string
	Amount         float64
	Currency       string
}

func (c CreateOrderCommand) Validate() error {
	if strings.TrimSpace(c.IdempotencyKey) == "" {
		return ErrMissingIdempotencyKey
	}
	return nil
}

// CreateOrderResult is the response envelope for a create request.
type CreateOrderResult struct {
	Result Result       `json:"result"`
	Order  domain.Order `json:"order"`
}

type CommandHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (CreateOrderResult, error)
}

type CreateOrderCommandHandler struct {
	store  ports.OrderStore
	events ports.EventPublisher
	logger *slog.Logger
}

func NewCreateOrderCommandHandler(
	store ports.OrderStore,
	events ports.EventPublisher,
	logger *slog.Logger,
) *CreateOrderCommandHandler {
	return &CreateOrderCommandHandler{
		store:  store,
		events: events,
		logger: logger,
	}
}

// Handle stores the order unless one already exists for the idempotency key.
// Store errors are returned as-is; retrying with the same key is always safe.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (CreateOrderResult, error) {
	if err := cmd.Validate(); err != nil {
		return CreateOrderResult{}, err
	}

	input := domain.CreateOrderInput{
		UserID:   cmd.UserID,
		Amount:   cmd.Amount,
		Currency: cmd.Currency,
	}

	order, created, err := h.store.CreateIfAbsent(ctx, input, cmd.IdempotencyKey)
	if err != nil {
		return CreateOrderResult{}, err
	}

	if !created {
		return CreateOrderResult{Result: ResultDuplicate, Order: order}, nil
	}

	// Publishing is best effort once the order is persisted.
	if err := h.events.PublishOrderCreated(ctx, order); err != nil {
		h.logger.WarnContext(ctx, "order saved but failed to publish event",
			"order_id", order.ID,
			"error", err,
		)
	}

	return CreateOrderResult{Result: ResultCreated, Order: order}, nil
}
