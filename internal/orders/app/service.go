package app

import (
	"context"
	"log/slog"

	"github.com/dejobratic/idemorders/internal/orders/app/commands"
	"github.com/dejobratic/idemorders/internal/orders/app/queries"
	"github.com/dejobratic/idemorders/internal/orders/metrics"
	"github.com/dejobratic/idemorders/internal/orders/ports"
)

// Service bundles use cases for handling orders via the API. It holds no
// state beyond its injected dependencies.
type Service struct {
	createOrderHandler commands.CommandHandler
	listOrdersHandler  *queries.ListRecentOrdersQueryHandler
}

// NewService wires required dependencies.
func NewService(
	store ports.OrderStore,
	events ports.EventPublisher,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *Service {
	coreHandler := commands.NewCreateOrderCommandHandler(store, events, logger)
	observableHandler := commands.NewObservableCommandHandler(coreHandler, logger, metrics)

	return &Service{
		createOrderHandler: observableHandler,
		listOrdersHandler:  queries.NewListRecentOrdersQueryHandler(store),
	}
}

// CreateOrderInput captures the payload for creating an order.
type CreateOrderInput struct {
	UserID   string
	Amount   float64
	Currency string
}

// CreateOrder creates the order for idempotencyKey, or returns the one created
// by an earlier request with the same key.
func (s *Service) CreateOrder(ctx context.Context, idempotencyKey string, input CreateOrderInput) (commands.CreateOrderResult, error) {
	cmd := commands.CreateOrderCommand{
		IdempotencyKey: idempotencyKey,
		UserID:         input.UserID,
		Amount:         input.Amount,
		Currency:       input.Currency,
	}
	return s.createOrderHandler.Handle(ctx, cmd)
}

// ListOrders returns up to limit orders, newest first.
func (s *Service) ListOrders(ctx context.Context, limit int) (queries.ListRecentOrdersResult, error) {
	return s.listOrdersHandler.Handle(ctx, queries.ListRecentOrdersQuery{Limit: limit})
}
