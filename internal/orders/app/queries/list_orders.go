package queries

import (
	"context"
	"errors"

	"github.com/dejobratic/idemorders/internal/orders/domain"
	"github.com/dejobratic/idemorders/internal/orders/ports"
)

// DefaultLimit applies when the caller does not ask for a specific bound.
const DefaultLimit = 20

// ErrInvalidLimit is returned for a limit below one.
var ErrInvalidLimit = errors.New("limit must be a positive integer")

// ListRecentOrdersQuery asks for the newest orders, bounded by Limit.
type ListRecentOrdersQuery struct {
	Limit int
}

// Validate ensures the query has valid parameters.
func (q ListRecentOrdersQuery) Validate() error {
	if q.Limit < 1 {
		return ErrInvalidLimit
	}
	return nil
}

// ListRecentOrdersResult is the response envelope for a list request.
type ListRecentOrdersResult struct {
	Count  int            `json:"count"`
	Orders []domain.Order `json:"orders"`
}

// ListRecentOrdersQueryHandler executes ListRecentOrdersQuery.
type ListRecentOrdersQueryHandler struct {
	store ports.OrderStore
}

func NewListRecentOrdersQueryHandler(store ports.OrderStore) *ListRecentOrdersQueryHandler {
	return &ListRecentOrdersQueryHandler{store: store}
}

func (h *ListRecentOrdersQueryHandler) Handle(ctx context.Context, query ListRecentOrdersQuery) (ListRecentOrdersResult, error) {
	if err := query.Validate(); err != nil {
		return ListRecentOrdersResult{}, err
	}

	orders, err := h.store.ListRecent(ctx, query.Limit)
	if err != nil {
		return ListRecentOrdersResult{}, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	return ListRecentOrdersResult{Count: len(orders), Orders: orders}, nil
}
