package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/idemorders/internal/orders/metrics"
	"github.com/dejobratic/idemorders/internal/telemetry"
)

type ObservableCommandHandler struct {
	handler CommandHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCommandHandler(handler CommandHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCommandHandler {
	return &ObservableCommandHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (CreateOrderResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "CreateOrderCommand.Handle")

	start := time.Now()
	outcome := metrics.OutcomeError
	defer func() {
		o.metrics.RecordCreate(ctx, outcome, time.Since(start).Seconds())
	}()

	o.logger.InfoContext(ctx, "creating order",
		"idempotency_key", cmd.IdempotencyKey,
		"user_id", cmd.UserID,
		"amount", cmd.Amount,
	)

	result, err := o.handler.Handle(ctx, cmd)
	if err != nil {
		telemetry.EndSpan(span, err)
		if errors.Is(err, ErrMissingIdempotencyKey) {
			o.logger.WarnContext(ctx, "rejected order without idempotency key", "user_id", cmd.UserID)
		} else {
			o.logger.ErrorContext(ctx, "failed to create order",
				"error", err,
				"idempotency_key", cmd.IdempotencyKey,
			)
		}
		return CreateOrderResult{}, err
	}

	if result.Result == ResultCreated {
		outcome = metrics.OutcomeCreated
		o.logger.InfoContext(ctx, "order created successfully",
			"order_id", result.Order.ID,
			"idempotency_key", cmd.IdempotencyKey,
		)
	} else {
		outcome = metrics.OutcomeDuplicate
		o.logger.InfoContext(ctx, "duplicate request returned existing order",
			"order_id", result.Order.ID,
			"idempotency_key", cmd.IdempotencyKey,
		)
	}

	telemetry.EndSpan(span, nil,
		attribute.String("order.id", result.Order.ID),
		attribute.String("order.user_id", result.Order.UserID),
		attribute.Float64("order.amount", result.Order.Amount),
		attribute.String("order.result", string(result.Result)),
	)
	return result, nil
}
