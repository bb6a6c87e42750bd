package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the middleware chain and mounts the order and health routes.
func NewRouter(orders *Handler, health *HealthHandler, metrics *Metrics, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(WithRecovery(logger))
	r.Use(WithLogging(logger))
	r.Use(WithMetrics(metrics))

	health.Register(r)
	orders.Register(r)

	return r
}
