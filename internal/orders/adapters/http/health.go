package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ReadinessCheck reports whether the order store can serve requests.
type ReadinessCheck func(ctx context.Context) error

type HealthHandler struct {
	ready  ReadinessCheck
	logger *slog.Logger
}

func NewHealthHandler(ready ReadinessCheck, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{ready: ready, logger: logger}
}

func (h *HealthHandler) Register(r chi.Router) {
	r.Get("/health", h.health)
	r.Get("/ready", h.readiness)
}

func (h *HealthHandler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
