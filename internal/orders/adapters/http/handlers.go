package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/dejobratic/idemorders/internal/orders/app"
	"github.com/dejobratic/idemorders/internal/orders/app/commands"
	"github.com/dejobratic/idemorders/internal/orders/app/queries"
)

// IdempotencyKeyHeader carries the client token that makes POST /orders safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

const (
	detailMissingKey   = "Missing Idempotency-Key header"
	detailInvalidJSON  = "Invalid JSON payload"
	detailInvalidLimit = "limit must be a positive integer"
	detailInternal     = "Internal server error"
)

// createOrderRequest is the POST /orders body. Amount is a pointer so an
// omitted amount fails validation instead of becoming zero.
type createOrderRequest struct {
	UserID   string   `json:"user_id" validate:"required"`
	Amount   *float64 `json:"amount" validate:"required"`
	Currency string   `json:"currency" validate:"omitempty,len=3,alpha,uppercase"`
}

type errorResponse struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Handler exposes HTTP endpoints for order operations.
type Handler struct {
	service  *app.Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service, logger *slog.Logger) *Handler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	return &Handler{
		service:  service,
		validate: validate,
		logger:   logger.With("component", "http"),
	}
}

// Register binds the order routes to r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Whitespace-only keys are missing; other keys are used exactly as sent.
	key := r.Header.Get(IdempotencyKeyHeader)
	if strings.TrimSpace(key) == "" {
		writeError(w, http.StatusBadRequest, errorResponse{Detail: detailMissingKey})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.loggerFor(r).DebugContext(ctx, "rejected malformed order payload", "error", err)
		writeError(w, http.StatusBadRequest, errorResponse{Detail: detailInvalidJSON})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationResponse(err))
		return
	}

	result, err := h.service.CreateOrder(ctx, key, app.CreateOrderInput{
		UserID:   req.UserID,
		Amount:   *req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		if errors.Is(err, commands.ErrMissingIdempotencyKey) {
			writeError(w, http.StatusBadRequest, errorResponse{Detail: detailMissingKey})
			return
		}
		h.loggerFor(r).ErrorContext(ctx, "create order failed", "idempotency_key", key, "error", err)
		writeError(w, http.StatusInternalServerError, errorResponse{Detail: detailInternal})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := queries.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errorResponse{Detail: detailInvalidLimit})
			return
		}
		limit = parsed
	}

	result, err := h.service.ListOrders(ctx, limit)
	if err != nil {
		if errors.Is(err, queries.ErrInvalidLimit) {
			writeError(w, http.StatusBadRequest, errorResponse{Detail: detailInvalidLimit})
			return
		}
		h.loggerFor(r).ErrorContext(ctx, "list orders failed", "limit", limit, "error", err)
		writeError(w, http.StatusInternalServerError, errorResponse{Detail: detailInternal})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) loggerFor(r *http.Request) *slog.Logger {
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		return h.logger.With("request_id", reqID)
	}
	return h.logger
}

// validationResponse flattens validator errors into field -> rule pairs. The
// detail names the first failing field.
func validationResponse(err error) errorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errorResponse{Detail: err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}

	first := verrs[0]
	return errorResponse{
		Detail: fmt.Sprintf("%s: %s", first.Field(), first.Tag()),
		Errors: fields,
	}
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, body errorResponse) {
	writeJSON(w, status, body)
}
