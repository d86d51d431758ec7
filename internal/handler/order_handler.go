package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// OrderHandler handles the admin order endpoints.
type OrderHandler struct {
	service service.OrderService
	errors  errorWriter
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	logger = logger.With().Str("handler", "order").Logger()
	return &OrderHandler{
		service: service,
		errors:  errorWriter{logger: logger},
		logger:  logger,
	}
}

// List handles GET /admin/orders requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	orders, err := h.service.List(r.Context(), repository.OrderFilter{
		Email:  r.URL.Query().Get("email"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /admin/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetByOrderID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /admin/orders/{id} requests.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	h.logger.Info().
		Str("order_id", order.OrderID).
		Str("status", string(order.Status)).
		Msg("order status updated")

	writeJSON(w, http.StatusOK, order)
}

// DeadLetters handles GET /admin/dead-letters requests.
func (h *OrderHandler) DeadLetters(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	letters, err := h.service.ListDeadLetters(r.Context(), limit)
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}
	if letters == nil {
		letters = []model.DeadLetter{}
	}

	writeJSON(w, http.StatusOK, letters)
}
