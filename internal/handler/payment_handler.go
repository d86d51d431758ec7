package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// PaymentHandler handles the checkout payment endpoints.
type PaymentHandler struct {
	service service.PaymentService
	errors  errorWriter
	logger  zerolog.Logger
}

// NewPaymentHandler creates a new payment handler. exposeDetails adds
// configuration error details to responses and must be off in production.
func NewPaymentHandler(service service.PaymentService, exposeDetails bool, logger zerolog.Logger) *PaymentHandler {
	logger = logger.With().Str("handler", "payment").Logger()
	return &PaymentHandler{
		service: service,
		errors:  errorWriter{logger: logger, exposeDetails: exposeDetails},
		logger:  logger,
	}
}

// CreateIntent handles POST /payments/create-intent requests.
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateIntentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	resp, err := h.service.CreateIntent(r.Context(), &req)
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateIntent handles POST /payments/update-intent requests.
func (h *PaymentHandler) UpdateIntent(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateIntentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	resp, err := h.service.AttachMetadata(r.Context(), &req)
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
