package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CheckoutHandler prices carts before payment.
type CheckoutHandler struct {
	service service.CheckoutService
	errors  errorWriter
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service service.CheckoutService, logger zerolog.Logger) *CheckoutHandler {
	logger = logger.With().Str("handler", "checkout").Logger()
	return &CheckoutHandler{
		service: service,
		errors:  errorWriter{logger: logger},
	}
}

// Quote handles POST /checkout/quote requests.
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req model.QuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	quote, err := h.service.Quote(r.Context(), &req)
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}
