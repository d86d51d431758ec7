package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ShippingHandler serves shipping rates publicly and to the admin.
type ShippingHandler struct {
	service service.ShippingService
	errors  errorWriter
	logger  zerolog.Logger
}

// NewShippingHandler creates a new shipping handler.
func NewShippingHandler(service service.ShippingService, logger zerolog.Logger) *ShippingHandler {
	logger = logger.With().Str("handler", "shipping").Logger()
	return &ShippingHandler{
		service: service,
		errors:  errorWriter{logger: logger},
		logger:  logger,
	}
}

// Rates handles GET /shipping/rates. With ?country=CC it answers the quote
// for that country, otherwise it lists every rate.
func (h *ShippingHandler) Rates(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("country") {
		h.List(w, r)
		return
	}

	quote, err := h.service.Quote(r.Context(), r.URL.Query().Get("country"))
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

// List handles GET /admin/shipping requests.
func (h *ShippingHandler) List(w http.ResponseWriter, r *http.Request) {
	rates, err := h.service.ListRates(r.Context())
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}
	if rates.Rates == nil {
		rates.Rates = []model.ShippingRate{}
	}

	writeJSON(w, http.StatusOK, rates)
}

// Create handles POST /admin/shipping requests.
func (h *ShippingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ShippingRateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	rate, err := h.service.CreateRate(r.Context(), &req)
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, rate)
}

// Update handles PUT /admin/shipping/{id} requests.
func (h *ShippingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := rateID(r)
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	var req model.ShippingRateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	rate, err := h.service.UpdateRate(r.Context(), id, &req)
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rate)
}

// Delete handles DELETE /admin/shipping/{id} requests.
func (h *ShippingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := rateID(r)
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	if err := h.service.DeleteRate(r.Context(), id); err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func rateID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, model.NewValidationError("invalid shipping rate ID format")
	}
	return id, nil
}
