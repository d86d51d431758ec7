package handler

import (
	"errors"
	"io"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// maxWebhookBodySize is the largest event payload accepted.
const maxWebhookBodySize = 64 << 10

// SignatureHeader carries the provider's webhook signature.
const SignatureHeader = "Stripe-Signature"

// WebhookHandler receives payment provider events.
type WebhookHandler struct {
	service service.WebhookService
	errors  errorWriter
	logger  zerolog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(service service.WebhookService, exposeDetails bool, logger zerolog.Logger) *WebhookHandler {
	logger = logger.With().Str("handler", "webhook").Logger()
	return &WebhookHandler{
		service: service,
		errors:  errorWriter{logger: logger, exposeDetails: exposeDetails},
		logger:  logger,
	}
}

// webhookAck is the body of a successful delivery.
type webhookAck struct {
	Received bool `json:"received"`
}

// Stripe handles POST /webhooks/stripe requests. The body is read raw since
// the signature covers the exact bytes sent.
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errors.writeError(w, r, model.NewValidationError("payload too large"))
			return
		}
		h.errors.writeError(w, r, model.WrapDomainError(model.ErrCodeValidation, "failed to read request body", err))
		return
	}

	result, err := h.service.ProcessWebhook(r.Context(), payload, r.Header.Get(SignatureHeader))
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	h.logger.Debug().
		Str("event_id", result.EventID).
		Str("event_type", result.EventType).
		Str("outcome", string(result.Outcome)).
		Msg("webhook acknowledged")

	writeJSON(w, http.StatusOK, webhookAck{Received: true})
}
