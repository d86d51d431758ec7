// Package payment talks to the card payment provider: intent creation,
// metadata updates, webhook event verification and the metadata codec that
// keeps order data within the provider's per-field limits.
package payment

import (
	"context"
	"strings"

	"storefront/internal/model"
)

// Event types the webhook acts on.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// IntentRequest describes a new payment intent.
type IntentRequest struct {
	AmountMinorUnits int64
	Currency         string
	Metadata         map[string]string
}

// Provider creates and updates payment intents.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*model.PaymentIntent, error)

	// UpdateMetadata replaces metadata on an existing intent. It never
	// changes the amount.
	UpdateMetadata(ctx context.Context, intentID string, metadata map[string]string) (*model.PaymentIntent, error)
}

// Event is a verified webhook event.
type Event struct {
	ID   string
	Type string

	// Intent is set for payment_intent.* events.
	Intent *model.PaymentIntent
}

// EventVerifier checks a webhook signature and decodes the event.
type EventVerifier interface {
	Verify(payload []byte, signatureHeader string) (*Event, error)
}

// CheckSecretKey reports a ConfigurationError when key is absent or does not
// look like a secret or restricted key.
func CheckSecretKey(key string) error {
	if key == "" {
		return model.NewConfigurationError("payment provider secret key is not set")
	}
	if !strings.HasPrefix(key, "sk_") && !strings.HasPrefix(key, "rk_") {
		return model.NewConfigurationError("payment provider secret key must start with sk_ or rk_")
	}
	return nil
}

// NormaliseIntentID accepts either an intent id or a client secret and
// returns the intent id.
func NormaliseIntentID(raw string) string {
	id := strings.TrimSpace(raw)
	if i := strings.Index(id, "_secret_"); i >= 0 {
		id = id[:i]
	}
	if id != "" && !strings.HasPrefix(id, "pi_") {
		id = "pi_" + id
	}
	return id
}
