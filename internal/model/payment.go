package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentIntent is the provider-side payment object, referenced not owned.
type PaymentIntent struct {
	ID               string            `json:"id"`
	ClientSecret     string            `json:"clientSecret"`
	AmountMinorUnits int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Status           string            `json:"status,omitempty"`
	PaymentMethod    string            `json:"paymentMethod,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// CreateIntentRequest is the payload of POST /payments/create-intent.
type CreateIntentRequest struct {
	Amount   decimal.Decimal   `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CreateIntentResponse is returned to the checkout client.
type CreateIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// UpdateIntentRequest is the payload of POST /payments/update-intent.
type UpdateIntentRequest struct {
	PaymentIntentID string        `json:"paymentIntentId" validate:"required"`
	Metadata        OrderMetadata `json:"metadata"`
}

// UpdateIntentResponse acknowledges a metadata attach.
type UpdateIntentResponse struct {
	Success         bool   `json:"success"`
	PaymentIntentID string `json:"paymentIntentId"`
	OrderID         string `json:"orderId"`
}

// WebhookOutcome is the terminal state of a verified webhook event.
type WebhookOutcome string

const (
	WebhookIgnored          WebhookOutcome = "ignored"
	WebhookProcessed        WebhookOutcome = "processed"
	WebhookDuplicate        WebhookOutcome = "duplicate"
	WebhookProcessingFailed WebhookOutcome = "processing-failed"
)

// WebhookResult describes how a verified event was handled.
type WebhookResult struct {
	EventID   string         `json:"eventId"`
	EventType string         `json:"eventType"`
	Outcome   WebhookOutcome `json:"outcome"`
	OrderID   string         `json:"orderId,omitempty"`
}

// DeadLetter records a succeeded-payment event that could not become an order.
type DeadLetter struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	EventID         string          `json:"eventId" db:"event_id"`
	EventType       string          `json:"eventType" db:"event_type"`
	PaymentIntentID string          `json:"paymentIntentId" db:"payment_intent_id"`
	Reason          string          `json:"reason" db:"reason"`
	Payload         json.RawMessage `json:"payload" db:"payload"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
}
