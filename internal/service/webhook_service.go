package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const notifyTimeout = 15 * time.Second

// errOrderIDTaken marks a paid intent whose order id already belongs to a
// different payment. The first order is kept; the second is dead-lettered.
var errOrderIDTaken = errors.New("order id already used by another payment")

type webhookService struct {
	verifier    payment.EventVerifier
	orderRepo   repository.OrderRepository
	deadLetters repository.DeadLetterRepository
	notifier    notify.Notifier
	logger      zerolog.Logger
}

func NewWebhookService(
	verifier payment.EventVerifier,
	orderRepo repository.OrderRepository,
	deadLetters repository.DeadLetterRepository,
	notifier notify.Notifier,
	logger zerolog.Logger,
) WebhookService {
	return &webhookService{
		verifier:    verifier,
		orderRepo:   orderRepo,
		deadLetters: deadLetters,
		notifier:    notifier,
		logger:      logger.With().Str("service", "webhook").Logger(),
	}
}

func (s *webhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*model.WebhookResult, error) {
	event, err := s.verifier.Verify(payload, signature)
	if err != nil {
		s.logger.Warn().Err(err).Msg("webhook rejected")
		return nil, err
	}

	result := &model.WebhookResult{
		EventID:   event.ID,
		EventType: event.Type,
		Outcome:   model.WebhookIgnored,
	}

	switch event.Type {
	case payment.EventPaymentSucceeded:
		return s.handleSucceeded(ctx, event, payload, result)

	case payment.EventPaymentFailed:
		l := s.logger.Warn().Str("event_id", event.ID)
		if event.Intent != nil {
			l = l.Str("payment_intent_id", event.Intent.ID).Str("order_id", event.Intent.Metadata[payment.KeyOrderID])
		}
		l.Msg("payment failed")

	default:
		s.logger.Debug().
			Str("event_id", event.ID).
			Str("event_type", event.Type).
			Msg("unhandled event type")
	}

	return result, nil
}

func (s *webhookService) handleSucceeded(ctx context.Context, event *payment.Event, payload []byte, result *model.WebhookResult) (*model.WebhookResult, error) {
	if event.Intent == nil {
		return s.deadLetter(ctx, event, "", payload, errors.New("event carries no payment intent"), result)
	}
	intent := event.Intent

	md, err := payment.DecodeMetadata(intent.Metadata)
	if err != nil {
		return s.deadLetter(ctx, event, intent.ID, payload, err, result)
	}
	result.OrderID = md.OrderID

	order := orderFromIntent(intent, md)
	if !md.Total.IsZero() && pricing.ToMinorUnits(md.Total) != intent.AmountMinorUnits {
		s.logger.Warn().
			Str("order_id", md.OrderID).
			Str("metadata_total", md.Total.StringFixed(2)).
			Int64("amount_received", intent.AmountMinorUnits).
			Msg("charged amount differs from order total")
	}

	created, err := s.orderRepo.Create(ctx, order)
	if err != nil {
		return s.deadLetter(ctx, event, intent.ID, payload, err, result)
	}
	if !created {
		existing, err := s.orderRepo.GetByOrderID(ctx, order.OrderID)
		if err != nil {
			return s.deadLetter(ctx, event, intent.ID, payload, err, result)
		}
		if existing == nil || existing.PaymentIntentID != intent.ID {
			return s.deadLetter(ctx, event, intent.ID, payload, errOrderIDTaken, result)
		}

		s.logger.Info().
			Str("event_id", event.ID).
			Str("order_id", order.OrderID).
			Msg("order already recorded, skipping")
		result.Outcome = model.WebhookDuplicate
		return result, nil
	}

	s.logger.Info().
		Str("order_id", order.OrderID).
		Str("payment_intent_id", intent.ID).
		Str("total", order.Total.StringFixed(2)).
		Msg("order created")

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.OrderPlaced(notifyCtx, order); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.OrderID).
			Msg("order notification failed")
	}

	result.Outcome = model.WebhookProcessed
	return result, nil
}

// deadLetter records an event that could not become an order. The delivery
// is acknowledged only once the record is stored.
func (s *webhookService) deadLetter(ctx context.Context, event *payment.Event, intentID string, payload []byte, cause error, result *model.WebhookResult) (*model.WebhookResult, error) {
	s.logger.Error().
		Err(cause).
		Str("event_id", event.ID).
		Str("payment_intent_id", intentID).
		Msg("failed to process succeeded payment")

	raw := json.RawMessage(payload)
	if !json.Valid(raw) {
		raw = nil
	}

	dl := &model.DeadLetter{
		ID:              uuid.New(),
		EventID:         event.ID,
		EventType:       event.Type,
		PaymentIntentID: intentID,
		Reason:          cause.Error(),
		Payload:         raw,
		CreatedAt:       time.Now(),
	}
	if err := s.deadLetters.Create(ctx, dl); err != nil {
		s.logger.Error().
			Err(err).
			Str("event_id", event.ID).
			Msg("failed to record dead letter")
		return nil, fmt.Errorf("failed to record dead letter: %w", err)
	}

	result.Outcome = model.WebhookProcessingFailed
	return result, nil
}

func orderFromIntent(intent *model.PaymentIntent, md model.OrderMetadata) *model.Order {
	total := md.Total
	if total.IsZero() {
		total = pricing.FromMinorUnits(intent.AmountMinorUnits)
	}
	currency := md.Currency
	if currency == "" {
		currency = intent.Currency
	}
	method := intent.PaymentMethod
	if method == "" {
		method = "card"
	}

	now := time.Now()
	return &model.Order{
		ID:              uuid.New(),
		OrderID:         md.OrderID,
		Email:           md.Email,
		Items:           md.Items,
		Subtotal:        md.Subtotal,
		Discount:        md.Discount,
		Taxes:           md.Taxes,
		Shipping:        md.Shipping,
		Total:           total,
		Currency:        currency,
		Status:          model.OrderStatusProcessing,
		ShippingAddress: md.ShippingAddress,
		PaymentIntentID: intent.ID,
		PaymentStatus:   model.PaymentStatusSucceeded,
		PaymentMethod:   method,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
