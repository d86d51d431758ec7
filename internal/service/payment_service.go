package service

import (
	"context"
	"strings"

	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/pricing"

	"github.com/rs/zerolog"
)

// PaymentConfig holds what the payment service needs from configuration.
type PaymentConfig struct {
	SecretKey       string
	DefaultCurrency string
}

type paymentService struct {
	provider payment.Provider
	cfg      PaymentConfig
	logger   zerolog.Logger
}

func NewPaymentService(provider payment.Provider, cfg PaymentConfig, logger zerolog.Logger) PaymentService {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "cad"
	}
	return &paymentService{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With().Str("service", "payment").Logger(),
	}
}

func (s *paymentService) CreateIntent(ctx context.Context, req *model.CreateIntentRequest) (*model.CreateIntentResponse, error) {
	if req == nil || !req.Amount.IsPositive() {
		return nil, model.NewValidationError("Invalid amount")
	}
	if pricing.ExceedsMaxAmount(req.Amount) {
		return nil, model.NewValidationError("Amount exceeds the maximum allowed")
	}

	minor := pricing.ToMinorUnits(req.Amount)
	if minor <= 0 {
		return nil, model.NewValidationError("Invalid amount")
	}

	if err := payment.CheckSecretKey(s.cfg.SecretKey); err != nil {
		s.logger.Error().Err(err).Msg("payment provider is not configured")
		return nil, err
	}

	var metadata map[string]string
	if len(req.Metadata) > 0 {
		split, err := payment.SplitMetadata(req.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = split
	}

	pi, err := s.provider.CreateIntent(ctx, payment.IntentRequest{
		AmountMinorUnits: minor,
		Currency:         s.currency(req.Currency),
		Metadata:         metadata,
	})
	if err != nil {
		return nil, err
	}

	return &model.CreateIntentResponse{
		ClientSecret:    pi.ClientSecret,
		PaymentIntentID: pi.ID,
	}, nil
}

func (s *paymentService) AttachMetadata(ctx context.Context, req *model.UpdateIntentRequest) (*model.UpdateIntentResponse, error) {
	if req == nil {
		return nil, model.NewValidationError("paymentIntentId and metadata are required")
	}

	intentID := payment.NormaliseIntentID(req.PaymentIntentID)
	if intentID == "" {
		return nil, model.NewValidationError("paymentIntentId is required")
	}
	if strings.TrimSpace(req.Metadata.Email) == "" {
		return nil, model.NewValidationError("email is required")
	}

	if err := payment.CheckSecretKey(s.cfg.SecretKey); err != nil {
		s.logger.Error().Err(err).Msg("payment provider is not configured")
		return nil, err
	}

	md := req.Metadata
	if md.OrderID == "" {
		md.OrderID = model.NewOrderID()
	}
	md.Currency = s.currency(md.Currency)

	encoded, err := payment.EncodeMetadata(md)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("payment_intent_id", intentID).
			Int("item_count", len(md.Items)).
			Msg("order metadata rejected")
		return nil, err
	}

	if _, err := s.provider.UpdateMetadata(ctx, intentID, encoded); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("payment_intent_id", intentID).
		Str("order_id", md.OrderID).
		Int("metadata_keys", len(encoded)).
		Msg("order metadata attached")

	return &model.UpdateIntentResponse{
		Success:         true,
		PaymentIntentID: intentID,
		OrderID:         md.OrderID,
	}, nil
}

func (s *paymentService) currency(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return s.cfg.DefaultCurrency
	}
	return c
}
