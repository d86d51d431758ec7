package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/webhook"
)

// StripeConfig holds the provider credentials.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string

	// BackendURL overrides the API base URL, for tests.
	BackendURL string
}

// StripeProvider implements Provider on the Stripe PaymentIntents API. Calls
// run through a circuit breaker so a failing provider is not hammered.
type StripeProvider struct {
	intents *paymentintent.Client
	breaker *gobreaker.CircuitBreaker[*stripe.PaymentIntent]
	logger  zerolog.Logger
}

// NewStripeProvider creates a provider. The secret key is not validated here;
// callers check it with CheckSecretKey per request.
func NewStripeProvider(cfg StripeConfig, logger zerolog.Logger) *StripeProvider {
	logger = logger.With().Str("component", "stripe-provider").Logger()

	backend := stripe.GetBackend(stripe.APIBackend)
	if cfg.BackendURL != "" {
		backend = stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(cfg.BackendURL),
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		})
	}

	breaker := gobreaker.NewCircuitBreaker[*stripe.PaymentIntent](gobreaker.Settings{
		Name:        "stripe-payment-intents",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: isProviderHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("payment provider circuit breaker state changed")
		},
	})

	return &StripeProvider{
		intents: &paymentintent.Client{B: backend, Key: cfg.SecretKey},
		breaker: breaker,
		logger:  logger,
	}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, req IntentRequest) (*model.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.AmountMinorUnits),
		Currency:           stripe.String(strings.ToLower(req.Currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	if len(req.Metadata) > 0 {
		params.Metadata = req.Metadata
	}

	pi, err := p.breaker.Execute(func() (*stripe.PaymentIntent, error) {
		return p.intents.New(params)
	})
	if err != nil {
		p.logger.Error().
			Err(err).
			Int64("amount", req.AmountMinorUnits).
			Str("currency", req.Currency).
			Msg("failed to create payment intent")
		return nil, providerError("failed to create payment intent", err)
	}

	p.logger.Info().
		Str("payment_intent_id", pi.ID).
		Int64("amount", pi.Amount).
		Msg("payment intent created")

	return toModelIntent(pi), nil
}

func (p *StripeProvider) UpdateMetadata(ctx context.Context, intentID string, metadata map[string]string) (*model.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.Metadata = metadata

	pi, err := p.breaker.Execute(func() (*stripe.PaymentIntent, error) {
		return p.intents.Update(intentID, params)
	})
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("payment_intent_id", intentID).
			Msg("failed to update payment intent metadata")
		return nil, providerError("failed to update payment intent", err)
	}

	return toModelIntent(pi), nil
}

// StripeVerifier implements EventVerifier with Stripe's signature scheme.
type StripeVerifier struct {
	secret string
}

// NewStripeVerifier creates a verifier for the endpoint signing secret.
func NewStripeVerifier(secret string) *StripeVerifier {
	return &StripeVerifier{secret: secret}
}

func (v *StripeVerifier) Verify(payload []byte, signatureHeader string) (*Event, error) {
	if v.secret == "" {
		return nil, model.NewConfigurationError("webhook signing secret is not set")
	}
	if signatureHeader == "" {
		return nil, model.WrapDomainError(model.ErrCodeSignatureVerification,
			"Webhook signature verification failed", errors.New("missing signature header"))
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, model.WrapDomainError(model.ErrCodeSignatureVerification,
			"Webhook signature verification failed", err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && event.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, model.WrapDomainError(model.ErrCodeMalformedMetadata,
				"Event payload is not a payment intent", err)
		}
		out.Intent = toModelIntent(&pi)
	}
	return out, nil
}

func toModelIntent(pi *stripe.PaymentIntent) *model.PaymentIntent {
	out := &model.PaymentIntent{
		ID:               pi.ID,
		ClientSecret:     pi.ClientSecret,
		AmountMinorUnits: pi.Amount,
		Currency:         string(pi.Currency),
		Status:           string(pi.Status),
		Metadata:         pi.Metadata,
		PaymentMethod:    "card",
	}
	if len(pi.PaymentMethodTypes) > 0 {
		out.PaymentMethod = pi.PaymentMethodTypes[0]
	}
	return out
}

// isProviderHealthy tells the breaker which errors are the caller's fault.
// Those do not count toward tripping.
func isProviderHealthy(err error) bool {
	if err == nil {
		return true
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		status := stripeErr.HTTPStatusCode
		return status >= 400 && status < 500 && status != http.StatusTooManyRequests
	}
	return false
}

func providerError(msg string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return model.NewUpstreamError("payment provider temporarily unavailable", err)
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return model.NewUpstreamError(msg, fmt.Errorf("%s (code=%s, status=%d)",
			stripeErr.Msg, stripeErr.Code, stripeErr.HTTPStatusCode))
	}
	return model.NewUpstreamError(msg, err)
}
