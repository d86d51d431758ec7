package service

import (
	"context"

	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// PaymentService creates payment intents and attaches order metadata to them.
type PaymentService interface {
	// CreateIntent opens a payment intent for the checkout total. The amount
	// is validated before any provider call.
	CreateIntent(ctx context.Context, req *model.CreateIntentRequest) (*model.CreateIntentResponse, error)

	// AttachMetadata stores the order on an existing intent, assigning an
	// order id when the request has none. It never changes the amount.
	AttachMetadata(ctx context.Context, req *model.UpdateIntentRequest) (*model.UpdateIntentResponse, error)
}

// WebhookService turns verified provider events into orders.
type WebhookService interface {
	// ProcessWebhook verifies and handles one delivery. A nil error means the
	// delivery may be acknowledged.
	ProcessWebhook(ctx context.Context, payload []byte, signature string) (*model.WebhookResult, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	List(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error)

	// GetByOrderID returns ErrOrderNotFound when no order matches.
	GetByOrderID(ctx context.Context, orderID string) (*model.Order, error)

	// UpdateStatus changes the fulfilment status of an order.
	UpdateStatus(ctx context.Context, orderID, status string) (*model.Order, error)

	ListDeadLetters(ctx context.Context, limit int) ([]model.DeadLetter, error)
}

// ProductService defines operations for product management.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID returns ErrProductNotFound when no product matches.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)
	Update(ctx context.Context, id string, req *model.ProductRequest) (*model.Product, error)
	Delete(ctx context.Context, id string) error
}

// ShippingService resolves and administers shipping rates.
type ShippingService interface {
	// Quote resolves the rate for a country: exact match, then the "*" rate,
	// then the configured default.
	Quote(ctx context.Context, countryCode string) (*model.ShippingQuote, error)

	ListRates(ctx context.Context) (*model.ShippingRateList, error)
	CreateRate(ctx context.Context, req *model.ShippingRateRequest) (*model.ShippingRate, error)
	UpdateRate(ctx context.Context, id uuid.UUID, req *model.ShippingRateRequest) (*model.ShippingRate, error)
	DeleteRate(ctx context.Context, id uuid.UUID) error
}

// CheckoutService prices a cart before payment.
type CheckoutService interface {
	Quote(ctx context.Context, req *model.QuoteRequest) (*pricing.Quote, error)
}
