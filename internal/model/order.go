package model

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus mirrors the provider-side state of the order's payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// ParseOrderStatus validates a raw status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch status := OrderStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return status, nil
	}
	return "", ErrInvalidStatus
}

// CanTransitionTo reports whether the strict fulfilment state machine allows
// moving from s to next. Delivered and cancelled are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case OrderStatusPending:
		return next == OrderStatusProcessing || next == OrderStatusCancelled
	case OrderStatusProcessing:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered || next == OrderStatusCancelled
	}
	return false
}

// Order is a persisted customer order. Items is a snapshot of the cart at
// payment time, not a reference to live cart lines.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OrderID         string          `json:"orderId" db:"order_id"`
	Email           string          `json:"email" db:"email"`
	Items           []OrderItem     `json:"items" db:"items"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount        decimal.Decimal `json:"discount" db:"discount"`
	Taxes           decimal.Decimal `json:"taxes" db:"taxes"`
	Shipping        decimal.Decimal `json:"shipping" db:"shipping"`
	Total           decimal.Decimal `json:"total" db:"total"`
	Currency        string          `json:"currency" db:"currency"`
	Status          OrderStatus     `json:"status" db:"status"`
	ShippingAddress ShippingAddress `json:"shippingAddress" db:"shipping_address"`
	PaymentIntentID string          `json:"paymentIntentId,omitempty" db:"payment_intent_id"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus,omitempty" db:"payment_status"`
	PaymentMethod   string          `json:"paymentMethod,omitempty" db:"payment_method"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item snapshot in an order.
type OrderItem struct {
	ID       string          `json:"id" validate:"required"`
	Name     string          `json:"name" validate:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" validate:"min=1"`
	Category string          `json:"category,omitempty"`
	Size     string          `json:"size,omitempty"`
}

// LineTotal returns price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ShippingAddress is the destination of an order.
type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	Province  string `json:"province"`
	Postal    string `json:"postal"`
	Country   string `json:"country,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// FullName joins first and last name.
func (a ShippingAddress) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// OrderMetadata is the order data the checkout attaches to a payment intent.
// The webhook rebuilds the order from it once payment succeeds.
type OrderMetadata struct {
	OrderID         string          `json:"orderId"`
	Email           string          `json:"email" validate:"required,email"`
	Currency        string          `json:"currency,omitempty"`
	Items           []OrderItem     `json:"items" validate:"required,min=1,dive"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	Taxes           decimal.Decimal `json:"taxes"`
	Shipping        decimal.Decimal `json:"shipping"`
	Total           decimal.Decimal `json:"total"`
	PromoCode       string          `json:"promoCode,omitempty"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
}

// UpdateStatusRequest is the payload for an admin status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

const orderIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewOrderID generates a short human-readable order identifier such as
// "KX-7HQ2MZ". Ambiguous characters (0/O, 1/I) are excluded.
func NewOrderID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "KX-" + strings.ToUpper(uuid.NewString()[:6])
	}
	for i, b := range buf {
		buf[i] = orderIDAlphabet[int(b)%len(orderIDAlphabet)]
	}
	return "KX-" + string(buf)
}
