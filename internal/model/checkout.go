package model

import "github.com/shopspring/decimal"

// QuoteItem is a cart line submitted for pricing. Prices are looked up
// server-side; the client only names products.
type QuoteItem struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size,omitempty"`
}

// QuoteRequest is the payload of POST /checkout/quote.
type QuoteRequest struct {
	Items     []QuoteItem `json:"items" validate:"required,min=1,dive"`
	Country   string      `json:"country"`
	PromoCode string      `json:"promoCode,omitempty"`
}

// ShippingRateList is the public rate table.
type ShippingRateList struct {
	Rates        []ShippingRate  `json:"rates"`
	DefaultPrice decimal.Decimal `json:"defaultPrice"`
}
