package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCountryCode marks the fallback shipping rate.
const DefaultCountryCode = "*"

// ShippingRate is the shipping price for a destination country.
type ShippingRate struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	CountryCode string          `json:"country_code" db:"country_code"`
	Price       decimal.Decimal `json:"price" db:"price"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// IsDefault reports whether the rate applies to any country.
func (r ShippingRate) IsDefault() bool {
	return r.CountryCode == DefaultCountryCode
}

// ShippingRateRequest is the admin payload for creating or updating a rate.
// Nil fields are left unchanged on update.
type ShippingRateRequest struct {
	Name        *string          `json:"name"`
	CountryCode *string          `json:"country_code"`
	Price       *decimal.Decimal `json:"price"`
}

// ShippingQuote is the public answer to a rate lookup for one country.
type ShippingQuote struct {
	Price       decimal.Decimal `json:"price"`
	Name        string          `json:"name"`
	CountryCode string          `json:"country_code"`
}

// NormaliseCountryCode upper-cases and trims a code; empty becomes "*".
func NormaliseCountryCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCountryCode
	}
	return code
}
