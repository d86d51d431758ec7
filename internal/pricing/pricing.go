// Package pricing computes checkout totals.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Quote is the breakdown of a checkout total. All amounts are rounded to
// minor units (two decimal places).
type Quote struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Taxes     decimal.Decimal `json:"taxes"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

// Input is everything the calculator needs for one quote.
type Input struct {
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Shipping  decimal.Decimal
	ItemCount int
}

// Config holds the tax rule and the free-shipping heuristic.
type Config struct {
	// TaxRate applies to max(0, subtotal - discount). Zero disables taxes.
	TaxRate decimal.Decimal

	// FreeShippingThreshold waives shipping when the subtotal reaches it.
	// Zero disables the threshold.
	FreeShippingThreshold decimal.Decimal
}

// Calculator produces quotes:
//
//	total = max(0, subtotal - discount + taxes) + shipping
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator with the given tax and shipping rules.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Quote computes the totals for in. Negative discounts and shipping prices
// are treated as zero.
func (c *Calculator) Quote(in Input) Quote {
	subtotal := round(in.Subtotal)
	discount := round(nonNegative(in.Discount))
	shipping := round(nonNegative(in.Shipping))

	if c.cfg.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(c.cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	taxable := nonNegative(subtotal.Sub(discount))
	taxes := round(taxable.Mul(nonNegative(c.cfg.TaxRate)))

	total := nonNegative(subtotal.Sub(discount).Add(taxes)).Add(shipping)

	return Quote{
		Subtotal:  subtotal,
		Discount:  discount,
		Taxes:     taxes,
		Shipping:  shipping,
		Total:     round(total),
		ItemCount: in.ItemCount,
	}
}

// MaxMinorUnits is the largest amount the payment provider accepts for a
// single intent. Callers check against it before converting.
const MaxMinorUnits int64 = 99_999_999

// ExceedsMaxAmount reports whether a major-unit amount is above MaxMinorUnits.
func ExceedsMaxAmount(amount decimal.Decimal) bool {
	return amount.GreaterThan(FromMinorUnits(MaxMinorUnits))
}

// ToMinorUnits converts a major-unit amount to the provider's integer
// representation (cents for two-decimal currencies).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
