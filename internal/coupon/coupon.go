package coupon

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is how a promo discount is computed.
type Kind string

const (
	KindPercent Kind = "percent"
	KindFixed   Kind = "fixed"
)

// Promo is a single catalog entry.
type Promo struct {
	Code  string
	Kind  Kind
	Value decimal.Decimal
}

// Discount returns the amount taken off subtotal. It never exceeds the
// subtotal and is rounded to cents.
func (p Promo) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() || !p.Value.IsPositive() {
		return decimal.Zero
	}

	var off decimal.Decimal
	switch p.Kind {
	case KindPercent:
		off = subtotal.Mul(p.Value).Div(decimal.NewFromInt(100))
	case KindFixed:
		off = p.Value
	default:
		return decimal.Zero
	}

	if off.GreaterThan(subtotal) {
		off = subtotal
	}
	return off.Round(2)
}

// ParsePromo parses a catalog line of the form CODE,percent|fixed,value.
func ParsePromo(line string) (Promo, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return Promo{}, fmt.Errorf("expected 3 fields, got %d", len(parts))
	}

	code := NormaliseCode(parts[0])
	if code == "" {
		return Promo{}, fmt.Errorf("empty promo code")
	}

	kind := Kind(strings.ToLower(strings.TrimSpace(parts[1])))
	if kind != KindPercent && kind != KindFixed {
		return Promo{}, fmt.Errorf("unknown promo kind %q", parts[1])
	}

	value, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
	if err != nil {
		return Promo{}, fmt.Errorf("invalid promo value %q: %w", parts[2], err)
	}
	if value.IsNegative() || (kind == KindPercent && value.GreaterThan(decimal.NewFromInt(100))) {
		return Promo{}, fmt.Errorf("promo value %s out of range", value)
	}

	return Promo{Code: code, Kind: kind, Value: value}, nil
}

// NormaliseCode trims and upper-cases a promo code.
func NormaliseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Resolver turns a shopper-entered promo code into a discount.
type Resolver interface {
	// Resolve returns the discount for code against subtotal. An empty code
	// is a zero discount.
	Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error)

	// Close releases resources held by the resolver.
	Close() error
}

// Catalog is a loaded set of promos for fast lookup.
type Catalog interface {
	// Lookup finds a promo by normalised code.
	Lookup(code string) (Promo, bool)

	// Size returns the number of promos in the catalog.
	Size() int
}

// Loader defines the interface for loading promo catalog files.
type Loader interface {
	// Load reads a gzipped catalog file and returns a Catalog.
	Load(ctx context.Context, filePath string) (Catalog, error)
}
