package payment

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

const (
	// FieldLimit is the longest value, in bytes, the provider accepts for a
	// single metadata key.
	FieldLimit = 500

	// MaxKeys is the provider's cap on metadata keys per object.
	MaxKeys = 50

	partsSuffix = "_parts"
)

// Metadata keys. Values longer than FieldLimit are stored as <key>_0 ..
// <key>_n with <key>_parts holding n+1.
const (
	KeyOrderID          = "orderId"
	KeyEmail            = "email"
	KeyCurrency         = "currency"
	KeyItems            = "items"
	KeySubtotal         = "subtotal"
	KeyDiscount         = "discount"
	KeyTaxes            = "taxes"
	KeyShipping         = "shipping"
	KeyTotal            = "total"
	KeyPromoCode        = "promoCode"
	KeyShippingFirst    = "shippingFirstName"
	KeyShippingLast     = "shippingLastName"
	KeyShippingAddress  = "shippingAddress"
	KeyShippingAddress2 = "shippingAddress2"
	KeyShippingCity     = "shippingCity"
	KeyShippingProvince = "shippingProvince"
	KeyShippingPostal   = "shippingPostal"
	KeyShippingCountry  = "shippingCountry"
	KeyShippingNotes    = "shippingNotes"

	// keyShippingName is the single-field form older checkouts sent.
	keyShippingName = "shippingName"
)

type field struct {
	key   string
	value string
}

// EncodeMetadata flattens order metadata into provider metadata. No value in
// the result is longer than FieldLimit and the result has at most MaxKeys
// keys, otherwise ErrMetadataTooLarge is returned.
func EncodeMetadata(md model.OrderMetadata) (map[string]string, error) {
	items := md.Items
	if items == nil {
		items = []model.OrderItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}

	addr := md.ShippingAddress
	fields := []field{
		{KeyOrderID, md.OrderID},
		{KeyEmail, md.Email},
		{KeyCurrency, strings.ToLower(md.Currency)},
		{KeyItems, string(itemsJSON)},
		{KeySubtotal, md.Subtotal.StringFixed(2)},
		{KeyDiscount, md.Discount.StringFixed(2)},
		{KeyTaxes, md.Taxes.StringFixed(2)},
		{KeyShipping, md.Shipping.StringFixed(2)},
		{KeyTotal, md.Total.StringFixed(2)},
		{KeyPromoCode, md.PromoCode},
		{KeyShippingFirst, addr.FirstName},
		{KeyShippingLast, addr.LastName},
		{KeyShippingAddress, addr.Address1},
		{KeyShippingAddress2, addr.Address2},
		{KeyShippingCity, addr.City},
		{KeyShippingProvince, addr.Province},
		{KeyShippingPostal, addr.Postal},
		{KeyShippingCountry, addr.Country},
		{KeyShippingNotes, addr.Notes},
	}

	out := make(map[string]string, len(fields))
	for _, f := range fields {
		splitInto(out, f.key, f.value)
	}
	if len(out) > MaxKeys {
		return nil, fmt.Errorf("%d keys: %w", len(out), model.ErrMetadataTooLarge)
	}
	return out, nil
}

// SplitMetadata applies the field split to an arbitrary metadata map. An
// input key that matches a part name generated for another key is a
// ValidationError.
func SplitMetadata(in map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for k, v := range in {
		parts := make(map[string]string, 1)
		splitInto(parts, k, v)
		for pk, pv := range parts {
			if _, clash := in[pk]; clash && pk != k {
				return nil, model.NewValidationError(
					fmt.Sprintf("metadata key %q collides with the split parts of %q", pk, k))
			}
			out[pk] = pv
		}
	}
	if len(out) > MaxKeys {
		return nil, fmt.Errorf("%d keys: %w", len(out), model.ErrMetadataTooLarge)
	}
	return out, nil
}

// splitInto stores value under key, or as numbered parts when it is longer
// than FieldLimit. Parts never cut a UTF-8 sequence. Empty values are omitted.
func splitInto(out map[string]string, key, value string) {
	if value == "" {
		return
	}
	if len(value) <= FieldLimit {
		out[key] = value
		return
	}

	n := 0
	for len(value) > 0 {
		cut := min(FieldLimit, len(value))
		for cut < len(value) && cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		out[key+"_"+strconv.Itoa(n)] = value[:cut]
		value = value[cut:]
		n++
	}
	out[key+partsSuffix] = strconv.Itoa(n)
}

// joinField reads key back, reassembling numbered parts when present.
func joinField(in map[string]string, key string) (string, error) {
	raw, split := in[key+partsSuffix]
	if !split {
		return in[key], nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxKeys {
		return "", fmt.Errorf("%s has invalid part count %q", key, raw)
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		part, ok := in[key+"_"+strconv.Itoa(i)]
		if !ok {
			return "", fmt.Errorf("%s is missing part %d of %d", key, i, n)
		}
		b.WriteString(part)
	}
	return b.String(), nil
}

// DecodeMetadata rebuilds order metadata from provider metadata. orderId and
// email are required; a missing value for any amount decodes as zero.
func DecodeMetadata(in map[string]string) (model.OrderMetadata, error) {
	var md model.OrderMetadata

	get := func(key string) (string, error) {
		v, err := joinField(in, key)
		if err != nil {
			return "", model.WrapDomainError(model.ErrCodeMalformedMetadata, "Order metadata is malformed", err)
		}
		return v, nil
	}

	values := make(map[string]string, 19)
	for _, key := range []string{
		KeyOrderID, KeyEmail, KeyCurrency, KeyItems, KeySubtotal, KeyDiscount, KeyTaxes,
		KeyShipping, KeyTotal, KeyPromoCode, KeyShippingFirst, KeyShippingLast,
		KeyShippingAddress, KeyShippingAddress2, KeyShippingCity, KeyShippingProvince,
		KeyShippingPostal, KeyShippingCountry, KeyShippingNotes,
	} {
		v, err := get(key)
		if err != nil {
			return md, err
		}
		values[key] = v
	}

	md.OrderID = strings.TrimSpace(values[KeyOrderID])
	md.Email = strings.TrimSpace(values[KeyEmail])
	if md.OrderID == "" || md.Email == "" {
		return md, model.WrapDomainError(model.ErrCodeMalformedMetadata, "Order metadata is malformed",
			fmt.Errorf("orderId and email are required"))
	}
	md.Currency = values[KeyCurrency]
	md.PromoCode = values[KeyPromoCode]

	md.Items = []model.OrderItem{}
	if raw := values[KeyItems]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &md.Items); err != nil {
			return md, model.WrapDomainError(model.ErrCodeMalformedMetadata, "Order metadata is malformed",
				fmt.Errorf("items: %w", err))
		}
	}

	amounts := []struct {
		key string
		dst *decimal.Decimal
	}{
		{KeySubtotal, &md.Subtotal},
		{KeyDiscount, &md.Discount},
		{KeyTaxes, &md.Taxes},
		{KeyShipping, &md.Shipping},
		{KeyTotal, &md.Total},
	}
	for _, a := range amounts {
		raw := strings.TrimSpace(values[a.key])
		if raw == "" {
			*a.dst = decimal.Zero
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return md, model.WrapDomainError(model.ErrCodeMalformedMetadata, "Order metadata is malformed",
				fmt.Errorf("%s: %w", a.key, err))
		}
		*a.dst = d
	}

	md.ShippingAddress = model.ShippingAddress{
		FirstName: values[KeyShippingFirst],
		LastName:  values[KeyShippingLast],
		Address1:  values[KeyShippingAddress],
		Address2:  values[KeyShippingAddress2],
		City:      values[KeyShippingCity],
		Province:  values[KeyShippingProvince],
		Postal:    values[KeyShippingPostal],
		Country:   values[KeyShippingCountry],
		Notes:     values[KeyShippingNotes],
	}
	if md.ShippingAddress.FirstName == "" && md.ShippingAddress.LastName == "" {
		if name := strings.Fields(in[keyShippingName]); len(name) > 0 {
			md.ShippingAddress.FirstName = name[0]
			md.ShippingAddress.LastName = strings.Join(name[1:], " ")
		}
	}

	return md, nil
}
