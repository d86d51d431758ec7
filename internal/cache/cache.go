// Package cache keeps hot lookups out of PostgreSQL.
package cache

import (
	"context"
	"errors"

	"storefront/internal/model"
)

var ErrCacheMiss = errors.New("cache miss")

// ShippingCache caches resolved shipping quotes per country code.
type ShippingCache interface {
	Get(ctx context.Context, countryCode string) (*model.ShippingQuote, error)
	Set(ctx context.Context, countryCode string, quote *model.ShippingQuote) error

	// Invalidate drops every cached quote. Called after any rate changes.
	Invalidate(ctx context.Context) error
}

// NopShippingCache is used when Redis is disabled. Every Get misses.
type NopShippingCache struct{}

func (NopShippingCache) Get(context.Context, string) (*model.ShippingQuote, error) {
	return nil, ErrCacheMiss
}

func (NopShippingCache) Set(context.Context, string, *model.ShippingQuote) error { return nil }

func (NopShippingCache) Invalidate(context.Context) error { return nil }
