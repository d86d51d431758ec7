package coupon

import (
	"context"
	"fmt"
	"sync"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	MinCodeLength = 4
	MaxCodeLength = 32
)

// resolver implements Resolver over catalogs loaded at start-up.
type resolver struct {
	catalogs []Catalog
	logger   zerolog.Logger
}

// NewResolver loads every catalog in filePaths concurrently. With no paths
// the resolver accepts any code as a zero discount. When the same code
// appears in several catalogs the later file wins.
func NewResolver(ctx context.Context, filePaths []string, loader Loader, logger zerolog.Logger) (Resolver, error) {
	logger = logger.With().Str("component", "promo-resolver").Logger()

	type loadResult struct {
		index   int
		catalog Catalog
		err     error
	}

	resultChan := make(chan loadResult, len(filePaths))
	var wg sync.WaitGroup

	for i, path := range filePaths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()
			catalog, err := loader.Load(ctx, path)
			resultChan <- loadResult{index: index, catalog: catalog, err: err}
		}(i, path)
	}

	wg.Wait()
	close(resultChan)

	results := make([]loadResult, len(filePaths))
	for result := range resultChan {
		results[result.index] = result
	}

	r := &resolver{
		catalogs: make([]Catalog, 0, len(filePaths)),
		logger:   logger,
	}
	total := 0
	for i, result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("failed to load promo catalog %s: %w", filePaths[i], result.err)
		}
		r.catalogs = append(r.catalogs, result.catalog)
		total += result.catalog.Size()
	}

	logger.Info().
		Int("catalogs", len(r.catalogs)).
		Int("total_promos", total).
		Msg("promo resolver initialised")

	return r, nil
}

func (r *resolver) Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	code = NormaliseCode(code)
	if code == "" {
		return decimal.Zero, nil
	}

	// Without a catalog codes are accepted but grant nothing.
	if len(r.catalogs) == 0 {
		r.logger.Debug().Str("promo_code", code).Msg("no promo catalog configured, ignoring code")
		return decimal.Zero, nil
	}

	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return decimal.Zero, model.ErrInvalidPromoCode
	}

	for i := len(r.catalogs) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return decimal.Zero, err
		}
		if promo, ok := r.catalogs[i].Lookup(code); ok {
			discount := promo.Discount(subtotal)
			r.logger.Debug().
				Str("promo_code", code).
				Str("discount", discount.StringFixed(2)).
				Msg("promo code applied")
			return discount, nil
		}
	}

	return decimal.Zero, model.ErrInvalidPromoCode
}

func (r *resolver) Close() error {
	r.catalogs = nil
	return nil
}
