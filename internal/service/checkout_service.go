package service

import (
	"context"
	"fmt"

	"storefront/internal/cart"
	"storefront/internal/coupon"
	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

type checkoutService struct {
	productRepo repository.ProductRepository
	shipping    ShippingService
	promos      coupon.Resolver
	calculator  *pricing.Calculator
	logger      zerolog.Logger
}

func NewCheckoutService(
	productRepo repository.ProductRepository,
	shipping ShippingService,
	promos coupon.Resolver,
	calculator *pricing.Calculator,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		productRepo: productRepo,
		shipping:    shipping,
		promos:      promos,
		calculator:  calculator,
		logger:      logger.With().Str("service", "checkout").Logger(),
	}
}

// Quote prices the submitted lines from the catalogue, then applies the
// promo code and the destination's shipping rate.
func (s *checkoutService) Quote(ctx context.Context, req *model.QuoteRequest) (*pricing.Quote, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, model.NewValidationError("at least one item is required")
	}

	ids := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ID)
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to get products for quote")
		return nil, fmt.Errorf("failed to price cart: %w", err)
	}
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	basket := cart.New(nil)
	for _, it := range req.Items {
		p, ok := byID[it.ID]
		if !ok {
			return nil, model.WrapDomainError(model.ErrCodeProductNotFound, "Product not found",
				fmt.Errorf("product %s", it.ID))
		}
		line := cart.Item{
			ID:        p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  it.Quantity,
			Category:  p.Category,
		}
		if it.Size != "" {
			size, ok := findSize(p, it.Size)
			if !ok {
				return nil, model.NewValidationError(fmt.Sprintf("product %s has no size %q", p.ID, it.Size))
			}
			line.Size = size.Label
			line.UnitPrice = size.Price
		}
		if err := basket.AddItem(line); err != nil {
			return nil, err
		}
	}

	subtotal := basket.Subtotal()

	discount, err := s.promos.Resolve(ctx, req.PromoCode, subtotal)
	if err != nil {
		return nil, err
	}

	shipping, err := s.shipping.Quote(ctx, req.Country)
	if err != nil {
		return nil, err
	}

	quote := s.calculator.Quote(pricing.Input{
		Subtotal:  subtotal,
		Discount:  discount,
		Shipping:  shipping.Price,
		ItemCount: basket.ItemCount(),
	})
	return &quote, nil
}

func findSize(p model.Product, label string) (model.ProductSize, bool) {
	for _, size := range p.Sizes {
		if size.Label == label {
			return size, true
		}
	}
	return model.ProductSize{}, false
}
