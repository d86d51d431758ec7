package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/cache"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultRateName = "Standard"

type shippingService struct {
	rateRepo     repository.ShippingRateRepository
	cache        cache.ShippingCache
	defaultPrice decimal.Decimal
	logger       zerolog.Logger
}

// NewShippingService creates a shipping service. defaultPrice applies when
// neither the country nor the "*" rate exists.
func NewShippingService(
	rateRepo repository.ShippingRateRepository,
	shippingCache cache.ShippingCache,
	defaultPrice decimal.Decimal,
	logger zerolog.Logger,
) ShippingService {
	if shippingCache == nil {
		shippingCache = cache.NopShippingCache{}
	}
	return &shippingService{
		rateRepo:     rateRepo,
		cache:        shippingCache,
		defaultPrice: defaultPrice,
		logger:       logger.With().Str("service", "shipping").Logger(),
	}
}

func (s *shippingService) Quote(ctx context.Context, countryCode string) (*model.ShippingQuote, error) {
	code := model.NormaliseCountryCode(countryCode)

	quote, err := s.cache.Get(ctx, code)
	if err == nil {
		return quote, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn().Err(err).Str("country_code", code).Msg("shipping cache unavailable")
	}

	rate, err := s.rateRepo.GetByCountry(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Str("country_code", code).Msg("failed to get shipping rate")
		return nil, fmt.Errorf("failed to get shipping rate: %w", err)
	}
	if rate == nil && code != model.DefaultCountryCode {
		rate, err = s.rateRepo.GetByCountry(ctx, model.DefaultCountryCode)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to get default shipping rate")
			return nil, fmt.Errorf("failed to get shipping rate: %w", err)
		}
	}

	if rate != nil {
		quote = &model.ShippingQuote{Price: rate.Price, Name: rate.Name, CountryCode: rate.CountryCode}
	} else {
		quote = &model.ShippingQuote{Price: s.defaultPrice, Name: defaultRateName, CountryCode: model.DefaultCountryCode}
	}

	if err := s.cache.Set(ctx, code, quote); err != nil {
		s.logger.Warn().Err(err).Str("country_code", code).Msg("failed to cache shipping quote")
	}
	return quote, nil
}

func (s *shippingService) ListRates(ctx context.Context) (*model.ShippingRateList, error) {
	rates, err := s.rateRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list shipping rates")
		return nil, fmt.Errorf("failed to list shipping rates: %w", err)
	}

	list := &model.ShippingRateList{Rates: rates, DefaultPrice: s.defaultPrice}
	for _, r := range rates {
		if r.IsDefault() {
			list.DefaultPrice = r.Price
			break
		}
	}
	return list, nil
}

func (s *shippingService) CreateRate(ctx context.Context, req *model.ShippingRateRequest) (*model.ShippingRate, error) {
	if req == nil || req.Name == nil || req.CountryCode == nil || req.Price == nil {
		return nil, model.NewValidationError("name, country_code and price are required")
	}

	now := time.Now()
	rate := &model.ShippingRate{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applyRateRequest(rate, req); err != nil {
		return nil, err
	}

	if err := s.rateRepo.Create(ctx, rate); err != nil {
		s.logger.Error().Err(err).Str("country_code", rate.CountryCode).Msg("failed to create shipping rate")
		return nil, fmt.Errorf("failed to create shipping rate: %w", err)
	}

	s.invalidate(ctx)
	return rate, nil
}

func (s *shippingService) UpdateRate(ctx context.Context, id uuid.UUID, req *model.ShippingRateRequest) (*model.ShippingRate, error) {
	if req == nil {
		return nil, model.NewValidationError("request body is required")
	}

	rate, err := s.rateRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("rate_id", id.String()).Msg("failed to get shipping rate")
		return nil, fmt.Errorf("failed to get shipping rate: %w", err)
	}
	if rate == nil {
		return nil, model.ErrShippingRateNotFound
	}

	if err := applyRateRequest(rate, req); err != nil {
		return nil, err
	}
	rate.UpdatedAt = time.Now()

	if err := s.rateRepo.Update(ctx, rate); err != nil {
		s.logger.Error().Err(err).Str("rate_id", id.String()).Msg("failed to update shipping rate")
		return nil, fmt.Errorf("failed to update shipping rate: %w", err)
	}

	s.invalidate(ctx)
	return rate, nil
}

func (s *shippingService) DeleteRate(ctx context.Context, id uuid.UUID) error {
	if err := s.rateRepo.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("rate_id", id.String()).Msg("failed to delete shipping rate")
		return fmt.Errorf("failed to delete shipping rate: %w", err)
	}

	s.invalidate(ctx)
	return nil
}

func (s *shippingService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate shipping cache")
	}
}

// applyRateRequest copies the non-nil fields of req onto rate.
func applyRateRequest(rate *model.ShippingRate, req *model.ShippingRateRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return model.NewValidationError("name cannot be empty")
		}
		rate.Name = name
	}
	if req.CountryCode != nil {
		rate.CountryCode = model.NormaliseCountryCode(*req.CountryCode)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return model.NewValidationError("price cannot be negative")
		}
		rate.Price = req.Price.Round(2)
	}
	return nil
}
