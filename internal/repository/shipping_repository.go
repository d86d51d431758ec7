package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const shippingColumns = `id, name, country_code, price, created_at, updated_at`

type shippingRateRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewShippingRateRepository creates a new PostgreSQL-backed shipping rate repository.
func NewShippingRateRepository(pool *pgxpool.Pool, logger zerolog.Logger) ShippingRateRepository {
	return &shippingRateRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "shipping_rate").Logger(),
	}
}

func scanRate(row pgx.Row) (*model.ShippingRate, error) {
	var rate model.ShippingRate
	if err := row.Scan(&rate.ID, &rate.Name, &rate.CountryCode, &rate.Price, &rate.CreatedAt, &rate.UpdatedAt); err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *shippingRateRepository) List(ctx context.Context) ([]model.ShippingRate, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+shippingColumns+` FROM shipping_rates ORDER BY country_code`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query shipping rates")
		return nil, fmt.Errorf("failed to query shipping rates: %w", err)
	}
	defer rows.Close()

	rates := []model.ShippingRate{}
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shipping rate: %w", err)
		}
		rates = append(rates, *rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shipping rates: %w", err)
	}
	return rates, nil
}

func (r *shippingRateRepository) GetByCountry(ctx context.Context, countryCode string) (*model.ShippingRate, error) {
	rate, err := scanRate(r.pool.QueryRow(ctx,
		`SELECT `+shippingColumns+` FROM shipping_rates WHERE country_code = $1`, countryCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("country_code", countryCode).Msg("failed to query shipping rate")
		return nil, fmt.Errorf("failed to query shipping rate: %w", err)
	}
	return rate, nil
}

func (r *shippingRateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ShippingRate, error) {
	rate, err := scanRate(r.pool.QueryRow(ctx,
		`SELECT `+shippingColumns+` FROM shipping_rates WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query shipping rate: %w", err)
	}
	return rate, nil
}

func (r *shippingRateRepository) Create(ctx context.Context, rate *model.ShippingRate) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO shipping_rates (id, name, country_code, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rate.ID, rate.Name, rate.CountryCode, rate.Price, rate.CreatedAt, rate.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewValidationError(fmt.Sprintf("a shipping rate for %s already exists", rate.CountryCode))
		}
		r.logger.Error().Err(err).Str("country_code", rate.CountryCode).Msg("failed to create shipping rate")
		return fmt.Errorf("failed to create shipping rate: %w", err)
	}
	return nil
}

func (r *shippingRateRepository) Update(ctx context.Context, rate *model.ShippingRate) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE shipping_rates
		SET name = $2, country_code = $3, price = $4, updated_at = $5
		WHERE id = $1
		RETURNING created_at`,
		rate.ID, rate.Name, rate.CountryCode, rate.Price, rate.UpdatedAt).Scan(&rate.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrShippingRateNotFound
		}
		if isUniqueViolation(err) {
			return model.NewValidationError(fmt.Sprintf("a shipping rate for %s already exists", rate.CountryCode))
		}
		return fmt.Errorf("failed to update shipping rate: %w", err)
	}
	return nil
}

func (r *shippingRateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM shipping_rates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shipping rate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrShippingRateNotFound
	}
	return nil
}
