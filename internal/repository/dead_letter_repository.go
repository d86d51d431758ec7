package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type deadLetterRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDeadLetterRepository creates a new PostgreSQL-backed dead letter repository.
func NewDeadLetterRepository(pool *pgxpool.Pool, logger zerolog.Logger) DeadLetterRepository {
	return &deadLetterRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "dead_letter").Logger(),
	}
}

func (r *deadLetterRepository) Create(ctx context.Context, dl *model.DeadLetter) error {
	payload := []byte(dl.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_dead_letters (id, event_id, event_type, payment_intent_id, reason, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		dl.ID, dl.EventID, dl.EventType, dl.PaymentIntentID, dl.Reason, payload, dl.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("event_id", dl.EventID).Msg("failed to record dead letter")
		return fmt.Errorf("failed to record dead letter: %w", err)
	}
	return nil
}

func (r *deadLetterRepository) List(ctx context.Context, limit int) ([]model.DeadLetter, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id, event_type, payment_intent_id, reason, payload, created_at
		FROM webhook_dead_letters
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query dead letters: %w", err)
	}
	defer rows.Close()

	letters := []model.DeadLetter{}
	for rows.Next() {
		var (
			dl      model.DeadLetter
			payload []byte
		)
		if err := rows.Scan(&dl.ID, &dl.EventID, &dl.EventType, &dl.PaymentIntentID, &dl.Reason, &payload, &dl.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dead letter: %w", err)
		}
		dl.Payload = payload
		letters = append(letters, dl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dead letters: %w", err)
	}
	return letters, nil
}
