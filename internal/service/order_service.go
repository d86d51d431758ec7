package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	deadLetters repository.DeadLetterRepository
	strict      bool
	logger      zerolog.Logger
}

// NewOrderService creates a new order service. With strict set, status
// changes must follow the fulfilment state machine.
func NewOrderService(
	orderRepo repository.OrderRepository,
	deadLetters repository.DeadLetterRepository,
	strict bool,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		deadLetters: deadLetters,
		strict:      strict,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

func (s *orderService) List(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	filter.Email = strings.TrimSpace(filter.Email)
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) GetByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus locks the order row, checks the transition when strict, and
// writes the new status in one transaction.
func (s *orderService) UpdateStatus(ctx context.Context, orderID, status string) (updated *model.Order, err error) {
	next, err := model.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	current, err := s.orderRepo.GetByOrderIDForUpdate(ctx, tx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if current == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}

	if s.strict && !current.Status.CanTransitionTo(next) {
		s.logger.Warn().
			Str("order_id", orderID).
			Str("from", string(current.Status)).
			Str("to", string(next)).
			Msg("status transition rejected")
		err = model.WrapDomainError(model.ErrCodeInvalidTransition, "Status transition is not allowed",
			fmt.Errorf("%s -> %s", current.Status, next))
		return nil, err
	}

	updated, err = s.orderRepo.UpdateStatus(ctx, tx, orderID, next)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID).
		Str("from", string(current.Status)).
		Str("to", string(next)).
		Msg("order status updated")

	return updated, nil
}

func (s *orderService) ListDeadLetters(ctx context.Context, limit int) ([]model.DeadLetter, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	letters, err := s.deadLetters.List(ctx, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list dead letters")
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}
	return letters, nil
}
