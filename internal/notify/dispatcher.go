// Package notify sends order emails to the customer and the store owner.
// Delivery is best effort: failures are reported to the caller, which logs
// them, and never undo an order.
package notify

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// Config controls who emails come from and go to.
type Config struct {
	From       string
	OwnerEmail string
	SiteURL    string
}

// Notifier announces a newly placed order.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *model.Order) error
}

// Dispatcher implements Notifier. A nil sender means email is not configured
// and every send is skipped with a warning.
type Dispatcher struct {
	sender Sender
	cfg    Config
	logger zerolog.Logger
}

func NewDispatcher(sender Sender, cfg Config, logger zerolog.Logger) *Dispatcher {
	if cfg.From == "" {
		cfg.From = "Storefront <onboarding@resend.dev>"
	}
	return &Dispatcher{
		sender: sender,
		cfg:    cfg,
		logger: logger.With().Str("component", "notify").Logger(),
	}
}

// OrderPlaced sends the customer confirmation and the owner notification.
// Both are attempted; the returned error wraps ErrNotification and joins
// every failure.
func (d *Dispatcher) OrderPlaced(ctx context.Context, order *model.Order) error {
	if d.sender == nil {
		d.logger.Warn().
			Str("order_id", order.OrderID).
			Msg("email not sent: RESEND_API_KEY is not set")
		return nil
	}

	view := newEmailView(order, d.cfg.SiteURL)
	var errs []error

	if err := d.send(ctx, "confirmation", order.Email,
		fmt.Sprintf("Order confirmed - %s", order.OrderID), view); err != nil {
		errs = append(errs, fmt.Errorf("customer confirmation: %w", err))
	}

	if d.cfg.OwnerEmail == "" {
		d.logger.Warn().
			Str("order_id", order.OrderID).
			Msg("owner notification not sent: ORDER_NOTIFICATION_EMAIL is not set")
	} else if err := d.send(ctx, "owner", d.cfg.OwnerEmail,
		fmt.Sprintf("New order %s - %s", order.OrderID, view.Total), view); err != nil {
		errs = append(errs, fmt.Errorf("owner notification: %w", err))
	}

	if len(errs) > 0 {
		return model.WrapDomainError(model.ErrCodeNotification, "Notification could not be sent", errors.Join(errs...))
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, template, to, subject string, view emailView) error {
	html, text, err := render(template, view)
	if err != nil {
		return err
	}

	id, err := d.sender.Send(ctx, Email{
		From:    d.cfg.From,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		return err
	}

	d.logger.Info().
		Str("order_id", view.OrderID).
		Str("template", template).
		Str("message_id", id).
		Msg("email sent")
	return nil
}
