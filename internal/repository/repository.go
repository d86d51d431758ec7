package repository

import (
	"context"
	"errors"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves products with pagination support, newest first.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. A missing product is (nil, nil).
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	Create(ctx context.Context, product *model.Product) error

	// Update replaces a product. It returns ErrProductNotFound when no row matches.
	Update(ctx context.Context, product *model.Product) error

	Delete(ctx context.Context, id string) error
}

// OrderFilter narrows an order listing.
type OrderFilter struct {
	Email  string
	Limit  int
	Offset int
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Create inserts order keyed by its external order id. When an order with
	// the same order id already exists nothing is written and created is false.
	Create(ctx context.Context, order *model.Order) (created bool, err error)

	// GetByOrderID retrieves an order by its external id. A missing order is (nil, nil).
	GetByOrderID(ctx context.Context, orderID string) (*model.Order, error)

	// GetByOrderIDForUpdate reads and row-locks an order inside tx.
	GetByOrderIDForUpdate(ctx context.Context, tx pgx.Tx, orderID string) (*model.Order, error)

	// List returns orders newest first.
	List(ctx context.Context, filter OrderFilter) ([]model.Order, error)

	// UpdateStatus sets the fulfilment status inside tx and returns the updated order.
	UpdateStatus(ctx context.Context, tx pgx.Tx, orderID string, status model.OrderStatus) (*model.Order, error)
}

// ShippingRateRepository defines the interface for shipping rate data access.
type ShippingRateRepository interface {
	List(ctx context.Context) ([]model.ShippingRate, error)

	// GetByCountry returns the rate for an exact country code, or (nil, nil).
	GetByCountry(ctx context.Context, countryCode string) (*model.ShippingRate, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.ShippingRate, error)

	Create(ctx context.Context, rate *model.ShippingRate) error

	// Update replaces a rate. It returns ErrShippingRateNotFound when no row matches.
	Update(ctx context.Context, rate *model.ShippingRate) error

	Delete(ctx context.Context, id uuid.UUID) error
}

// DeadLetterRepository stores webhook events that could not become orders.
type DeadLetterRepository interface {
	Create(ctx context.Context, dl *model.DeadLetter) error
	List(ctx context.Context, limit int) ([]model.DeadLetter, error)
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
