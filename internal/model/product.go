package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents an item in the storefront catalogue.
type Product struct {
	ID          string           `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description string           `json:"description" db:"description"`
	Price       decimal.Decimal  `json:"price" db:"price"`
	Cost        *decimal.Decimal `json:"cost,omitempty" db:"cost"`
	Category    string           `json:"category" db:"category"`
	ImageURL    string           `json:"imageUrl" db:"image_url"`
	Stock       int              `json:"stock" db:"stock"`
	Sizes       []ProductSize    `json:"sizes" db:"sizes"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time        `json:"updatedAt" db:"updated_at"`
}

// ProductSize is a size variant with its own price.
type ProductSize struct {
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// ProductRequest is the admin payload for creating or replacing a product.
type ProductRequest struct {
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Cost        *decimal.Decimal `json:"cost,omitempty"`
	Category    string           `json:"category" validate:"required"`
	ImageURL    string           `json:"imageUrl"`
	Stock       int              `json:"stock" validate:"min=0"`
	Sizes       []ProductSize    `json:"sizes"`
}
