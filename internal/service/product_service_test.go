package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductService_GetAll(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	testProducts := []model.Product{
		{ID: "P001", Name: "Product 1", Price: decimal.RequireFromString("10.00"), Category: "Cat1", CreatedAt: time.Now()},
		{ID: "P002", Name: "Product 2", Price: decimal.RequireFromString("20.00"), Category: "Cat2", CreatedAt: time.Now()},
	}

	tests := []struct {
		name          string
		limit         int
		offset        int
		expectedLimit int
		mockReturn    []model.Product
		mockError     error
		expectError   bool
	}{
		{
			name:          "Success with valid pagination",
			limit:         10,
			offset:        0,
			expectedLimit: 10,
			mockReturn:    testProducts,
			mockError:     nil,
			expectError:   false,
		},
		{
			name:          "Success with zero limit defaults to 10",
			limit:         0,
			offset:        0,
			expectedLimit: 10,
			mockReturn:    testProducts,
			mockError:     nil,
			expectError:   false,
		},
		{
			name:          "Success with negative limit defaults to 10",
			limit:         -5,
			offset:        0,
			expectedLimit: 10,
			mockReturn:    testProducts,
			mockError:     nil,
			expectError:   false,
		},
		{
			name:          "Success with limit exceeding max caps at 100",
			limit:         200,
			offset:        0,
			expectedLimit: 100,
			mockReturn:    testProducts,
			mockError:     nil,
			expectError:   false,
		},
		{
			name:          "Success with negative offset defaults to 0",
			limit:         10,
			offset:        -10,
			expectedLimit: 10,
			mockReturn:    testProducts,
			mockError:     nil,
			expectError:   false,
		},
		{
			name:          "Repository error",
			limit:         10,
			offset:        0,
			expectedLimit: 10,
			mockReturn:    nil,
			mockError:     errors.New("database error"),
			expectError:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(mockRepo, logger)

			expectedOffset := tt.offset
			if expectedOffset < 0 {
				expectedOffset = 0
			}

			mockRepo.On("GetAll", ctx, tt.expectedLimit, expectedOffset).
				Return(tt.mockReturn, tt.mockError)

			products, err := service.GetAll(ctx, tt.limit, tt.offset)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, products)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.mockReturn, products)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProductService_GetByID(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	testProduct := &model.Product{
		ID:        "P001",
		Name:      "Product 1",
		Price:     decimal.RequireFromString("10.00"),
		Category:  "Cat1",
		CreatedAt: time.Now(),
	}

	tests := []struct {
		name        string
		productID   string
		mockReturn  *model.Product
		mockError   error
		expectError bool
		expectedErr error
	}{
		{
			name:        "Success",
			productID:   "P001",
			mockReturn:  testProduct,
			mockError:   nil,
			expectError: false,
		},
		{
			name:        "Product not found",
			productID:   "P999",
			mockReturn:  nil,
			mockError:   nil,
			expectError: true,
			expectedErr: model.ErrProductNotFound,
		},
		{
			name:        "Empty product ID",
			productID:   "",
			mockReturn:  nil,
			mockError:   nil,
			expectError: true,
			expectedErr: model.ErrProductNotFound,
		},
		{
			name:        "Repository error",
			productID:   "P001",
			mockReturn:  nil,
			mockError:   errors.New("database error"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(mockRepo, logger)

			if tt.productID != "" {
				mockRepo.On("GetByID", ctx, tt.productID).
					Return(tt.mockReturn, tt.mockError)
			}

			product, err := service.GetByID(ctx, tt.productID)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, product)
				if tt.expectedErr != nil {
					assert.Equal(t, tt.expectedErr, err)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.mockReturn, product)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func validProductRequest() *model.ProductRequest {
	return &model.ProductRequest{
		Name:     "  Bunny plush ",
		Price:    decimal.RequireFromString("19.999"),
		Category: "plush",
		Stock:    3,
		Sizes:    []model.ProductSize{{Label: "L", Price: decimal.RequireFromString("24.00")}},
	}
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := NewProductService(mockRepo, zerolog.Nop())

	mockRepo.On("Create", ctx, mock.AnythingOfType("*model.Product")).Return(nil)

	product, err := service.Create(ctx, validProductRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "Bunny plush", product.Name)
	assert.Equal(t, "20", product.Price.String())
	assert.False(t, product.CreatedAt.IsZero())
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateValidation(t *testing.T) {
	negative := decimal.RequireFromString("-1")

	tests := []struct {
		name   string
		mutate func(r *model.ProductRequest)
	}{
		{name: "Missing name", mutate: func(r *model.ProductRequest) { r.Name = " " }},
		{name: "Missing category", mutate: func(r *model.ProductRequest) { r.Category = "" }},
		{name: "Zero price", mutate: func(r *model.ProductRequest) { r.Price = decimal.Zero }},
		{name: "Negative cost", mutate: func(r *model.ProductRequest) { r.Cost = &negative }},
		{name: "Size without label", mutate: func(r *model.ProductRequest) { r.Sizes[0].Label = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(mockRepo, zerolog.Nop())
			req := validProductRequest()
			tt.mutate(req)

			_, err := service.Create(context.Background(), req)

			assert.ErrorIs(t, err, model.ErrValidation)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()
	created := time.Now().Add(-48 * time.Hour)

	t.Run("Success keeps creation time", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := NewProductService(mockRepo, zerolog.Nop())

		mockRepo.On("GetByID", ctx, "P001").Return(&model.Product{ID: "P001", CreatedAt: created}, nil)
		mockRepo.On("Update", ctx, mock.MatchedBy(func(p *model.Product) bool {
			return p.ID == "P001" && p.CreatedAt.Equal(created) && p.UpdatedAt.After(created)
		})).Return(nil)

		product, err := service.Update(ctx, "P001", validProductRequest())

		require.NoError(t, err)
		assert.Equal(t, "P001", product.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Not found", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := NewProductService(mockRepo, zerolog.Nop())

		mockRepo.On("GetByID", ctx, "P404").Return(nil, nil)

		_, err := service.Update(ctx, "P404", validProductRequest())

		assert.ErrorIs(t, err, model.ErrProductNotFound)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestProductService_Delete(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := NewProductService(mockRepo, zerolog.Nop())

	mockRepo.On("Delete", ctx, "P001").Return(nil)
	mockRepo.On("Delete", ctx, "P404").Return(model.ErrProductNotFound)

	require.NoError(t, service.Delete(ctx, "P001"))
	assert.ErrorIs(t, service.Delete(ctx, "P404"), model.ErrProductNotFound)
}
