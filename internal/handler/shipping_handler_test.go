package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestShippingHandler_Rates(t *testing.T) {
	t.Run("Quote for country", func(t *testing.T) {
		mockService := new(MockShippingService)
		handler := NewShippingHandler(mockService, zerolog.Nop())
		mockService.On("Quote", mock.Anything, "ca").Return(&model.ShippingQuote{
			Price:       decimal.RequireFromString("9.99"),
			Name:        "Canada Post",
			CountryCode: "CA",
		}, nil)

		w := httptest.NewRecorder()
		handler.Rates(w, httptest.NewRequest(http.MethodGet, "/shipping/rates?country=ca", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var quote map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
		assert.Equal(t, "9.99", quote["price"])
		assert.Equal(t, "Canada Post", quote["name"])
		assert.Equal(t, "CA", quote["country_code"])
		mockService.AssertExpectations(t)
	})

	t.Run("Empty country still quotes", func(t *testing.T) {
		mockService := new(MockShippingService)
		handler := NewShippingHandler(mockService, zerolog.Nop())
		mockService.On("Quote", mock.Anything, "").Return(&model.ShippingQuote{
			Price:       decimal.RequireFromString("9.99"),
			Name:        "Standard",
			CountryCode: model.DefaultCountryCode,
		}, nil)

		w := httptest.NewRecorder()
		handler.Rates(w, httptest.NewRequest(http.MethodGet, "/shipping/rates?country=", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("List without country", func(t *testing.T) {
		mockService := new(MockShippingService)
		handler := NewShippingHandler(mockService, zerolog.Nop())
		mockService.On("ListRates", mock.Anything).Return(&model.ShippingRateList{
			DefaultPrice: decimal.RequireFromString("9.99"),
		}, nil)

		w := httptest.NewRecorder()
		handler.Rates(w, httptest.NewRequest(http.MethodGet, "/shipping/rates", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"rates":[],"defaultPrice":"9.99"}`, w.Body.String())
		mockService.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
	})

	t.Run("Service error", func(t *testing.T) {
		mockService := new(MockShippingService)
		handler := NewShippingHandler(mockService, zerolog.Nop())
		mockService.On("Quote", mock.Anything, "US").Return(nil, errors.New("database error"))

		w := httptest.NewRecorder()
		handler.Rates(w, httptest.NewRequest(http.MethodGet, "/shipping/rates?country=US", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestShippingHandler_Admin(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name           string
		method         string
		idParam        string
		requestBody    string
		setup          func(m *MockShippingService)
		expectedStatus int
	}{
		{
			name:        "Create",
			method:      http.MethodPost,
			requestBody: `{"name":"Canada Post","country_code":"ca","price":"12.50"}`,
			setup: func(m *MockShippingService) {
				m.On("CreateRate", mock.Anything, mock.AnythingOfType("*model.ShippingRateRequest")).
					Return(&model.ShippingRate{ID: id, Name: "Canada Post", CountryCode: "CA"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "Create invalid",
			method:      http.MethodPost,
			requestBody: `{"name":""}`,
			setup: func(m *MockShippingService) {
				m.On("CreateRate", mock.Anything, mock.Anything).Return(nil, model.NewValidationError("name is required"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Update",
			method:      http.MethodPut,
			idParam:     id.String(),
			requestBody: `{"price":"14.00"}`,
			setup: func(m *MockShippingService) {
				m.On("UpdateRate", mock.Anything, id, mock.AnythingOfType("*model.ShippingRateRequest")).
					Return(&model.ShippingRate{ID: id}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Update bad id",
			method:         http.MethodPut,
			idParam:        "not-a-uuid",
			requestBody:    `{"price":"14.00"}`,
			setup:          func(m *MockShippingService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "Delete",
			method:  http.MethodDelete,
			idParam: id.String(),
			setup: func(m *MockShippingService) {
				m.On("DeleteRate", mock.Anything, id).Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:    "Delete missing",
			method:  http.MethodDelete,
			idParam: id.String(),
			setup: func(m *MockShippingService) {
				m.On("DeleteRate", mock.Anything, id).Return(model.ErrShippingRateNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockShippingService)
			tt.setup(mockService)
			handler := NewShippingHandler(mockService, zerolog.Nop())

			req := httptest.NewRequest(tt.method, "/admin/shipping", bytes.NewBufferString(tt.requestBody))
			if tt.idParam != "" {
				req = withURLParam(req, "id", tt.idParam)
			}
			w := httptest.NewRecorder()

			switch tt.method {
			case http.MethodPost:
				handler.Create(w, req)
			case http.MethodPut:
				handler.Update(w, req)
			case http.MethodDelete:
				handler.Delete(w, req)
			}

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}
