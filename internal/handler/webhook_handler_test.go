package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
)

const testWebhookSecret = "whsec_test"

func TestWebhookHandler_Stripe(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		mockReturn     *model.WebhookResult
		mockError      error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Processed",
			mockReturn:     &model.WebhookResult{EventID: "evt_1", EventType: payment.EventPaymentSucceeded, Outcome: model.WebhookProcessed},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Ignored",
			mockReturn:     &model.WebhookResult{EventID: "evt_1", EventType: "charge.refunded", Outcome: model.WebhookIgnored},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Dead lettered",
			mockReturn:     &model.WebhookResult{EventID: "evt_1", Outcome: model.WebhookProcessingFailed},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Bad signature",
			mockError:      model.ErrSignatureVerification,
			expectedStatus: http.StatusBadRequest,
			expectedError:  model.ErrCodeSignatureVerification,
		},
		{
			name:           "Secret not configured",
			mockError:      model.NewConfigurationError("webhook signing secret is not set"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  model.ErrCodeConfiguration,
		},
		{
			name:           "Dead letter failed",
			mockError:      errors.New("failed to record dead letter"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  model.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockWebhookService)
			handler := NewWebhookHandler(mockService, false, logger)

			body := []byte(`{"id":"evt_1"}`)
			mockService.On("ProcessWebhook", mock.Anything, body, "t=1,v1=sig").Return(tt.mockReturn, tt.mockError)

			req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(body))
			req.Header.Set(SignatureHeader, "t=1,v1=sig")
			w := httptest.NewRecorder()

			handler.Stripe(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, w).Error)
			} else {
				assert.JSONEq(t, `{"received":true}`, w.Body.String())
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestWebhookHandler_PayloadTooLarge(t *testing.T) {
	mockService := new(MockWebhookService)
	handler := NewWebhookHandler(mockService, false, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(strings.Repeat("x", maxWebhookBodySize+1)))
	w := httptest.NewRecorder()

	handler.Stripe(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ProcessWebhook", mock.Anything, mock.Anything, mock.Anything)
}

// memoryOrders keeps orders in a map keyed by order id.
type memoryOrders struct {
	mu     sync.Mutex
	orders map[string]*model.Order
}

func (m *memoryOrders) BeginTx(context.Context) (pgx.Tx, error) {
	return nil, errors.New("not supported")
}

func (m *memoryOrders) Create(_ context.Context, order *model.Order) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.OrderID]; ok {
		return false, nil
	}
	m.orders[order.OrderID] = order
	return true, nil
}

func (m *memoryOrders) GetByOrderID(_ context.Context, orderID string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[orderID], nil
}

func (m *memoryOrders) GetByOrderIDForUpdate(ctx context.Context, _ pgx.Tx, orderID string) (*model.Order, error) {
	return m.GetByOrderID(ctx, orderID)
}

func (m *memoryOrders) List(context.Context, repository.OrderFilter) ([]model.Order, error) {
	return nil, nil
}

func (m *memoryOrders) UpdateStatus(context.Context, pgx.Tx, string, model.OrderStatus) (*model.Order, error) {
	return nil, errors.New("not supported")
}

type memoryDeadLetters struct {
	letters []model.DeadLetter
}

func (m *memoryDeadLetters) Create(_ context.Context, dl *model.DeadLetter) error {
	m.letters = append(m.letters, *dl)
	return nil
}

func (m *memoryDeadLetters) List(context.Context, int) ([]model.DeadLetter, error) {
	return m.letters, nil
}

type countingNotifier struct {
	calls int
}

func (n *countingNotifier) OrderPlaced(context.Context, *model.Order) error {
	n.calls++
	return nil
}

func signedEvent(t *testing.T, eventType string, metadata map[string]string) ([]byte, string) {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"id":     "evt_123",
		"object": "event",
		"type":   eventType,
		"data": map[string]any{
			"object": map[string]any{
				"id":                   "pi_123",
				"object":               "payment_intent",
				"amount":               5999,
				"currency":             "cad",
				"payment_method_types": []string{"card"},
				"metadata":             metadata,
			},
		},
	})
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: testWebhookSecret})
	return signed.Payload, signed.Header
}

func TestWebhookHandler_EndToEnd(t *testing.T) {
	metadata := map[string]string{
		payment.KeyOrderID:  "KX-ABC234",
		payment.KeyEmail:    "buyer@example.com",
		payment.KeyCurrency: "cad",
		payment.KeyItems:    `[{"id":"p1","name":"Plush","price":"20.00","quantity":1},{"id":"p2","name":"Keychain","price":"15.00","quantity":2}]`,
		payment.KeySubtotal: "50.00",
		payment.KeyShipping: "9.99",
		payment.KeyTotal:    "59.99",
	}

	setup := func() (*WebhookHandler, *memoryOrders, *memoryDeadLetters, *countingNotifier) {
		orders := &memoryOrders{orders: map[string]*model.Order{}}
		deadLetters := &memoryDeadLetters{}
		notifier := &countingNotifier{}
		svc := service.NewWebhookService(payment.NewStripeVerifier(testWebhookSecret), orders, deadLetters, notifier, zerolog.Nop())
		return NewWebhookHandler(svc, false, zerolog.Nop()), orders, deadLetters, notifier
	}

	send := func(h *WebhookHandler, payload []byte, sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
		req.Header.Set(SignatureHeader, sig)
		w := httptest.NewRecorder()
		h.Stripe(w, req)
		return w
	}

	t.Run("Replay yields one order", func(t *testing.T) {
		h, orders, _, notifier := setup()
		payload, sig := signedEvent(t, payment.EventPaymentSucceeded, metadata)

		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, send(h, payload, sig).Code)
		}

		require.Len(t, orders.orders, 1)
		order := orders.orders["KX-ABC234"]
		assert.Equal(t, model.OrderStatusProcessing, order.Status)
		assert.Equal(t, "59.99", order.Total.StringFixed(2))
		assert.Len(t, order.Items, 2)
		assert.Equal(t, 1, notifier.calls)
	})

	t.Run("Unknown event is acknowledged", func(t *testing.T) {
		h, orders, _, notifier := setup()
		payload, sig := signedEvent(t, "customer.created", metadata)

		w := send(h, payload, sig)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, orders.orders)
		assert.Zero(t, notifier.calls)
	})

	t.Run("Bad signature creates nothing", func(t *testing.T) {
		h, orders, deadLetters, notifier := setup()
		payload, sig := signedEvent(t, payment.EventPaymentSucceeded, metadata)
		tampered := bytes.Replace(payload, []byte("59.99"), []byte("0.01"), 1)

		w := send(h, tampered, sig)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, orders.orders)
		assert.Empty(t, deadLetters.letters)
		assert.Zero(t, notifier.calls)
	})

	t.Run("Malformed metadata is dead lettered", func(t *testing.T) {
		h, orders, deadLetters, _ := setup()
		payload, sig := signedEvent(t, payment.EventPaymentSucceeded, map[string]string{payment.KeyEmail: "buyer@example.com"})

		w := send(h, payload, sig)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, orders.orders)
		require.Len(t, deadLetters.letters, 1)
		assert.Equal(t, "pi_123", deadLetters.letters[0].PaymentIntentID)
	})
}
