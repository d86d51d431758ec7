package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []Email
	fail map[string]error
}

func (f *fakeSender) Send(_ context.Context, email Email) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[email.To[0]]; err != nil {
		return "", err
	}
	f.sent = append(f.sent, email)
	return "msg_" + email.To[0], nil
}

func testOrder() *model.Order {
	return &model.Order{
		OrderID: "KX-ABC234",
		Email:   "buyer@example.com",
		Items: []model.OrderItem{
			{ID: "p1", Name: "Bunny plush", Price: decimal.RequireFromString("20"), Quantity: 1},
			{ID: "p2", Name: "Cat keychain", Price: decimal.RequireFromString("15"), Quantity: 2, Size: "M"},
		},
		Subtotal: decimal.RequireFromString("50"),
		Shipping: decimal.RequireFromString("9.99"),
		Total:    decimal.RequireFromString("59.99"),
		Currency: "cad",
		ShippingAddress: model.ShippingAddress{
			FirstName: "Mei", LastName: "Tanaka", Address1: "12 Maple Street",
			City: "Toronto", Province: "ON", Postal: "M5V 2T6", Country: "CA",
		},
	}
}

func TestDispatcher_OrderPlaced(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, Config{From: "Shop <shop@example.com>", OwnerEmail: "owner@example.com", SiteURL: "https://shop.example.com/"}, zerolog.Nop())

	require.NoError(t, d.OrderPlaced(context.Background(), testOrder()))
	require.Len(t, sender.sent, 2)

	customer := sender.sent[0]
	assert.Equal(t, []string{"buyer@example.com"}, customer.To)
	assert.Equal(t, "Shop <shop@example.com>", customer.From)
	assert.Contains(t, customer.Subject, "KX-ABC234")
	assert.Contains(t, customer.Text, "Thank you for your order, Mei!")
	assert.Contains(t, customer.Text, "Cat keychain x2 @ CA$15.00 (M)")
	assert.Contains(t, customer.Text, "Total paid: CA$59.99")
	assert.NotContains(t, customer.Text, "Discount")
	assert.Contains(t, customer.HTML, `href="https://shop.example.com/contact"`)

	owner := sender.sent[1]
	assert.Equal(t, []string{"owner@example.com"}, owner.To)
	assert.Equal(t, "New order KX-ABC234 - CA$59.99", owner.Subject)
	assert.Contains(t, owner.Text, "Customer: buyer@example.com")
	assert.Contains(t, owner.Text, "Toronto, ON M5V 2T6")
}

func TestDispatcher_EscapesHTML(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, Config{}, zerolog.Nop())

	order := testOrder()
	order.ShippingAddress.FirstName = "<script>x</script>"

	require.NoError(t, d.OrderPlaced(context.Background(), order))
	require.Len(t, sender.sent, 1, "no owner address configured")
	assert.NotContains(t, sender.sent[0].HTML, "<script>")
	assert.Contains(t, sender.sent[0].HTML, "&lt;script&gt;")
}

func TestDispatcher_DiscountLine(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, Config{}, zerolog.Nop())

	order := testOrder()
	order.Discount = decimal.RequireFromString("5")

	require.NoError(t, d.OrderPlaced(context.Background(), order))
	assert.Contains(t, sender.sent[0].Text, "Discount: -CA$5.00")
}

func TestDispatcher_Failures(t *testing.T) {
	tests := []struct {
		name      string
		fail      map[string]error
		wantSent  int
		wantError bool
	}{
		{name: "Customer fails, owner still sent", fail: map[string]error{"buyer@example.com": errors.New("rejected")}, wantSent: 1, wantError: true},
		{name: "Owner fails", fail: map[string]error{"owner@example.com": errors.New("quota")}, wantSent: 1, wantError: true},
		{name: "Both fail", fail: map[string]error{"buyer@example.com": errors.New("a"), "owner@example.com": errors.New("b")}, wantSent: 0, wantError: true},
		{name: "Neither fails", wantSent: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{fail: tt.fail}
			d := NewDispatcher(sender, Config{OwnerEmail: "owner@example.com"}, zerolog.Nop())

			err := d.OrderPlaced(context.Background(), testOrder())

			assert.Len(t, sender.sent, tt.wantSent)
			if tt.wantError {
				assert.ErrorIs(t, err, model.ErrNotification)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDispatcher_NotConfigured(t *testing.T) {
	d := NewDispatcher(nil, Config{OwnerEmail: "owner@example.com"}, zerolog.Nop())

	assert.NoError(t, d.OrderPlaced(context.Background(), testOrder()))
}

func TestResendSender_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Order confirmed", body["subject"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_123"}`))
	}))
	defer srv.Close()

	sender, err := NewResendSender("re_test", srv.URL+"/")
	require.NoError(t, err)

	id, err := sender.Send(context.Background(), Email{
		From:    "shop@example.com",
		To:      []string{"buyer@example.com"},
		Subject: "Order confirmed",
		Text:    "hi",
	})

	require.NoError(t, err)
	assert.Equal(t, "email_123", id)
}

func TestFormatMoney(t *testing.T) {
	d := decimal.RequireFromString("9.9")
	assert.Equal(t, "CA$9.90", formatMoney(d, "cad"))
	assert.Equal(t, "CA$9.90", formatMoney(d, ""))
	assert.Equal(t, "$9.90", formatMoney(d, "USD"))
	assert.Equal(t, "EUR 9.90", formatMoney(d, "eur"))
}
