package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/coupon"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	adminPassword = "correct horse battery staple"
	webhookSecret = "whsec_integration"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the schema migrated.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := database.Migrate(connStr, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedCatalogue inserts test products and shipping rates.
func SeedCatalogue(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	products := []struct {
		id       string
		name     string
		price    string
		category string
	}{
		{"P001", "Bunny Plush", "20.00", "plush"},
		{"P002", "Cat Keychain", "10.00", "accessories"},
		{"P003", "Panda Mug", "15.50", "kitchen"},
	}
	for _, p := range products {
		_, err := pool.Exec(ctx,
			"INSERT INTO products (id, name, price, category, stock) VALUES ($1, $2, $3, $4, 10)",
			p.id, p.name, p.price, p.category,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.id, err)
		}
	}

	rates := []struct {
		name    string
		country string
		price   string
	}{
		{"Canada Post", "CA", "9.99"},
		{"International", "*", "24.99"},
	}
	for _, r := range rates {
		_, err := pool.Exec(ctx,
			"INSERT INTO shipping_rates (id, name, country_code, price) VALUES (gen_random_uuid(), $1, $2, $3)",
			r.name, r.country, r.price,
		)
		if err != nil {
			t.Fatalf("failed to seed shipping rate %s: %v", r.country, err)
		}
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"webhook_dead_letters", "orders", "shipping_rates", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// outbox records every email the dispatcher hands over.
type outbox struct {
	mu    sync.Mutex
	sent  []notify.Email
	count int
}

func (o *outbox) Send(_ context.Context, email notify.Email) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, email)
	o.count++
	return fmt.Sprintf("email-%d", o.count), nil
}

func (o *outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

// fakeStripe answers the payment intent endpoints the provider calls.
func fakeStripe(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		metadata := map[string]string{}
		for key, values := range r.PostForm {
			if name, ok := strings.CutPrefix(key, "metadata["); ok {
				metadata[strings.TrimSuffix(name, "]")] = values[0]
			}
		}

		id := "pi_integration"
		amount, _ := strconv.ParseInt(r.PostForm.Get("amount"), 10, 64)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":                   id,
			"object":               "payment_intent",
			"amount":               amount,
			"currency":             "cad",
			"client_secret":        id + "_secret_abc",
			"status":               "requires_payment_method",
			"payment_method_types": []string{"card"},
			"metadata":             metadata,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// testApp is the fully wired API over a real database.
type testApp struct {
	Handler http.Handler
	Outbox  *outbox
	Redis   *miniredis.Miniredis
}

func newTestApp(t *testing.T, testDB *TestDB) *testApp {
	t.Helper()

	logger := zerolog.Nop()
	ctx := context.Background()

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	rateRepo := repository.NewShippingRateRepository(testDB.Pool, logger)
	deadLetterRepo := repository.NewDeadLetterRepository(testDB.Pool, logger)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	shippingCache := cache.NewRedisShippingCache(client, time.Minute)

	promos, err := coupon.NewResolver(ctx, nil, coupon.NewFileLoader(logger), logger)
	require.NoError(t, err)

	box := &outbox{}
	notifier := notify.NewDispatcher(box, notify.Config{OwnerEmail: "owner@example.com", SiteURL: "https://shop.example.com"}, logger)

	stripeServer := fakeStripe(t)
	provider := payment.NewStripeProvider(payment.StripeConfig{SecretKey: "sk_test_integration", BackendURL: stripeServer.URL}, logger)
	verifier := payment.NewStripeVerifier(webhookSecret)

	hash, err := auth.HashPassword(adminPassword)
	require.NoError(t, err)
	authenticator := auth.NewAuthenticator(auth.Config{Secret: "integration-secret", PasswordHash: hash, TokenTTL: time.Hour})

	calculator := pricing.NewCalculator(pricing.Config{
		TaxRate:               decimal.Zero,
		FreeShippingThreshold: decimal.NewFromInt(100),
	})

	paymentService := service.NewPaymentService(provider, service.PaymentConfig{SecretKey: "sk_test_integration", DefaultCurrency: "cad"}, logger)
	webhookService := service.NewWebhookService(verifier, orderRepo, deadLetterRepo, notifier, logger)
	orderService := service.NewOrderService(orderRepo, deadLetterRepo, true, logger)
	productService := service.NewProductService(productRepo, logger)
	shippingService := service.NewShippingService(rateRepo, shippingCache, decimal.RequireFromString("9.99"), logger)
	checkoutService := service.NewCheckoutService(productRepo, shippingService, promos, calculator, logger)

	handlers := router.Handlers{
		Payment:  handler.NewPaymentHandler(paymentService, true, logger),
		Webhook:  handler.NewWebhookHandler(webhookService, true, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Product:  handler.NewProductHandler(productService, logger),
		Shipping: handler.NewShippingHandler(shippingService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
		Admin:    handler.NewAdminHandler(authenticator, storage.NewS3Uploader(nil, "", "", "", "", logger), logger),
		Health:   handler.Health(testDB.Pool, logger),
	}

	return &testApp{
		Handler: router.New(handlers, authenticator, router.Config{LoginRatePerMinute: 60, LoginBurst: 10}, logger),
		Outbox:  box,
		Redis:   mr,
	}
}
