package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
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

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("env", cfg.App.Environment).Msg("starting storefront API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	rateRepo := repository.NewShippingRateRepository(pool, logger)
	deadLetterRepo := repository.NewDeadLetterRepository(pool, logger)

	shippingCache, closeCache := newShippingCache(ctx, cfg.Redis, logger)
	defer closeCache()

	var s3Client *s3.Client
	if cfg.S3.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3.Region))
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to load AWS configuration, S3 features disabled")
		} else {
			s3Client = s3.NewFromConfig(awsCfg)
		}
	}

	// Promo catalogs: S3 first with local fallback
	var promoLoader coupon.Loader = coupon.NewFileLoader(logger)
	if s3Client != nil {
		promoLoader = coupon.NewFallbackLoader(
			coupon.NewS3Loader(s3Client, cfg.S3.Bucket, logger),
			promoLoader,
			cfg.S3.PromoPrefix,
			logger,
		)
	} else {
		logger.Info().Msg("using local file system for promo catalogs (S3 disabled)")
	}

	promos, err := coupon.NewResolver(ctx, cfg.Promo.Files, promoLoader, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize promo resolver: %w", err)
	}

	var putter storage.ObjectPutter
	if s3Client != nil {
		putter = s3Client
	}
	uploader := storage.NewS3Uploader(putter, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.UploadPrefix, cfg.S3.PublicBaseURL, logger)

	var sender notify.Sender
	if cfg.Email.ResendAPIKey != "" {
		resendSender, err := notify.NewResendSender(cfg.Email.ResendAPIKey, "")
		if err != nil {
			return fmt.Errorf("failed to initialize email sender: %w", err)
		}
		sender = resendSender
	} else {
		logger.Warn().Msg("RESEND_API_KEY not set, order emails disabled")
	}
	notifier := notify.NewDispatcher(sender, notify.Config{
		From:       cfg.Email.From,
		OwnerEmail: cfg.Email.OwnerEmail,
		SiteURL:    cfg.Email.SiteURL,
	}, logger)

	provider := payment.NewStripeProvider(payment.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	}, logger)
	verifier := payment.NewStripeVerifier(cfg.Stripe.WebhookSecret)

	authenticator := auth.NewAuthenticator(auth.Config{
		Secret:       cfg.Auth.JWTSecret,
		PasswordHash: cfg.Auth.PasswordHash,
		TokenTTL:     cfg.Auth.TokenTTL,
	})
	if cfg.Auth.PasswordHash == "" {
		logger.Warn().Msg("ADMIN_PASSWORD_HASH not set, admin login disabled")
	}

	calculator := pricing.NewCalculator(pricing.Config{
		TaxRate:               cfg.Pricing.TaxRate,
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
	})

	// Initialize services
	paymentService := service.NewPaymentService(provider, service.PaymentConfig{
		SecretKey:       cfg.Stripe.SecretKey,
		DefaultCurrency: cfg.Stripe.DefaultCurrency,
	}, logger)
	webhookService := service.NewWebhookService(verifier, orderRepo, deadLetterRepo, notifier, logger)
	orderService := service.NewOrderService(orderRepo, deadLetterRepo, cfg.Orders.StrictTransitions, logger)
	productService := service.NewProductService(productRepo, logger)
	shippingService := service.NewShippingService(rateRepo, shippingCache, cfg.Pricing.DefaultShippingPrice, logger)
	checkoutService := service.NewCheckoutService(productRepo, shippingService, promos, calculator, logger)

	// Initialize HTTP handlers
	exposeDetails := !cfg.App.IsProduction()
	handlers := router.Handlers{
		Payment:  handler.NewPaymentHandler(paymentService, exposeDetails, logger),
		Webhook:  handler.NewWebhookHandler(webhookService, exposeDetails, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Product:  handler.NewProductHandler(productService, logger),
		Shipping: handler.NewShippingHandler(shippingService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
		Admin:    handler.NewAdminHandler(authenticator, uploader, logger),
		Health:   handler.Health(pool, logger),
	}

	// Initialize router
	mux := router.New(handlers, authenticator, router.Config{
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		LoginRatePerMinute: cfg.Auth.LoginRatePerMinute,
		LoginBurst:         cfg.Auth.LoginBurst,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newShippingCache connects to Redis when enabled. An unreachable Redis
// degrades to no caching rather than failing startup.
func newShippingCache(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (cache.ShippingCache, func()) {
	if !cfg.Enabled {
		logger.Info().Msg("redis disabled, shipping rates are not cached")
		return cache.NopShippingCache{}, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().
			Err(err).
			Str("addr", cfg.Addr).
			Msg("redis unreachable, shipping rates are not cached")
		_ = client.Close()
		return cache.NopShippingCache{}, func() {}
	}

	logger.Info().Str("addr", cfg.Addr).Msg("shipping rate cache connected")
	return cache.NewRedisShippingCache(client, cfg.CacheTTL), func() {
		if err := client.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}
