package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers the router serves.
type Handlers struct {
	Payment  *handler.PaymentHandler
	Webhook  *handler.WebhookHandler
	Order    *handler.OrderHandler
	Product  *handler.ProductHandler
	Shipping *handler.ShippingHandler
	Checkout *handler.CheckoutHandler
	Admin    *handler.AdminHandler
	Health   http.HandlerFunc
}

// Config holds router options.
type Config struct {
	AllowedOrigins []string

	// LoginRatePerMinute and LoginBurst throttle POST /admin/auth per client.
	LoginRatePerMinute int
	LoginBurst         int
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, verifier middleware.TokenVerifier, cfg Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> CORS, outermost first
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", h.Health)

	r.Route("/payments", func(r chi.Router) {
		r.Post("/create-intent", h.Payment.CreateIntent)
		r.Post("/update-intent", h.Payment.UpdateIntent)
	})
	r.Post("/webhooks/stripe", h.Webhook.Stripe)

	r.Get("/shipping/rates", h.Shipping.Rates)
	r.Post("/checkout/quote", h.Checkout.Quote)
	r.Get("/products", h.Product.GetAll)
	r.Get("/products/{id}", h.Product.GetByID)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst, logger)

	r.Route("/admin", func(r chi.Router) {
		r.With(loginLimiter.Limit).Post("/auth", h.Admin.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(verifier, logger))

			r.Get("/orders", h.Order.List)
			r.Get("/orders/{id}", h.Order.GetByID)
			r.Patch("/orders/{id}", h.Order.UpdateStatus)
			r.Get("/dead-letters", h.Order.DeadLetters)

			r.Post("/products", h.Product.Create)
			r.Put("/products/{id}", h.Product.Update)
			r.Delete("/products/{id}", h.Product.Delete)

			r.Get("/shipping", h.Shipping.List)
			r.Post("/shipping", h.Shipping.Create)
			r.Put("/shipping/{id}", h.Shipping.Update)
			r.Delete("/shipping/{id}", h.Shipping.Delete)

			r.Post("/uploads", h.Admin.Upload)
		})
	})

	return r
}
