package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bitforgehq/storefront/internal/service"
	"github.com/bitforgehq/storefront/pkg/health"
	"github.com/bitforgehq/storefront/pkg/middleware"
)

// Services bundles everything the router needs.
type Services struct {
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Catalog  *service.CatalogService
	Cart     *service.CartService
	Wishlist *service.WishlistService
	Inquiry  *service.InquiryService
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	svcs Services,
	healthHandler *health.Handler,
	validateToken middleware.TokenValidator,
	corsCfg middleware.CORSConfig,
	rateLimitRPS, rateLimitBurst int,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(corsCfg))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	checkoutHandler := NewCheckoutHandler(svcs.Checkout, logger)
	orderHandler := NewOrderHandler(svcs.Orders, logger)
	productHandler := NewProductHandler(svcs.Catalog, logger)
	cartHandler := NewCartHandler(svcs.Cart, logger)
	wishlistHandler := NewWishlistHandler(svcs.Wishlist, logger)
	inquiryHandler := NewInquiryHandler(svcs.Inquiry, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(rateLimitRPS, rateLimitBurst, logger))
		r.Use(ContentTypeJSON)

		// Public catalog and lead-generation endpoints.
		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{id}", productHandler.GetProduct)
		r.Post("/inquiries", inquiryHandler.Submit)

		// Everything else requires a session.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validateToken))

			r.Post("/checkout", checkoutHandler.Checkout)
			r.Post("/payments/confirm", checkoutHandler.ConfirmPayment)

			r.Get("/orders", orderHandler.ListOrders)
			r.Get("/orders/{id}", orderHandler.GetOrder)

			r.Get("/cart", cartHandler.GetCart)
			r.Put("/cart", cartHandler.SyncCart)
			r.Delete("/cart", cartHandler.ClearCart)

			r.Get("/wishlist", wishlistHandler.List)
			r.Post("/wishlist", wishlistHandler.Add)
			r.Delete("/wishlist/{productId}", wishlistHandler.Remove)
		})
	})

	return r
}
