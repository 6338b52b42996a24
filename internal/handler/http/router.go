package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/cartql/internal/handler/graphql"
	"github.com/utafrali/cartql/internal/service"
	"github.com/utafrali/cartql/pkg/health"
	"github.com/utafrali/cartql/pkg/middleware"
)

// RouterConfig carries everything NewRouter mounts.
type RouterConfig struct {
	Carts    *service.CartService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	GraphQL  *graphql.Handler
	Health   *health.Handler
	Logger   *slog.Logger

	CORS           middleware.CORSConfig
	PprofCIDRs     []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a chi router with the GraphQL endpoint, the REST API
// and the ops endpoints registered. ctx bounds background work started by
// middleware.
func NewRouter(ctx context.Context, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("cartql"))
	r.Use(middleware.Tracing("cartql"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	cartHandler := NewCartHandler(cfg.Carts, cfg.Checkout, logger)
	orderHandler := NewOrderHandler(cfg.Orders, logger)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))

		r.With(ContentTypeJSON).Post("/graphql", cfg.GraphQL.ServeHTTP)
		r.Get("/graphql/schema", cfg.GraphQL.Schema)

		r.Route("/api/v1/carts/{cartId}", func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(middleware.CartScope("cartId"))

			r.Get("/", cartHandler.GetCart)
			r.Patch("/", cartHandler.UpdateCart)
			r.Delete("/", cartHandler.DeleteCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items", cartHandler.SetItems)
			r.Delete("/items", cartHandler.EmptyCart)
			r.Patch("/items/{itemId}", cartHandler.UpdateItem)
			r.Delete("/items/{itemId}", cartHandler.RemoveItem)
			r.Post("/items/{itemId}/increment", cartHandler.IncrementItem)
			r.Post("/items/{itemId}/decrement", cartHandler.DecrementItem)

			r.Post("/checkout", cartHandler.Checkout)
		})

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Get("/", orderHandler.ListOrders)
			r.Get("/{orderId}", orderHandler.GetOrder)
			r.Post("/{orderId}/pay", orderHandler.MarkPaid)
		})
	})

	return r
}
