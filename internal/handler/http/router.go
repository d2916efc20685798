package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voltmart/storefront/pkg/health"
	"github.com/voltmart/storefront/pkg/middleware"

	"github.com/voltmart/storefront/internal/cart"
	"github.com/voltmart/storefront/internal/catalog"
	"github.com/voltmart/storefront/internal/event"
	"github.com/voltmart/storefront/internal/identity"
	"github.com/voltmart/storefront/internal/order"
	"github.com/voltmart/storefront/internal/recent"
)

// RouterDeps bundles everything the router wires together.
type RouterDeps struct {
	Registry *cart.Registry
	Orders   *order.Service
	Catalog  *catalog.Service
	Recent   *recent.Tracker
	Events   *event.Publisher
	Identity identity.Provider
	Health   *health.Handler
	Logger   *slog.Logger
	LoginURL string
	// AllowedOrigins for browser clients; empty disables CORS headers.
	AllowedOrigins []string
}

// NewRouter creates a chi router with all storefront routes registered.
// Catalog reads are public; cart and order routes require a resolved
// session.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLog(deps.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	if len(deps.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(deps.AllowedOrigins))
	}

	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	cartHandler := NewCartHandler(deps.Registry, deps.Events, deps.Logger, deps.LoginURL)
	orderHandler := NewOrderHandler(deps.Orders, deps.Registry, deps.Logger, deps.LoginURL)
	catalogHandler := NewCatalogHandler(deps.Catalog, deps.Recent, deps.Logger, deps.LoginURL)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(ResolveSession(deps.Identity))

		// Public catalog reads.
		r.Get("/products", catalogHandler.ListProducts)
		r.Get("/brands", catalogHandler.ListBrands)
		r.Get("/categories", catalogHandler.ListCategories)
		r.Post("/catalog/refresh", catalogHandler.RefreshCatalog)

		// The cart read is public too: anonymous sessions see an empty cart.
		r.Get("/cart", cartHandler.GetCart)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(deps.LoginURL))

			// Registered before /products/{id} so "recent" is not taken
			// for a product id.
			r.Get("/products/recent", catalogHandler.RecentlyViewed)

			r.Delete("/cart", cartHandler.ClearCart)
			r.Post("/cart/items", cartHandler.AddItem)
			r.Put("/cart/items/{lineId}", cartHandler.UpdateItem)
			r.Delete("/cart/items/{lineId}", cartHandler.RemoveItem)

			r.Post("/orders", orderHandler.CreateOrder)
		})

		r.Get("/products/{id}", catalogHandler.GetProduct)
	})

	return r
}
