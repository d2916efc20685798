package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/voltmart/storefront/internal/catalog"
	"github.com/voltmart/storefront/internal/recent"
	"github.com/voltmart/storefront/internal/upstream"
)

// CatalogHandler serves cached catalog reads and the recently-viewed list.
type CatalogHandler struct {
	catalog  *catalog.Service
	recent   *recent.Tracker
	logger   *slog.Logger
	loginURL string
}

func NewCatalogHandler(svc *catalog.Service, tracker *recent.Tracker, logger *slog.Logger, loginURL string) *CatalogHandler {
	return &CatalogHandler{
		catalog:  svc,
		recent:   tracker,
		logger:   logger,
		loginURL: loginURL,
	}
}

// ListProducts handles GET /api/v1/products.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := upstream.ProductQuery{
		Brand:    r.URL.Query().Get("brand"),
		Category: r.URL.Query().Get("category"),
		Sort:     r.URL.Query().Get("sort"),
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		q.Page = page
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		q.PerPage = limit
	}

	products, err := h.catalog.Products(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, h.loginURL, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: products})
}

// GetProduct handles GET /api/v1/products/{id}. A signed-in view is also
// recorded in the recently-viewed list.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, h.loginURL, err)
		return
	}

	if sess := sessionFromContext(r.Context()); sess.ident != nil {
		h.recent.Record(sess.ident.UserID, product.ID)
	}

	writeJSON(w, http.StatusOK, response{Data: product})
}

// RecentlyViewed handles GET /api/v1/products/recent.
func (h *CatalogHandler) RecentlyViewed(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	writeJSON(w, http.StatusOK, response{
		Data: map[string]any{"product_ids": h.recent.Views(sess.ident.UserID)},
	})
}

// ListBrands handles GET /api/v1/brands.
func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalog.Brands(r.Context())
	if err != nil {
		writeError(w, r, h.logger, h.loginURL, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: brands})
}

// ListCategories handles GET /api/v1/categories.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeError(w, r, h.logger, h.loginURL, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: categories})
}

// RefreshCatalog handles POST /api/v1/catalog/refresh.
func (h *CatalogHandler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(r.Context()); err != nil {
		writeError(w, r, h.logger, h.loginURL, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "refreshed"}})
}
