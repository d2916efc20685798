package catalog

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/voltmart/storefront/internal/cache"
	"github.com/voltmart/storefront/internal/domain"
	"github.com/voltmart/storefront/internal/upstream"
)

// CatalogAPI is the upstream surface the catalog service reads through.
type CatalogAPI interface {
	ListProducts(ctx context.Context, q upstream.ProductQuery) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListBrands(ctx context.Context) ([]domain.Brand, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// Service serves catalog reads through the TTL cache. Listings sit in the
// short freshness class because price and availability drift quickly;
// brand and category taxonomies sit in the long class.
type Service struct {
	api    CatalogAPI
	store  cache.Store
	ttl    cache.TTLConfig
	logger *slog.Logger
}

func NewService(api CatalogAPI, store cache.Store, ttl cache.TTLConfig, logger *slog.Logger) *Service {
	return &Service{api: api, store: store, ttl: ttl, logger: logger}
}

func (s *Service) Products(ctx context.Context, q upstream.ProductQuery) ([]domain.Product, error) {
	key := cache.Key("products", map[string]string{
		"brand":    q.Brand,
		"category": q.Category,
		"sort":     q.Sort,
		"page":     pageParam(q.Page),
		"limit":    limitParam(q.PerPage),
	})
	return cache.Fetch(ctx, s.store, key, s.ttl.Listings, func(ctx context.Context) ([]domain.Product, error) {
		return s.api.ListProducts(ctx, q)
	})
}

func (s *Service) Product(ctx context.Context, id string) (*domain.Product, error) {
	key := cache.Key("product", map[string]string{"id": id})
	return cache.Fetch(ctx, s.store, key, s.ttl.Default, func(ctx context.Context) (*domain.Product, error) {
		return s.api.GetProduct(ctx, id)
	})
}

func (s *Service) Brands(ctx context.Context) ([]domain.Brand, error) {
	return cache.Fetch(ctx, s.store, cache.Key("brands", nil), s.ttl.Taxonomy, func(ctx context.Context) ([]domain.Brand, error) {
		return s.api.ListBrands(ctx)
	})
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return cache.Fetch(ctx, s.store, cache.Key("categories", nil), s.ttl.Taxonomy, func(ctx context.Context) ([]domain.Category, error) {
		return s.api.ListCategories(ctx)
	})
}

// Refresh drops every cached catalog entry so the next read refetches.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "catalog cache cleared")
	return nil
}

func pageParam(page int) string {
	if page <= 1 {
		return ""
	}
	return strconv.Itoa(page)
}

func limitParam(limit int) string {
	if limit <= 0 {
		return ""
	}
	return strconv.Itoa(limit)
}
