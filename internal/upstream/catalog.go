package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	apperrors "github.com/voltmart/storefront/pkg/errors"
	"github.com/voltmart/storefront/pkg/httpclient"

	"github.com/voltmart/storefront/internal/domain"
)

// ProductQuery holds the selection parameters of a product listing read.
type ProductQuery struct {
	Brand    string
	Category string
	Sort     string
	Page     int
	PerPage  int
}

// Values renders the query as URL parameters, omitting defaults so that
// logically identical queries produce identical requests.
func (q ProductQuery) Values() url.Values {
	v := url.Values{}
	if q.Brand != "" {
		v.Set("brand", q.Brand)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("limit", strconv.Itoa(q.PerPage))
	}
	return v
}

// wireProductEntry is a catalog product on the wire.
type wireProductEntry struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Brand    string   `json:"brand"`
	Category string   `json:"category"`
	Price    int64    `json:"price"`
	Image    string   `json:"image"`
	InStock  bool     `json:"inStock"`
	Variants []string `json:"variants"`
}

func (w wireProductEntry) toDomain() domain.Product {
	return domain.Product{
		ID:       w.ID,
		Name:     w.Name,
		Slug:     w.Slug,
		Brand:    w.Brand,
		Category: w.Category,
		Price:    w.Price,
		ImageURL: w.Image,
		InStock:  w.InStock,
		Variants: w.Variants,
	}
}

// ListProducts fetches a product listing page.
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	path := "/products"
	if params := q.Values().Encode(); params != "" {
		path += "?" + params
	}

	var wire struct {
		Products []wireProductEntry `json:"products"`
	}
	if err := c.getJSON(ctx, path, &wire); err != nil {
		return nil, err
	}

	products := make([]domain.Product, len(wire.Products))
	for i, p := range wire.Products {
		products[i] = p.toDomain()
	}
	return products, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var wire struct {
		Product wireProductEntry `json:"product"`
	}
	if err := c.getJSON(ctx, "/products/"+url.PathEscape(id), &wire); err != nil {
		return nil, err
	}
	p := wire.Product.toDomain()
	return &p, nil
}

// ListBrands fetches the brand list.
func (c *Client) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	var wire struct {
		Brands []struct {
			ID   string `json:"_id"`
			Name string `json:"name"`
			Slug string `json:"slug"`
			Logo string `json:"logo"`
		} `json:"brands"`
	}
	if err := c.getJSON(ctx, "/brands", &wire); err != nil {
		return nil, err
	}

	brands := make([]domain.Brand, len(wire.Brands))
	for i, b := range wire.Brands {
		brands[i] = domain.Brand{ID: b.ID, Name: b.Name, Slug: b.Slug, LogoURL: b.Logo}
	}
	return brands, nil
}

// ListCategories fetches the category tree.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var wire struct {
		Categories []domain.Category `json:"categories"`
	}
	if err := c.getJSON(ctx, "/categories", &wire); err != nil {
		return nil, err
	}
	return wire.Categories, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return classifyTransportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return apperrors.Unavailable("catalog response could not be decoded")
	}
	return nil
}
