package upstream

import (
	"encoding/json"
	"fmt"

	"github.com/voltmart/storefront/internal/domain"
)

// The commerce API is not consistent about how it embeds product data in a
// cart line: depending on the code path that produced the snapshot, the
// `product` field is either a bare product id string or an expanded object.
// Normalization happens here, once, at the service boundary; nothing past
// this package ever branches on the wire shape.

// wireCart is the snapshot shape returned by every cart endpoint.
type wireCart struct {
	Cart []wireLine `json:"cart"`
	// CartTotal is optional; some code paths on the server omit it and the
	// synchronizer computes the fallback total instead.
	CartTotal *int64 `json:"cartTotal"`
}

// wireLine is one cart line on the wire.
type wireLine struct {
	ID              string      `json:"_id"`
	Product         wireProduct `json:"product"`
	Quantity        int         `json:"quantity"`
	SelectedVariant string      `json:"selectedVariant"`
	// Price is a line-level override snapshotted by the server, distinct
	// from the product's own unit price.
	Price *int64 `json:"price"`
}

// wireProduct accepts both the string-id and the embedded-object encoding.
type wireProduct struct {
	ID       string
	Name     string
	Price    int64
	ImageURL string
}

func (p *wireProduct) UnmarshalJSON(data []byte) error {
	// Bare string id.
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		p.ID = id
		return nil
	}

	// Expanded object.
	var obj struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Price int64  `json:"price"`
		Image string `json:"image"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("product is neither id nor object: %w", err)
	}

	p.ID = obj.ID
	p.Name = obj.Name
	p.Price = obj.Price
	p.ImageURL = obj.Image
	return nil
}

// Cart is the normalized snapshot handed to the synchronizer.
type Cart struct {
	Lines []domain.CartLine
	// Total is the server-supplied total, nil when the server omitted it.
	Total *int64
}

// toCart converts a wire snapshot into the canonical shape.
func (w wireCart) toCart() *Cart {
	lines := make([]domain.CartLine, 0, len(w.Cart))
	for _, wl := range w.Cart {
		lines = append(lines, domain.CartLine{
			LineID:        wl.ID,
			ProductID:     wl.Product.ID,
			Name:          wl.Product.Name,
			UnitPrice:     wl.Product.Price,
			ImageURL:      wl.Product.ImageURL,
			Quantity:      wl.Quantity,
			Variant:       wl.SelectedVariant,
			PriceOverride: wl.Price,
		})
	}
	return &Cart{Lines: lines, Total: w.CartTotal}
}
