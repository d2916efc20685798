package domain

// Product is a catalog product as served to listing views.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`
	// Price in minor currency units.
	Price    int64    `json:"price"`
	ImageURL string   `json:"image_url,omitempty"`
	InStock  bool     `json:"in_stock"`
	Variants []string `json:"variants,omitempty"`
}

// Brand is a catalog brand entry.
type Brand struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Slug    string `json:"slug,omitempty"`
	LogoURL string `json:"logo_url,omitempty"`
}

// Category is a node in the catalog category tree.
type Category struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug,omitempty"`
	Children []Category `json:"children,omitempty"`
}
