package domain

// State describes the lifecycle of the cart mirror.
type State string

const (
	// StateUninitialized is the state before the first fetch has been attempted.
	StateUninitialized State = "uninitialized"
	// StateLoading is the state while a fetch or mutation is in flight.
	StateLoading State = "loading"
	// StateReady means the mirror holds the latest adopted snapshot.
	StateReady State = "ready"
)

// CartLine is one product line in the cart. The line identity is the
// server-issued line ID, which is stable across mutations and distinct from
// the product ID.
type CartLine struct {
	LineID    string `json:"line_id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	// UnitPrice is the product's unit price in minor currency units.
	UnitPrice int64  `json:"unit_price"`
	ImageURL  string `json:"image_url,omitempty"`
	Quantity  int    `json:"quantity"`
	// Variant is the optional variant selector chosen at add time.
	Variant string `json:"variant,omitempty"`
	// PriceOverride, when set, replaces the unit price for this line
	// (promotional or negotiated pricing snapshotted by the server).
	PriceOverride *int64 `json:"price_override,omitempty"`
}

// EffectivePrice returns the price used for total computation: the line
// override when present, otherwise the product unit price.
func (l CartLine) EffectivePrice() int64 {
	if l.PriceOverride != nil {
		return *l.PriceOverride
	}
	return l.UnitPrice
}

// CartSnapshot is the client-held mirror value: the ordered line sequence in
// server-return order plus the total. It is safe to render at any time.
type CartSnapshot struct {
	State State      `json:"state"`
	Lines []CartLine `json:"lines"`
	// Total is the cart total in minor currency units. It is either the
	// server-supplied value or the recomputed fallback, and never negative.
	Total int64 `json:"total"`
}

// Subtotal computes the fallback total: the sum over lines of effective
// price times quantity.
func (s CartSnapshot) Subtotal() int64 {
	var total int64
	for _, l := range s.Lines {
		total += l.EffectivePrice() * int64(l.Quantity)
	}
	return total
}

// ItemCount returns the total number of units across all lines.
func (s CartSnapshot) ItemCount() int {
	var count int
	for _, l := range s.Lines {
		count += l.Quantity
	}
	return count
}

// Empty reports whether the mirror holds no lines.
func (s CartSnapshot) Empty() bool {
	return len(s.Lines) == 0
}
