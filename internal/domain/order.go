package domain

// Payment method selectors accepted at order hand-off. UI-agnostic: the
// presentation layer maps these onto whatever controls it renders.
const (
	PaymentCashOnDelivery = "cod"
	PaymentBankTransfer   = "bank_transfer"
	PaymentWhatsApp       = "whatsapp"
)

// PaymentMethods returns the enumerated set of valid payment selectors.
func PaymentMethods() []string {
	return []string{PaymentCashOnDelivery, PaymentBankTransfer, PaymentWhatsApp}
}

// IsValidPaymentMethod checks a selector against the enumerated set.
func IsValidPaymentMethod(m string) bool {
	for _, v := range PaymentMethods() {
		if v == m {
			return true
		}
	}
	return false
}

// ShippingAddress is the shipping selection supplied at hand-off time.
type ShippingAddress struct {
	FullName    string `json:"full_name"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code,omitempty"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
}

// OrderRequest is the one-shot value object built from the cart mirror at
// hand-off time. It is not persisted beyond the single attempt.
type OrderRequest struct {
	PaymentMethod string          `json:"payment_method"`
	Shipping      ShippingAddress `json:"shipping"`
	Notes         string          `json:"notes,omitempty"`
}

// OrderResult is the terminal outcome of a successful hand-off.
type OrderResult struct {
	// OrderRef is the created order reference issued by the order service.
	OrderRef string `json:"order_ref"`
	// Total is the order total at creation time, in minor currency units.
	Total int64 `json:"total"`
	// HandoffURL is the optional external hand-off locator (a pre-built
	// deep link into an outside communication channel). Empty when the
	// flow completes directly.
	HandoffURL string `json:"handoff_url,omitempty"`
}
