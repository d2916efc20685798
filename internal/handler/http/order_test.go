package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/voltmart/storefront/pkg/errors"

	"github.com/voltmart/storefront/internal/domain"
	"github.com/voltmart/storefront/internal/upstream"
)

func orderPayload() []byte {
	return []byte(`{
		"payment_method": "whatsapp",
		"shipping": {
			"full_name": "Asad Khan",
			"address_line": "14-B Gulberg III",
			"city": "Lahore",
			"country": "PK",
			"phone": "+923001234567"
		}
	}`)
}

func loadedUpstream() *stubUpstream {
	return &stubUpstream{
		cart: &upstream.Cart{
			Lines: []domain.CartLine{{LineID: "l1", ProductID: "p1", Name: "Growatt 5kW", UnitPrice: 185000, Quantity: 1}},
			Total: int64Ptr(185000),
		},
	}
}

func TestCreateOrder_Success(t *testing.T) {
	up := loadedUpstream()
	up.orderRes = &domain.OrderResult{
		OrderRef:   "ORD-1042",
		Total:      185000,
		HandoffURL: "https://wa.me/923008887766?text=ORD-1042",
	}
	router := newTestRouter(t, up, &stubProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/orders", orderPayload()))

	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "ORD-1042", data["order_ref"])
	assert.Contains(t, data["handoff_url"], "wa.me")

	// The cart is cleared as part of success handling.
	up.cart = &upstream.Cart{Lines: []domain.CartLine{}, Total: int64Ptr(0)}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/cart", nil))
	cartData := decodeBody(t, rec)["data"].(map[string]any)
	assert.Empty(t, cartData["lines"])
}

func TestCreateOrder_RequiresAuth(t *testing.T) {
	router := newTestRouter(t, loadedUpstream(), &stubProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(orderPayload()))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	errBody := decodeBody(t, rec)["error"].(map[string]any)
	assert.NotEmpty(t, errBody["redirect"])
}

func TestCreateOrder_EmptyCartRejected(t *testing.T) {
	up := &stubUpstream{cart: &upstream.Cart{Lines: []domain.CartLine{}, Total: int64Ptr(0)}}
	router := newTestRouter(t, up, &stubProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/orders", orderPayload()))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, "INVALID_INPUT", errBody["code"])
}

func TestCreateOrder_UnknownPaymentMethod(t *testing.T) {
	router := newTestRouter(t, loadedUpstream(), &stubProvider{})

	payload := []byte(`{"payment_method":"crypto","shipping":{"full_name":"A","address_line":"B","city":"C","country":"PK","phone":"1"}}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/orders", payload))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_AmbiguousOutcomeMapsTo502(t *testing.T) {
	up := loadedUpstream()
	up.orderErr = apperrors.Ambiguous("order creation did not complete")
	router := newTestRouter(t, up, &stubProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/orders", orderPayload()))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	errBody := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, "AMBIGUOUS_OUTCOME", errBody["code"])
}

func TestCreateOrder_UpstreamDownMapsTo503(t *testing.T) {
	up := loadedUpstream()
	up.orderErr = apperrors.Unavailable("order service down")
	router := newTestRouter(t, up, &stubProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/orders", orderPayload()))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
