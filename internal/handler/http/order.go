package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/voltmart/storefront/internal/cart"
	"github.com/voltmart/storefront/internal/order"
)

// OrderHandler exposes the one-shot order hand-off.
type OrderHandler struct {
	orders   *order.Service
	registry *cart.Registry
	logger   *slog.Logger
	loginURL string
}

func NewOrderHandler(orders *order.Service, registry *cart.Registry, logger *slog.Logger, loginURL string) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		registry: registry,
		logger:   logger,
		loginURL: loginURL,
	}
}

// CreateOrder handles POST /api/v1/orders. This call is never retried by
// the server: a 502 AMBIGUOUS_OUTCOME answer means the order may exist and
// the caller must check order history before trying again.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req order.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	sync := h.registry.For(sess.ident, sess.token)
	result, err := h.orders.Place(r.Context(), sync, sess.token, req)
	if err != nil {
		writeError(w, r, h.logger, h.loginURL, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: result})
}
