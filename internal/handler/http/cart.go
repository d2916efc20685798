package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voltmart/storefront/pkg/validator"

	"github.com/voltmart/storefront/internal/cart"
	"github.com/voltmart/storefront/internal/domain"
	"github.com/voltmart/storefront/internal/event"
)

// CartHandler exposes the cart mirror over HTTP.
type CartHandler struct {
	registry *cart.Registry
	events   *event.Publisher
	logger   *slog.Logger
	loginURL string
}

func NewCartHandler(registry *cart.Registry, events *event.Publisher, logger *slog.Logger, loginURL string) *CartHandler {
	return &CartHandler{
		registry: registry,
		events:   events,
		logger:   logger,
		loginURL: loginURL,
	}
}

// AddItemRequest is the JSON request body for adding a line to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	Variant   string `json:"variant"`
}

// UpdateQuantityRequest is the JSON request body for changing a line quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// GetCart handles GET /api/v1/cart. Anonymous sessions get an empty cart
// without an upstream call. A failed fetch still answers with the empty
// fail-safe mirror, carrying the retryable notice alongside it.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if sess.ident == nil {
		writeJSON(w, http.StatusOK, response{Data: cart.EmptySnapshot()})
		return
	}

	sync := h.registry.For(sess.ident, sess.token)
	snap, err := sync.Current(r.Context())
	if err != nil {
		_, body := errorBody(r, h.loginURL, err)
		writeJSON(w, http.StatusOK, response{Data: snap, Error: body})
		return
	}

	writeJSON(w, http.StatusOK, response{Data: snap})
}

// AddItem handles POST /api/v1/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		writeError(w, r, h.logger, h.loginURL, err)
		return
	}

	h.mutate(w, r, func(sync *cart.Synchronizer) (domain.CartSnapshot, error) {
		return sync.Add(r.Context(), req.ProductID, req.Quantity, req.Variant)
	})
}

// UpdateItem handles PUT /api/v1/cart/items/{lineId}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "lineId")

	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		writeError(w, r, h.logger, h.loginURL, err)
		return
	}

	h.mutate(w, r, func(sync *cart.Synchronizer) (domain.CartSnapshot, error) {
		return sync.UpdateQuantity(r.Context(), lineID, req.Quantity)
	})
}

// RemoveItem handles DELETE /api/v1/cart/items/{lineId}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "lineId")

	h.mutate(w, r, func(sync *cart.Synchronizer) (domain.CartSnapshot, error) {
		return sync.Remove(r.Context(), lineID)
	})
}

// ClearCart handles DELETE /api/v1/cart.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(sync *cart.Synchronizer) (domain.CartSnapshot, error) {
		return sync.Clear(r.Context())
	})
}

// mutate runs one synchronizer mutation for the authenticated session and
// writes the confirmed snapshot or the classified failure.
func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, op func(*cart.Synchronizer) (domain.CartSnapshot, error)) {
	sess := sessionFromContext(r.Context())

	sync := h.registry.For(sess.ident, sess.token)
	snap, err := op(sync)
	if err != nil {
		writeError(w, r, h.logger, h.loginURL, err)
		return
	}

	h.events.CartSynced(r.Context(), event.CartSynced{
		UserID:    sess.ident.UserID,
		LineCount: len(snap.Lines),
		Total:     snap.Total,
		SyncedAt:  time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, response{Data: snap})
}
