package order

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/voltmart/storefront/pkg/errors"
	"github.com/voltmart/storefront/pkg/validator"

	"github.com/voltmart/storefront/internal/cart"
	"github.com/voltmart/storefront/internal/domain"
	"github.com/voltmart/storefront/internal/event"
	"github.com/voltmart/storefront/internal/upstream"
)

// OrderAPI is the single upstream call the hand-off service makes.
type OrderAPI interface {
	CreateOrder(ctx context.Context, creds upstream.Credentials, order domain.OrderRequest) (*domain.OrderResult, error)
}

// Request is the hand-off input collected from the checkout form.
type Request struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
	Shipping      struct {
		FullName    string `json:"full_name" validate:"required"`
		AddressLine string `json:"address_line" validate:"required"`
		City        string `json:"city" validate:"required"`
		PostalCode  string `json:"postal_code"`
		Country     string `json:"country" validate:"required"`
		Phone       string `json:"phone" validate:"required"`
	} `json:"shipping"`
	Notes string `json:"notes" validate:"max=500"`
}

// Service turns a ready cart mirror into a single order-creation attempt.
//
// The attempt is never retried automatically: order creation is not
// idempotent, and a timeout or unknown-state server error leaves the
// outcome ambiguous. Ambiguous outcomes surface as a distinct error class
// so the caller can tell "failed, safe to retry" from "unknown, check
// your orders first".
type Service struct {
	api    OrderAPI
	events *event.Publisher
	logger *slog.Logger
}

func NewService(api OrderAPI, events *event.Publisher, logger *slog.Logger) *Service {
	return &Service{api: api, events: events, logger: logger}
}

// Place validates the request against the live mirror and submits the
// order. Validation failures never reach the network. On success the
// mirror is cleared; if the server-side clear cannot be confirmed the
// mirror is still reset locally so it cannot show lines that were already
// ordered.
func (s *Service) Place(ctx context.Context, sync *cart.Synchronizer, token string, req Request) (*domain.OrderResult, error) {
	if sync.UserID() == "" {
		return nil, apperrors.Unauthorized("sign in to place an order")
	}

	if !domain.IsValidPaymentMethod(req.PaymentMethod) {
		return nil, apperrors.InvalidInput("unknown payment method")
	}
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	snap, err := sync.Current(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Empty() {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	orderReq := domain.OrderRequest{
		PaymentMethod: req.PaymentMethod,
		Shipping: domain.ShippingAddress{
			FullName:    req.Shipping.FullName,
			AddressLine: req.Shipping.AddressLine,
			City:        req.Shipping.City,
			PostalCode:  req.Shipping.PostalCode,
			Country:     req.Shipping.Country,
			Phone:       req.Shipping.Phone,
		},
		Notes: req.Notes,
	}

	result, err := s.api.CreateOrder(ctx, upstream.Credentials{Token: token}, orderReq)
	if err != nil {
		if errors.Is(err, apperrors.ErrAmbiguous) {
			s.logger.WarnContext(ctx, "order outcome ambiguous, not retrying",
				slog.String("user_id", sync.UserID()),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("user_id", sync.UserID()),
		slog.String("order_ref", result.OrderRef),
		slog.Int64("total", result.Total),
		slog.String("payment_method", req.PaymentMethod),
	)

	// The order exists now; the mirror must not keep showing its lines.
	if _, clearErr := sync.Clear(ctx); clearErr != nil {
		s.logger.WarnContext(ctx, "server cart clear unconfirmed after order, resetting mirror locally",
			slog.String("order_ref", result.OrderRef),
			slog.String("error", clearErr.Error()),
		)
		sync.Reset()
	}

	s.events.OrderPlaced(ctx, event.OrderPlaced{
		UserID:        sync.UserID(),
		OrderRef:      result.OrderRef,
		Total:         result.Total,
		PaymentMethod: req.PaymentMethod,
		PlacedAt:      time.Now().UTC(),
	})

	return result, nil
}
