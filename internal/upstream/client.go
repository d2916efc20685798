package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	apperrors "github.com/voltmart/storefront/pkg/errors"
	"github.com/voltmart/storefront/pkg/httpclient"

	"github.com/voltmart/storefront/internal/domain"
)

const serviceName = "commerce-api"

// Doer executes HTTP requests. Satisfied by httpclient.Client and
// httpclient.CircuitBreakerClient.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Credentials carry the caller's session token, forwarded to the commerce
// API on every authenticated call.
type Credentials struct {
	Token string
}

// AddItemInput holds the parameters for an add-to-cart call.
type AddItemInput struct {
	ProductID string
	Quantity  int
	Variant   string
}

// Client is the typed client for the remote cart/order/catalog API.
// Idempotent calls go through the retrying circuit-breaker client. The
// non-idempotent calls, adding a cart line (the server folds duplicates by
// incrementing quantity) and creating an order, go through a
// single-attempt client: a retried request that was already delivered
// would apply twice.
type Client struct {
	baseURL string
	http    Doer
	oneShot Doer
	logger  *slog.Logger
}

// New creates a commerce API client.
func New(baseURL string, idempotent Doer, oneShot Doer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    idempotent,
		oneShot: oneShot,
		logger:  logger,
	}
}

// GetCart fetches the current server-side cart snapshot.
func (c *Client) GetCart(ctx context.Context, creds Credentials) (*Cart, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/cart", creds, nil)
	if err != nil {
		return nil, err
	}
	return c.doCart(ctx, req)
}

// AddItem adds a product to the cart and returns the new snapshot. The
// server is the sole authority on stock limits, duplicate-line folding, and
// price snapshotting. Because duplicates fold into quantity, the call is
// not idempotent and is made exactly once; a transport failure leaves the
// mirror untouched and the user retries against a fresh snapshot.
func (c *Client) AddItem(ctx context.Context, creds Credentials, input AddItemInput) (*Cart, error) {
	body := map[string]any{
		"productId": input.ProductID,
		"quantity":  input.Quantity,
	}
	if input.Variant != "" {
		body["selectedVariant"] = input.Variant
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/cart", creds, body)
	if err != nil {
		return nil, err
	}
	return c.doCartWith(ctx, c.oneShot, req)
}

// UpdateItem sets the quantity of an existing line and returns the new
// snapshot.
func (c *Client) UpdateItem(ctx context.Context, creds Credentials, lineID string, quantity int) (*Cart, error) {
	req, err := c.newRequest(ctx, http.MethodPut, "/cart/"+lineID, creds, map[string]any{
		"quantity": quantity,
	})
	if err != nil {
		return nil, err
	}
	return c.doCart(ctx, req)
}

// RemoveItem deletes a line and returns the new snapshot. A 404 for the line
// is tolerated: the current snapshot is re-fetched so the server response
// still drives mirror replacement.
func (c *Client) RemoveItem(ctx context.Context, creds Credentials, lineID string) (*Cart, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, "/cart/"+lineID, creds, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		c.logger.DebugContext(ctx, "cart line already absent, refetching snapshot",
			slog.String("line_id", lineID),
		)
		return c.GetCart(ctx, creds)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	return decodeCart(resp)
}

// ClearCart empties the server-side cart.
func (c *Client) ClearCart(ctx context.Context, creds Credentials) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/cart/clear", creds, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	return nil
}

// wireOrderResponse is the order-creation response shape.
type wireOrderResponse struct {
	Success bool `json:"success"`
	Order   *struct {
		ID          string `json:"_id"`
		OrderNumber string `json:"orderNumber"`
		TotalAmount int64  `json:"totalAmount"`
	} `json:"order"`
	WhatsappURL string `json:"whatsappURL"`
	Message     string `json:"message"`
}

// CreateOrder submits a single order-creation attempt. The call is not
// retried: a timeout that actually succeeded server-side would duplicate the
// order. Timeouts and 5xx responses are classified as ambiguous outcomes.
func (c *Client) CreateOrder(ctx context.Context, creds Credentials, order domain.OrderRequest) (*domain.OrderResult, error) {
	body := map[string]any{
		"paymentMethod": order.PaymentMethod,
		"customerInfo": map[string]string{
			"name":       order.Shipping.FullName,
			"address":    order.Shipping.AddressLine,
			"city":       order.Shipping.City,
			"postalCode": order.Shipping.PostalCode,
			"country":    order.Shipping.Country,
			"phone":      order.Shipping.Phone,
		},
	}
	if order.Notes != "" {
		body["orderNotes"] = order.Notes
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/orders", creds, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.oneShot.Do(ctx, req)
	if err != nil {
		if isAmbiguousTransport(err) {
			return nil, apperrors.Ambiguous("order creation did not complete; the order may or may not have been placed")
		}
		return nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	// The server's state is unknown after a 5xx on a non-idempotent call.
	if resp.StatusCode >= 500 {
		return nil, apperrors.Ambiguous(fmt.Sprintf("order service returned %d; the order may or may not have been placed", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}

	var wire wireOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, apperrors.Ambiguous("order response could not be decoded; the order may have been placed")
	}
	if !wire.Success || wire.Order == nil {
		msg := wire.Message
		if msg == "" {
			msg = "order was rejected"
		}
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s: %s", serviceName, msg))
	}

	ref := wire.Order.OrderNumber
	if ref == "" {
		ref = wire.Order.ID
	}

	return &domain.OrderResult{
		OrderRef:   ref,
		Total:      wire.Order.TotalAmount,
		HandoffURL: wire.WhatsappURL,
	}, nil
}

// Ping checks commerce API reachability for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("commerce api unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// --- helpers ---

func (c *Client) newRequest(ctx context.Context, method, path string, creds Credentials, body any) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	}
	return req, nil
}

func (c *Client) doCart(ctx context.Context, req *http.Request) (*Cart, error) {
	return c.doCartWith(ctx, c.http, req)
}

func (c *Client) doCartWith(ctx context.Context, doer Doer, req *http.Request) (*Cart, error) {
	resp, err := doer.Do(ctx, req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	return decodeCart(resp)
}

func decodeCart(resp *http.Response) (*Cart, error) {
	defer func() { _ = resp.Body.Close() }()

	var wire wireCart
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, apperrors.Unavailable("cart snapshot could not be decoded")
	}
	return wire.toCart(), nil
}

// classifyTransportError maps request execution errors on idempotent calls
// into the failure taxonomy.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return apperrors.Unavailable(fmt.Sprintf("%s unreachable: %v", serviceName, err))
}

// isAmbiguousTransport reports whether a transport error leaves the
// server-side effect unknown: the request may have been received and
// processed even though no response arrived.
func isAmbiguousTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
