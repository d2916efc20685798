package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	apperrors "github.com/voltmart/storefront/pkg/errors"

	"github.com/voltmart/storefront/internal/domain"
	"github.com/voltmart/storefront/internal/identity"
	"github.com/voltmart/storefront/internal/upstream"
)

// API is what the synchronizer needs from the commerce client.
type API interface {
	GetCart(ctx context.Context, creds upstream.Credentials) (*upstream.Cart, error)
	AddItem(ctx context.Context, creds upstream.Credentials, input upstream.AddItemInput) (*upstream.Cart, error)
	UpdateItem(ctx context.Context, creds upstream.Credentials, lineID string, quantity int) (*upstream.Cart, error)
	RemoveItem(ctx context.Context, creds upstream.Credentials, lineID string) (*upstream.Cart, error)
	ClearCart(ctx context.Context, creds upstream.Credentials) error
}

// Synchronizer owns one user's in-memory cart mirror and keeps it
// consistent with the server. The server stays authoritative: every
// successful mutation returns a full snapshot that replaces the mirror
// wholesale, and no speculative state is committed before the server
// confirms.
//
// Mutations are serialized through a single in-flight slot: a second
// mutation issued while one is pending is rejected with a busy error
// instead of racing for last-write-wins on the snapshot.
type Synchronizer struct {
	api    API
	logger *slog.Logger

	// onAuthFailure tears down the client-held session artifacts when the
	// server reports the session expired mid-operation.
	onAuthFailure func(userID string)

	mu    sync.Mutex
	ident *identity.Identity
	token string
	state domain.State
	lines []domain.CartLine
	total int64
	busy  bool
}

// NewSynchronizer creates a mirror for the given identity. The mirror
// starts uninitialized; the first read triggers a fetch.
func NewSynchronizer(api API, logger *slog.Logger, ident *identity.Identity, token string, onAuthFailure func(userID string)) *Synchronizer {
	return &Synchronizer{
		api:           api,
		logger:        logger,
		onAuthFailure: onAuthFailure,
		ident:         ident,
		token:         token,
		state:         domain.StateUninitialized,
	}
}

// EmptySnapshot is the mirror value served to unauthenticated sessions.
func EmptySnapshot() domain.CartSnapshot {
	return domain.CartSnapshot{State: domain.StateReady, Lines: []domain.CartLine{}}
}

// Snapshot returns the current mirror value. Safe to call at any time,
// including while a mutation is in flight.
func (s *Synchronizer) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Synchronizer) snapshotLocked() domain.CartSnapshot {
	lines := make([]domain.CartLine, len(s.lines))
	copy(lines, s.lines)
	return domain.CartSnapshot{State: s.state, Lines: lines, Total: s.total}
}

// UpdateToken replaces the session token forwarded on upstream calls.
func (s *Synchronizer) UpdateToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Current returns the mirror, fetching it first if it has never been
// loaded. Fetch failures degrade to an empty ready mirror and surface the
// retryable error alongside it.
func (s *Synchronizer) Current(ctx context.Context) (domain.CartSnapshot, error) {
	s.mu.Lock()
	uninitialized := s.state == domain.StateUninitialized
	s.mu.Unlock()

	if !uninitialized {
		return s.Snapshot(), nil
	}
	return s.Refresh(ctx)
}

// Refresh fetches the server snapshot and replaces the mirror. If the
// session is unauthenticated the mirror is set empty/ready without
// contacting the server. On any fetch failure the mirror is also reset
// empty/ready (never stuck loading, never showing stale lines whose
// freshness is unknown) and the error is returned for a user-visible
// retryable notice.
func (s *Synchronizer) Refresh(ctx context.Context) (domain.CartSnapshot, error) {
	s.mu.Lock()
	if s.busy {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, apperrors.Busy("cart update already in progress")
	}
	if s.ident == nil {
		s.resetLocked()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	s.busy = true
	s.state = domain.StateLoading
	creds := upstream.Credentials{Token: s.token}
	s.mu.Unlock()

	remote, err := s.api.GetCart(ctx, creds)

	s.mu.Lock()
	s.busy = false

	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			return s.authFailure(ctx, err)
		}
		s.resetLocked()
		s.logger.WarnContext(ctx, "cart fetch failed, serving empty mirror",
			slog.String("user_id", s.ident.UserID),
			slog.String("error", err.Error()),
		)
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, apperrors.Unavailable("your cart could not be loaded, please retry")
	}

	s.adoptLocked(ctx, remote)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return snap, nil
}

// Add requests an add-to-cart mutation. Requires authentication: callers
// receive an unauthorized error (mapped to a login redirect upstream) and
// no network call is made. On failure the previous mirror is untouched.
func (s *Synchronizer) Add(ctx context.Context, productID string, quantity int, variant string) (domain.CartSnapshot, error) {
	if productID == "" {
		return s.Snapshot(), apperrors.InvalidInput("product id is required")
	}
	if quantity < 1 {
		return s.Snapshot(), apperrors.InvalidInput("quantity must be at least 1")
	}

	return s.mutate(ctx, "add", func(ctx context.Context, creds upstream.Credentials) (*upstream.Cart, error) {
		return s.api.AddItem(ctx, creds, upstream.AddItemInput{
			ProductID: productID,
			Quantity:  quantity,
			Variant:   variant,
		})
	})
}

// UpdateQuantity sets the quantity of an existing line. Quantities below 1
// are rejected before any network call; removal is a distinct operation,
// not a zero-quantity update.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, lineID string, quantity int) (domain.CartSnapshot, error) {
	if lineID == "" {
		return s.Snapshot(), apperrors.InvalidInput("line id is required")
	}
	if quantity < 1 {
		return s.Snapshot(), apperrors.InvalidInput("quantity must be at least 1; remove the line instead")
	}

	return s.mutate(ctx, "update", func(ctx context.Context, creds upstream.Credentials) (*upstream.Cart, error) {
		return s.api.UpdateItem(ctx, creds, lineID, quantity)
	})
}

// Remove deletes a line. Removing a line id that is no longer present is
// not an error: the server's snapshot still replaces the mirror.
func (s *Synchronizer) Remove(ctx context.Context, lineID string) (domain.CartSnapshot, error) {
	if lineID == "" {
		return s.Snapshot(), apperrors.InvalidInput("line id is required")
	}

	return s.mutate(ctx, "remove", func(ctx context.Context, creds upstream.Credentials) (*upstream.Cart, error) {
		return s.api.RemoveItem(ctx, creds, lineID)
	})
}

// Clear empties the cart on the server and locally. Used both as an
// explicit user action and as the terminal step of a successful order.
func (s *Synchronizer) Clear(ctx context.Context) (domain.CartSnapshot, error) {
	s.mu.Lock()
	if s.ident == nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, apperrors.Unauthorized("sign in to manage your cart")
	}
	if s.busy {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, apperrors.Busy("cart update already in progress")
	}
	s.busy = true
	s.state = domain.StateLoading
	creds := upstream.Credentials{Token: s.token}
	s.mu.Unlock()

	err := s.api.ClearCart(ctx, creds)

	s.mu.Lock()
	s.busy = false

	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			return s.authFailure(ctx, err)
		}
		s.state = domain.StateReady
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, err
	}

	s.resetLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return snap, nil
}

// Reset discards the mirror locally, leaving it empty and ready. Used on
// logout and as the fallback after a placed order when the server-side
// clear could not be confirmed: the mirror must never show lines for an
// order that was already created.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// UserID returns the owning user's id, or "" for an anonymous mirror.
func (s *Synchronizer) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ident == nil {
		return ""
	}
	return s.ident.UserID
}

// mutate runs one confirm-then-replace mutation through the in-flight slot.
func (s *Synchronizer) mutate(ctx context.Context, op string, call func(context.Context, upstream.Credentials) (*upstream.Cart, error)) (domain.CartSnapshot, error) {
	s.mu.Lock()
	if s.ident == nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, apperrors.Unauthorized("sign in to manage your cart")
	}
	if s.busy {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, apperrors.Busy("cart update already in progress")
	}
	s.busy = true
	s.state = domain.StateLoading
	creds := upstream.Credentials{Token: s.token}
	s.mu.Unlock()

	remote, err := call(ctx, creds)

	s.mu.Lock()
	s.busy = false

	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			return s.authFailure(ctx, err)
		}
		// Previous snapshot stays untouched; the caller may retry.
		s.state = domain.StateReady
		s.logger.WarnContext(ctx, "cart mutation failed",
			slog.String("op", op),
			slog.String("user_id", s.ident.UserID),
			slog.String("error", err.Error()),
		)
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, err
	}

	s.adoptLocked(ctx, remote)
	s.logger.InfoContext(ctx, "cart mutation applied",
		slog.String("op", op),
		slog.String("user_id", s.ident.UserID),
		slog.Int("lines", len(s.lines)),
		slog.Int64("total", s.total),
	)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return snap, nil
}

// adoptLocked replaces the mirror wholesale with a server snapshot and
// settles the total: the server-supplied value when present, otherwise the
// recomputed fallback. Never carried over stale.
func (s *Synchronizer) adoptLocked(ctx context.Context, remote *upstream.Cart) {
	s.lines = remote.Lines
	s.state = domain.StateReady

	if remote.Total != nil && *remote.Total >= 0 {
		s.total = *remote.Total
		return
	}
	if remote.Total != nil {
		s.logger.WarnContext(ctx, "server supplied negative cart total, recomputing",
			slog.Int64("server_total", *remote.Total),
		)
	}

	total := domain.CartSnapshot{Lines: s.lines}.Subtotal()
	if total < 0 {
		total = 0
	}
	s.total = total
}

// authFailure handles an expired session discovered mid-operation: the
// client-held session artifact is dropped, the mirror reset, and the
// unauthorized error bubbled up so the caller raises a login redirect
// rather than a generic failure notice.
//
// Called with s.mu held; releases it before notifying the registry. The
// teardown callback takes the registry lock, and holding both at once
// here while Registry.For holds them in the opposite order would wedge
// all cart traffic.
func (s *Synchronizer) authFailure(ctx context.Context, cause error) (domain.CartSnapshot, error) {
	userID := ""
	if s.ident != nil {
		userID = s.ident.UserID
	}

	s.logger.InfoContext(ctx, "session rejected by commerce api, dropping session artifacts",
		slog.String("user_id", userID),
	)

	s.token = ""
	s.ident = nil
	s.resetLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if s.onAuthFailure != nil && userID != "" {
		s.onAuthFailure(userID)
	}

	return snap, fmt.Errorf("session expired: %w", cause)
}

func (s *Synchronizer) resetLocked() {
	s.lines = []domain.CartLine{}
	s.total = 0
	s.state = domain.StateReady
}
