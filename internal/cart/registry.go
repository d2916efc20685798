package cart

import (
	"log/slog"
	"sync"

	"github.com/voltmart/storefront/internal/identity"
)

// Registry hands out one synchronizer per signed-in user. Each user's
// mirror is independent; there is no shared cart state across sessions.
type Registry struct {
	api    API
	logger *slog.Logger

	mu    sync.Mutex
	syncs map[string]*Synchronizer
}

func NewRegistry(api API, logger *slog.Logger) *Registry {
	return &Registry{
		api:    api,
		logger: logger,
		syncs:  make(map[string]*Synchronizer),
	}
}

// For returns the synchronizer for the given identity, creating it on
// first use. The session token is refreshed on every call so a renewed
// session keeps its existing mirror.
//
// The token refresh happens after the registry lock is released: a
// synchronizer tearing itself down on an auth failure calls back into
// Drop, and taking both locks here would order them against that path.
func (r *Registry) For(ident *identity.Identity, token string) *Synchronizer {
	r.mu.Lock()
	s, ok := r.syncs[ident.UserID]
	if !ok {
		s = NewSynchronizer(r.api, r.logger, ident, token, r.Drop)
		r.syncs[ident.UserID] = s
	}
	r.mu.Unlock()

	if ok {
		s.UpdateToken(token)
	}
	return s
}

// Drop tears down a user's mirror. Called on logout and when the commerce
// API rejects the session mid-operation.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.syncs, userID)
}

// Size reports how many mirrors are live. Exposed for observability.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.syncs)
}
