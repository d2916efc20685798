package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/voltmart/storefront/pkg/errors"
	"github.com/voltmart/storefront/pkg/logger"

	"github.com/voltmart/storefront/internal/identity"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const sessionKey contextKey = "session"

// session is the per-request authentication state. A nil identity with a
// nil err is an anonymous session; err distinguishes "token rejected" from
// "resolution not yet possible", which callers must not conflate.
type session struct {
	ident *identity.Identity
	token string
	err   error
}

// sessionToken extracts the session token from the Authorization header or
// the session cookie.
func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if c, err := r.Cookie("session_token"); err == nil {
		return c.Value
	}
	return ""
}

// ResolveSession resolves the session token, if any, and stores the result
// in the request context. Requests without a token proceed anonymously;
// resolution failures are recorded, not rejected, so public routes keep
// working and protected routes can answer precisely.
func ResolveSession(provider identity.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &session{token: sessionToken(r)}
			if sess.token != "" {
				ident, err := provider.Resolve(r.Context(), sess.token)
				if err != nil {
					sess.err = err
				} else {
					sess.ident = ident
				}
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			if sess.ident != nil {
				ctx = logger.WithUserID(ctx, sess.ident.UserID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests that did not resolve to an identity.
// Missing or rejected tokens get a 401 with a login redirect; an
// unresolved session (provider could not answer) gets a 503 so the client
// retries instead of bouncing the user through login.
func RequireSession(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFromContext(r.Context())

			if sess.err != nil && errors.Is(sess.err, apperrors.ErrUnresolved) {
				_, body := errorBody(r, loginURL, sess.err)
				writeJSON(w, http.StatusServiceUnavailable, response{Error: body})
				return
			}
			if sess.ident == nil {
				err := sess.err
				if err == nil {
					err = apperrors.Unauthorized("authentication required")
				}
				_, body := errorBody(r, loginURL, err)
				writeJSON(w, http.StatusUnauthorized, response{Error: body})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// sessionFromContext returns the request's session state. Always non-nil.
func sessionFromContext(ctx context.Context) *session {
	if sess, ok := ctx.Value(sessionKey).(*session); ok {
		return sess
	}
	return &session{}
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
