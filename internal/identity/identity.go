package identity

import (
	"context"
	"net/url"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/voltmart/storefront/pkg/errors"
)

// Identity is the resolved authenticated user.
type Identity struct {
	UserID string
	Email  string
}

// Provider resolves a session token into an identity.
//
// Implementations return apperrors.ErrUnauthorized (wrapped) when the token
// is missing, invalid, or expired, and apperrors.ErrUnresolved when the
// answer is not yet known (e.g. a remote session service is unreachable) —
// callers must treat the latter as "do not fetch yet", not as anonymous.
type Provider interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// JWTProvider resolves identities from HMAC-signed session tokens issued by
// the identity service.
type JWTProvider struct {
	secret []byte
}

// NewJWTProvider creates a provider verifying tokens with the given secret.
func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret)}
}

// Resolve parses and verifies a session token.
func (p *JWTProvider) Resolve(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("missing session token")
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperrors.Unauthorized("invalid or expired session token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.Unauthorized("invalid token claims")
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return nil, apperrors.Unauthorized("token carries no user id")
	}

	email, _ := claims["email"].(string)

	return &Identity{UserID: userID, Email: email}, nil
}

// LoginRedirect builds the identity-resolution URL carrying the current
// location, so the user returns to where they were after authenticating.
func LoginRedirect(loginURL, returnTo string) string {
	if returnTo == "" {
		return loginURL
	}
	u, err := url.Parse(loginURL)
	if err != nil {
		return loginURL
	}
	q := u.Query()
	q.Set("return_to", returnTo)
	u.RawQuery = q.Encode()
	return u.String()
}
