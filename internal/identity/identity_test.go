package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/voltmart/storefront/pkg/errors"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestResolve_ValidToken(t *testing.T) {
	p := NewJWTProvider(testSecret)
	token := signToken(t, jwt.MapClaims{
		"user_id": "user-1",
		"email":   "ayesha@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	ident, err := p.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.UserID)
	assert.Equal(t, "ayesha@example.com", ident.Email)
}

func TestResolve_SubClaimFallback(t *testing.T) {
	p := NewJWTProvider(testSecret)
	token := signToken(t, jwt.MapClaims{
		"sub": "user-2",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	ident, err := p.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", ident.UserID)
}

func TestResolve_Failures(t *testing.T) {
	p := NewJWTProvider(testSecret)

	expired := signToken(t, jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	wrongKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "user-1"})
	wrongSigned, err := wrongKey.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	noUser := signToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage", "not.a.token"},
		{"expired", expired},
		{"wrong key", wrongSigned},
		{"no user id", noUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Resolve(context.Background(), tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
		})
	}
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t,
		"https://shop.example.com/login?return_to=%2Fcheckout",
		LoginRedirect("https://shop.example.com/login", "/checkout"),
	)
	assert.Equal(t,
		"https://shop.example.com/login",
		LoginRedirect("https://shop.example.com/login", ""),
	)
}
