package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/voltmart/storefront/pkg/errors"
)

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_Classification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{"401 structured", http.StatusUnauthorized, `{"error":{"code":"UNAUTHENTICATED","message":"token expired"}}`, apperrors.ErrUnauthorized},
		{"401 flat message", http.StatusUnauthorized, `{"message":"Not authorized"}`, apperrors.ErrUnauthorized},
		{"404", http.StatusNotFound, `{"message":"no such line"}`, apperrors.ErrNotFound},
		{"400", http.StatusBadRequest, `{"message":"quantity out of range"}`, apperrors.ErrInvalidInput},
		{"422", http.StatusUnprocessableEntity, `{"message":"out of stock"}`, apperrors.ErrInvalidInput},
		{"500", http.StatusInternalServerError, `oops`, apperrors.ErrUnavailable},
		{"503", http.StatusServiceUnavailable, `{"message":"maintenance"}`, apperrors.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(fakeResponse(tt.status, tt.body), "commerce-api")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
		})
	}
}

func TestParseResponseError_PreservesMessage(t *testing.T) {
	err := ParseResponseError(fakeResponse(http.StatusBadRequest, `{"error":{"code":"X","message":"quantity out of range"}}`), "commerce-api")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Message, "quantity out of range")
	assert.Contains(t, appErr.Message, "commerce-api")
}
