package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/voltmart/storefront/pkg/errors"
	"github.com/voltmart/storefront/pkg/validator"

	"github.com/voltmart/storefront/internal/identity"
)

// response is the JSON envelope for every API reply. A degraded cart read
// may carry both: the fail-safe data alongside the notice that produced it.
type response struct {
	Data  any            `json:"data,omitempty"`
	Error *errorResponse `json:"error,omitempty"`
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	// Redirect is set on authentication failures: the login URL carrying
	// the current location so the user can come back.
	Redirect string `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody classifies an error into the envelope shape. Authentication
// failures get a login redirect target instead of a bare notice.
func errorBody(r *http.Request, loginURL string, err error) (int, *errorResponse) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		return http.StatusBadRequest, &errorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Fields:  valErr.Fields(),
		}
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body := &errorResponse{Code: appErr.Code, Message: appErr.Message}
		if errors.Is(err, apperrors.ErrUnauthorized) {
			body.Redirect = identity.LoginRedirect(loginURL, r.URL.Path)
		}
		return appErr.Status, body
	}

	return http.StatusInternalServerError, &errorResponse{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, loginURL string, err error) {
	status, body := errorBody(r, loginURL, err)

	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	writeJSON(w, status, response{Error: body})
}
