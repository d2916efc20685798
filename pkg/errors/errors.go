package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure classes the storefront distinguishes.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnresolved   = errors.New("identity not resolved")
	ErrUnavailable  = errors.New("service unavailable")
	ErrAmbiguous    = errors.New("ambiguous outcome")
	ErrMutationBusy = errors.New("mutation already in flight")
	ErrInternal     = errors.New("internal error")
)

// AppError is a structured application error with an HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error for client-detectable bad input.
// Validation failures are rejected before any network call is made.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error. At the HTTP layer this carries a login
// redirect target instead of a generic failure notice.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHENTICATED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Unresolved creates a 503 error for the window where the identity provider
// has not yet answered. Callers should hold off rather than treat the
// session as anonymous.
func Unresolved(message string) *AppError {
	return &AppError{
		Code:    "IDENTITY_UNRESOLVED",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrUnresolved,
	}
}

// Unavailable creates a 503 error for a transient upstream failure. The
// request can be retried as-is.
func Unavailable(message string) *AppError {
	return &AppError{
		Code:    "UPSTREAM_UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrUnavailable,
	}
}

// Ambiguous creates a 502 error for a non-idempotent call whose server-side
// effect is unknown (typically a timeout on order creation). It must never
// be retried automatically.
func Ambiguous(message string) *AppError {
	return &AppError{
		Code:    "AMBIGUOUS_OUTCOME",
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     ErrAmbiguous,
	}
}

// Busy creates a 409 error for a cart mutation attempted while another
// mutation is still in flight for the same mirror.
func Busy(message string) *AppError {
	return &AppError{
		Code:    "MUTATION_IN_FLIGHT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrMutationBusy,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnresolved), errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrAmbiguous):
		return http.StatusBadGateway
	case errors.Is(err, ErrMutationBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryable reports whether the caller may safely retry the failed
// operation without user confirmation. Ambiguous outcomes are explicitly
// excluded: the server-side effect may already have happened.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrUnresolved)
}
