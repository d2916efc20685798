package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/voltmart/storefront/pkg/errors"
)

// upstreamErrorBody is the error envelope shape used by the commerce API.
// Both `{"error": {"code", "message"}}` and the flat `{"message": "..."}`
// variant are accepted.
type upstreamErrorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into a classified AppError. The response body is fully consumed and
// closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return apperrors.Unavailable(fmt.Sprintf("%s returned status %d (failed to read body)", serviceName, resp.StatusCode))
	}

	message := ""
	var body upstreamErrorBody
	if json.Unmarshal(bodyBytes, &body) == nil {
		switch {
		case body.Error != nil:
			message = body.Error.Message
		case body.Message != "":
			message = body.Message
		}
	}
	if message == "" {
		message = string(bodyBytes)
	}

	return classifyStatus(resp.StatusCode, message, serviceName)
}

// classifyStatus maps an upstream HTTP status code into the storefront's
// failure taxonomy.
func classifyStatus(status int, message, serviceName string) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusNotFound:
		return apperrors.NotFound(serviceName, message)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusConflict:
		return apperrors.Busy(qualified)
	case status >= 500:
		return apperrors.Unavailable(fmt.Sprintf("%s server error (%d): %s", serviceName, status, message))
	default:
		return &apperrors.AppError{
			Code:    "UPSTREAM_ERROR",
			Message: qualified,
			Status:  status,
		}
	}
}
