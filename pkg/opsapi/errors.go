package opsapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/opsapi-client/pkg/status"
	"google.golang.org/grpc/codes"
)

// APIError represents a single error returned by the operations API.
type APIError struct {
	Code   int    `json:"code"   yaml:"code"`
	Title  string `json:"title"  yaml:"title"`
	Detail string `json:"detail" yaml:"detail"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (code: %d)", e.Title, e.Detail, e.Code)
}

// ResponseError represents the error response body from the API.
type ResponseError struct {
	Errors []APIError `json:"errors"`
}

// Error implements the error interface for ResponseError.
func (e *ResponseError) Error() string {
	if len(e.Errors) == 0 {
		return "unknown error"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	return fmt.Sprintf("multiple errors: %v", e.Errors)
}

// FirstError returns the first error or nil.
func (e *ResponseError) FirstError() *APIError {
	if len(e.Errors) > 0 {
		return &e.Errors[0]
	}

	return nil
}

// ParseResponseError parses an error response body from JSON.
func ParseResponseError(data []byte) (*ResponseError, error) {
	var errResp ResponseError

	err := json.Unmarshal(data, &errResp)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal response error: %w", err)
	}

	return &errResp, nil
}

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired           = errors.New("config is required")
	ErrAPIEndpointRequired      = errors.New("API endpoint is required")
	ErrSkipTLSOnlyInDev         = errors.New("skipTLS is only allowed in development environments")
	ErrOperationNameMissing     = errors.New("operation name is required")
	ErrNotAuthenticated         = errors.New("not authenticated")
	ErrStaticTokenCannotRefresh = errors.New("static token cannot be refreshed")
	ErrCacheDisabled            = errors.New("cache disabled")
	ErrCacheKeyNotFound         = errors.New("key not found in cache")
	ErrNATSConfigRequired       = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType     = errors.New("unsupported cache type")
)

// IsNotFound checks if the error carries a not-found status.
func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// IsUnauthorized checks if the error carries an unauthenticated status.
func IsUnauthorized(err error) bool {
	return status.Code(err) == codes.Unauthenticated
}

// IsForbidden checks if the error carries a permission-denied status.
func IsForbidden(err error) bool {
	return status.Code(err) == codes.PermissionDenied
}

// CodeFromHTTPStatus maps an HTTP response status to the canonical code
// space used by the retry engine.
func CodeFromHTTPStatus(httpStatus int) codes.Code {
	switch httpStatus {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.Aborted
	case http.StatusPreconditionFailed:
		return codes.FailedPrecondition
	case http.StatusRequestedRangeNotSatisfiable:
		return codes.OutOfRange
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case http.StatusNotImplemented:
		return codes.Unimplemented
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return codes.Unavailable
	case http.StatusGone:
		return codes.DataLoss
	}

	if httpStatus >= 200 && httpStatus < 300 {
		return codes.OK
	}

	if httpStatus >= 500 {
		return codes.Internal
	}

	return codes.Unknown
}
