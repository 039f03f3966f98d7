package opsapi_test

import (
	"net/http"
	"testing"

	"github.com/fivetwenty-io/opsapi-client/pkg/opsapi"
	"github.com/fivetwenty-io/opsapi-client/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestCodeFromHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		httpStatus int
		expected   codes.Code
	}{
		{http.StatusOK, codes.OK},
		{http.StatusCreated, codes.OK},
		{http.StatusBadRequest, codes.InvalidArgument},
		{http.StatusUnauthorized, codes.Unauthenticated},
		{http.StatusForbidden, codes.PermissionDenied},
		{http.StatusNotFound, codes.NotFound},
		{http.StatusConflict, codes.Aborted},
		{http.StatusPreconditionFailed, codes.FailedPrecondition},
		{http.StatusRequestedRangeNotSatisfiable, codes.OutOfRange},
		{http.StatusTooManyRequests, codes.ResourceExhausted},
		{http.StatusGone, codes.DataLoss},
		{http.StatusInternalServerError, codes.Internal},
		{http.StatusNotImplemented, codes.Unimplemented},
		{http.StatusBadGateway, codes.Unavailable},
		{http.StatusServiceUnavailable, codes.Unavailable},
		{http.StatusGatewayTimeout, codes.Unavailable},
		{http.StatusTeapot, codes.Unknown},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, opsapi.CodeFromHTTPStatus(test.httpStatus),
			"HTTP %d", test.httpStatus)
	}
}

func TestStatusPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, opsapi.IsNotFound(status.New(codes.NotFound, "missing")))
	assert.False(t, opsapi.IsNotFound(status.New(codes.Internal, "boom")))
	assert.True(t, opsapi.IsUnauthorized(status.New(codes.Unauthenticated, "who are you")))
	assert.True(t, opsapi.IsForbidden(status.New(codes.PermissionDenied, "no")))
	assert.False(t, opsapi.IsNotFound(nil))
}

func TestParseResponseError(t *testing.T) {
	t.Parallel()

	body := []byte(`{"errors":[{"code":10010,"title":"CF-ResourceNotFound","detail":"Operation not found"}]}`)

	respErr, err := opsapi.ParseResponseError(body)
	require.NoError(t, err)
	require.NotNil(t, respErr.FirstError())
	assert.Equal(t, 10010, respErr.FirstError().Code)
	assert.Contains(t, respErr.Error(), "Operation not found")

	_, err = opsapi.ParseResponseError([]byte("not json"))
	assert.Error(t, err)
}

func TestResponseErrorMessages(t *testing.T) {
	t.Parallel()

	empty := &opsapi.ResponseError{}
	assert.Equal(t, "unknown error", empty.Error())
	assert.Nil(t, empty.FirstError())

	multi := &opsapi.ResponseError{Errors: []opsapi.APIError{
		{Code: 1, Title: "A", Detail: "first"},
		{Code: 2, Title: "B", Detail: "second"},
	}}
	assert.Contains(t, multi.Error(), "multiple errors")
}
