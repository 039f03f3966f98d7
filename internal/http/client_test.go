package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/opsapi-client/pkg/opsapi"
	"github.com/fivetwenty-io/opsapi-client/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

type fakeTokenManager struct {
	mu    sync.Mutex
	token string
}

func (m *fakeTokenManager) GetToken(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.token, nil
}

func (m *fakeTokenManager) RefreshToken(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = "fresh-token"

	return nil
}

func (m *fakeTokenManager) SetToken(token string, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
}

func fastConfig() *Config {
	return &Config{
		RetryMax:     1,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
		Timeout:      5 * time.Second,
	}
}

func TestClientGet(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Equal(t, "/v1/operations/op-1", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("verbose"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"operations/op-1","done":false}`))
	}))
	defer server.Close()

	client := NewClientWithConfig(server.URL, &fakeTokenManager{token: "test-token"}, fastConfig())

	query := url.Values{}
	query.Set("verbose", "true")

	resp, err := client.Get(context.Background(), "/v1/operations/op-1", query)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "operations/op-1")
}

func TestClientMapsErrorResponses(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"code":10010,"title":"CF-ResourceNotFound","detail":"Operation not found"}]}`))
	}))
	defer server.Close()

	client := NewClientWithConfig(server.URL, nil, fastConfig())

	_, err := client.Get(context.Background(), "/v1/operations/gone", nil)
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))

	httpStatus, ok := status.FromError(err).Metadata(HTTPStatusKey)
	require.True(t, ok)
	assert.Equal(t, "404", httpStatus)
	assert.Contains(t, status.FromError(err).Message(), "Operation not found")
}

func TestClientRetriesOnceWithRefreshedToken(t *testing.T) {
	t.Parallel()

	var requests int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)

		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClientWithConfig(server.URL, &fakeTokenManager{token: "stale-token"}, fastConfig())

	resp, err := client.Get(context.Background(), "/v1/info", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestClientPostEncodesJSON(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClientWithConfig(server.URL, nil, fastConfig())

	_, err := client.Post(context.Background(), "/v1/operations/op-1:cancel", map[string]string{"reason": "test"})
	require.NoError(t, err)
}

func TestClientConnectionErrorsAreUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing is listening anymore

	client := NewClientWithConfig(server.URL, nil, fastConfig())

	_, err := client.Get(context.Background(), "/v1/info", nil)
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

var _ opsapi.TokenManager = (*fakeTokenManager)(nil)
