package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/opsapi-client/internal/client"
	"github.com/fivetwenty-io/opsapi-client/pkg/opsapi"
	"github.com/fivetwenty-io/opsapi-client/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

const opName = "operations/op-1"

func testConfig(endpoint string) *opsapi.Config {
	return &opsapi.Config{
		APIEndpoint:  endpoint,
		AccessToken:  "test-token",
		RetryMax:     1,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		PollTimeout:  5 * time.Second,
		HTTPTimeout:  5 * time.Second,
	}
}

func newClient(t *testing.T, config *opsapi.Config) opsapi.Client {
	t.Helper()

	c, err := client.New(context.Background(), config)
	require.NoError(t, err)

	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestOperationsGet(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/"+opName, r.URL.Path)

		writeJSON(t, w, &opsapi.Operation{Name: opName, Done: false})
	}))
	defer server.Close()

	c := newClient(t, testConfig(server.URL))

	op, err := c.Operations().Get(context.Background(), opName)
	require.NoError(t, err)
	assert.Equal(t, opName, op.Name)
	assert.False(t, op.Done)

	_, err = c.Operations().Get(context.Background(), "")
	assert.ErrorIs(t, err, opsapi.ErrOperationNameMissing)
}

func TestOperationsGetServesTerminalOperationsFromCache(t *testing.T) {
	t.Parallel()

	var hits int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(t, w, &opsapi.Operation{Name: opName, Done: true, Response: []byte(`{"ok":true}`)})
	}))
	defer server.Close()

	config := testConfig(server.URL)
	config.Cache = &opsapi.CacheConfig{
		Type:   opsapi.CacheTypeMemory,
		Memory: &opsapi.MemoryCacheConfig{MaxSize: 10},
	}

	c := newClient(t, config)

	for i := 0; i < 3; i++ {
		op, err := c.Operations().Get(context.Background(), opName)
		require.NoError(t, err)
		assert.True(t, op.Done)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "terminal operations are immutable and should be cached")
}

func TestOperationsList(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/operations", r.URL.Path)
		assert.Equal(t, "done=true", r.URL.Query().Get("filter"))
		assert.Equal(t, "50", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "tok-1", r.URL.Query().Get("pageToken"))

		writeJSON(t, w, &opsapi.OperationList{
			Operations:    []opsapi.Operation{{Name: opName, Done: true}},
			NextPageToken: "tok-2",
		})
	}))
	defer server.Close()

	c := newClient(t, testConfig(server.URL))

	list, err := c.Operations().List(context.Background(), &opsapi.ListOperationsOptions{
		Filter:    "done=true",
		PageSize:  50,
		PageToken: "tok-1",
	})
	require.NoError(t, err)
	require.Len(t, list.Operations, 1)
	assert.Equal(t, "tok-2", list.NextPageToken)
}

func TestOperationsCancelAndDelete(t *testing.T) {
	t.Parallel()

	var cancels, deletes int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/"+opName+":cancel":
			atomic.AddInt32(&cancels, 1)
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete && r.URL.Path == "/v1/"+opName:
			atomic.AddInt32(&deletes, 1)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newClient(t, testConfig(server.URL))

	require.NoError(t, c.Operations().Cancel(context.Background(), opName))
	require.NoError(t, c.Operations().Delete(context.Background(), opName))
	assert.Equal(t, int32(1), atomic.LoadInt32(&cancels))
	assert.Equal(t, int32(1), atomic.LoadInt32(&deletes))
}

func TestOperationsWaitPollsUntilDone(t *testing.T) {
	t.Parallel()

	var hits int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)

		op := &opsapi.Operation{Name: opName, Done: n >= 3}
		if op.Done {
			op.Response = []byte(`{"ok":true}`)
		}

		writeJSON(t, w, op)
	}))
	defer server.Close()

	c := newClient(t, testConfig(server.URL))

	op, err := c.Operations().Wait(context.Background(), opName)
	require.NoError(t, err)
	assert.True(t, op.Done)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits), "initial fetch plus two polls")
}

func TestOperationsWaitSurfacesEmbeddedFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, &opsapi.Operation{
			Name: opName,
			Done: true,
			Error: &opsapi.OperationError{
				Code:    int32(codes.FailedPrecondition),
				Message: "resource busy",
			},
		})
	}))
	defer server.Close()

	c := newClient(t, testConfig(server.URL))

	op, err := c.Operations().Wait(context.Background(), opName)
	require.NotNil(t, op, "the terminal operation is returned even when it failed")
	assert.True(t, op.Done)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestOperationsWaitHonorsContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, &opsapi.Operation{Name: opName, Done: false})
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := newClient(t, testConfig(server.URL))

	_, err := c.Operations().Wait(ctx, opName)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetInfo(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/info", r.URL.Path)
		writeJSON(t, w, &opsapi.Info{Name: "opsapi", Version: "1.2.3", APIVersion: "v1"})
	}))
	defer server.Close()

	c := newClient(t, testConfig(server.URL))

	info, err := c.GetInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opsapi", info.Name)
	assert.Equal(t, "1.2.3", info.Version)
}
