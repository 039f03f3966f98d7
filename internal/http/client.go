// Package http implements the JSON/HTTP transport shared by all opsapi
// resource clients. Transport-level retry (connection resets, 5xx on
// idempotent requests) is delegated to retryablehttp; semantic retry is
// owned by pkg/retry.
package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/opsapi-client/internal/constants"
	"github.com/fivetwenty-io/opsapi-client/pkg/opsapi"
	"github.com/fivetwenty-io/opsapi-client/pkg/status"
	"github.com/hashicorp/go-retryablehttp"
	"google.golang.org/grpc/codes"
)

// HTTPStatusKey is the metadata key under which transport errors record the
// HTTP response status.
const HTTPStatusKey = "http-status"

// Request represents an HTTP request to the API.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// Response represents an HTTP response from the API.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Config tunes the transport.
type Config struct {
	RetryMax      int
	RetryWaitMin  time.Duration
	RetryWaitMax  time.Duration
	Timeout       time.Duration
	SkipTLSVerify bool
	Logger        opsapi.Logger
	UserAgent     string
}

// Client is the JSON/HTTP transport.
type Client struct {
	baseURL      string
	retryClient  *retryablehttp.Client
	tokenManager opsapi.TokenManager
	logger       opsapi.Logger
	userAgent    string
}

// NewClient creates a transport with default settings. tokenManager may be
// nil for unauthenticated APIs.
func NewClient(baseURL string, tokenManager opsapi.TokenManager) *Client {
	return NewClientWithConfig(baseURL, tokenManager, nil)
}

// NewClientWithConfig creates a transport with explicit settings.
func NewClientWithConfig(baseURL string, tokenManager opsapi.TokenManager, config *Config) *Client {
	if config == nil {
		config = &Config{}
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil

	rc.RetryMax = constants.DefaultTransportRetryMax
	if config.RetryMax > 0 {
		rc.RetryMax = config.RetryMax
	}

	rc.RetryWaitMin = constants.DefaultTransportRetryWaitMin
	if config.RetryWaitMin > 0 {
		rc.RetryWaitMin = config.RetryWaitMin
	}

	rc.RetryWaitMax = constants.DefaultTransportRetryWaitMax
	if config.RetryWaitMax > 0 {
		rc.RetryWaitMax = config.RetryWaitMax
	}

	timeout := constants.DefaultHTTPTimeout
	if config.Timeout > 0 {
		timeout = config.Timeout
	}

	rc.HTTPClient.Timeout = timeout

	if config.SkipTLSVerify {
		rc.HTTPClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402 -- guarded by the dev-mode check in opsclient
		}
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "opsapi-client/1.0"
	}

	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		retryClient:  rc,
		tokenManager: tokenManager,
		logger:       config.Logger,
		userAgent:    userAgent,
	}
}

// Do sends the request and returns the parsed response. Responses with
// status >= 400 are returned as status errors carrying the mapped canonical
// code and the HTTP status under HTTPStatusKey.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	// One retry with a refreshed token on an expired credential.
	if resp.StatusCode == http.StatusUnauthorized && c.tokenManager != nil {
		refreshErr := c.tokenManager.RefreshToken(ctx)
		if refreshErr == nil {
			resp, err = c.send(ctx, req)
			if err != nil {
				return nil, err
			}
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return resp, c.errorFromResponse(resp)
	}

	return resp, nil
}

func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting token: %w", err)
		}

		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	if c.logger != nil {
		c.logger.Debug("API Request", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
		})
	}

	httpResp, err := c.retryClient.Do(httpReq)
	if err != nil {
		// Connection-level failures are transient by definition.
		return nil, status.Newf(codes.Unavailable, "sending request: %v", err)
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if c.logger != nil {
		fields := map[string]interface{}{
			"method":      req.Method,
			"path":        req.Path,
			"status_code": resp.StatusCode,
		}

		if resp.StatusCode >= http.StatusBadRequest {
			c.logger.Error("API Response Error", fields)
		} else {
			c.logger.Debug("API Response", fields)
		}
	}

	return resp, nil
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post sends a POST request with a JSON-encoded body. A nil body sends an
// empty request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	var raw []byte

	if body != nil {
		var err error

		raw, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: raw})
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// errorFromResponse converts an error response into a status error,
// preferring the structured error body when it parses.
func (c *Client) errorFromResponse(resp *Response) error {
	message := http.StatusText(resp.StatusCode)

	parsed, err := opsapi.ParseResponseError(resp.Body)
	if err == nil && parsed.FirstError() != nil {
		message = parsed.FirstError().Error()
	}

	return status.New(opsapi.CodeFromHTTPStatus(resp.StatusCode), message).
		WithMetadata(HTTPStatusKey, strconv.Itoa(resp.StatusCode))
}
