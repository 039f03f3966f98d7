package opsapi

import (
	"context"
	"time"
)

// OperationsClient drives long-running operations to completion.
type OperationsClient interface {
	// Get fetches the current state of an operation.
	Get(ctx context.Context, name string) (*Operation, error)

	// List returns one page of operations.
	List(ctx context.Context, opts *ListOperationsOptions) (*OperationList, error)

	// Cancel asks the server to cancel a running operation.
	Cancel(ctx context.Context, name string) error

	// Delete removes the record of a terminal operation.
	Delete(ctx context.Context, name string) error

	// Wait polls the operation until it reports done, the polling budget
	// is exhausted, or ctx is cancelled. On success it returns the
	// terminal operation; an embedded operation failure is returned as
	// the operation's own error.
	Wait(ctx context.Context, name string) (*Operation, error)
}

// Client is the top-level opsapi client.
type Client interface {
	Operations() OperationsClient
	GetInfo(ctx context.Context) (*Info, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// TokenManager supplies bearer tokens for API requests. How tokens are
// obtained is out of scope for this SDK; implementations only need to yield
// a current token and support a forced refresh.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	SetToken(token string, expiresAt time.Time)
}

// Config represents client configuration for building an opsapi.Client.
//
// Per-request timeouts should generally be controlled via context passed to
// client methods. Transport retry behavior can be tuned via RetryMax/
// RetryWaitMin/RetryWaitMax; the semantic retry and polling budgets via the
// Retry*/Poll* fields. SkipTLSVerify is only honored when the environment
// variable OPSAPI_DEV_MODE is set to "true" or "1"; do not use it in
// production.
type Config struct {
	// APIEndpoint is the base URL of the operations service, e.g.
	// "https://api.example.com". opsclient.New normalizes this value by
	// trimming a trailing slash and adding "https://" if no scheme is
	// present.
	APIEndpoint string

	// AccessToken, if set, is used directly as a static bearer token.
	AccessToken string

	// TokenManager, if set, takes precedence over AccessToken.
	TokenManager TokenManager

	// Transport-level retry (retryablehttp). Zero values select defaults.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Semantic retry budget for individual RPCs. Zero values select
	// defaults.
	RetryMaxFailures int
	BackoffInitial   time.Duration
	BackoffMax       time.Duration

	// Polling budget for Wait. Zero values select defaults.
	PollInterval time.Duration
	PollTimeout  time.Duration

	// CancelOnAbort controls whether cancelling a Wait also issues a
	// server-side cancel RPC for the operation being polled.
	CancelOnAbort bool

	// Cache configures caching of terminal operations. Nil disables it.
	Cache *CacheConfig

	// HTTPTimeout bounds each HTTP request. Zero selects the default.
	HTTPTimeout time.Duration

	// SkipTLSVerify disables TLS verification (development only).
	SkipTLSVerify bool

	// Logger receives diagnostic output. Nil disables logging.
	Logger Logger

	// EnableTracing turns on per-backoff trace logging in the retry
	// engine.
	EnableTracing bool
}
