package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Transport-level retry limits (retryablehttp).
const (
	// DefaultTransportRetryMax is the default maximum number of
	// transport-level retries for a single HTTP request.
	DefaultTransportRetryMax = 3

	// DefaultTransportRetryWaitMin is the minimum wait between
	// transport-level retries.
	DefaultTransportRetryWaitMin = 500 * time.Millisecond

	// DefaultTransportRetryWaitMax is the maximum wait between
	// transport-level retries.
	DefaultTransportRetryWaitMax = 10 * time.Second
)

// Retry-engine defaults.
const (
	// DefaultRetryMaxFailures is the number of retryable failures the
	// default retry policy tolerates before giving up.
	DefaultRetryMaxFailures = 5

	// DefaultBackoffInitial is the initial backoff envelope.
	DefaultBackoffInitial = 500 * time.Millisecond

	// DefaultBackoffMax is the backoff envelope ceiling.
	DefaultBackoffMax = 30 * time.Second

	// DefaultBackoffMultiplier is the backoff envelope growth factor.
	DefaultBackoffMultiplier = 2.0
)

// Polling defaults.
const (
	// DefaultPollInterval is the wait between operation polls.
	DefaultPollInterval = 2 * time.Second

	// DefaultPollTimeout bounds how long an operation is polled before the
	// polling policy is exhausted.
	DefaultPollTimeout = 5 * time.Minute
)

// Cache defaults.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute
)
