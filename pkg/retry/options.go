package retry

import (
	"github.com/fivetwenty-io/opsapi-client/internal/constants"
	"github.com/fivetwenty-io/opsapi-client/pkg/opsapi"
)

// Options is an immutable snapshot of per-call configuration. A snapshot is
// captured once, when a loop starts, and threaded unchanged through every
// attempt, so a logical call behaves deterministically even if the ambient
// configuration changes while it runs.
//
// The policy fields hold prototypes: each loop clones its own private copy,
// so one Options value can be shared by any number of concurrent calls.
type Options struct {
	retry   RetryPolicy
	backoff BackoffPolicy
	logger  opsapi.Logger
	tracing bool
	values  map[interface{}]interface{}
}

// Option mutates an Options value under construction.
type Option func(*Options)

// NewOptions builds an immutable Options snapshot.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// WithRetryPolicy sets the retry policy prototype.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Options) { o.retry = p }
}

// WithBackoffPolicy sets the backoff policy prototype.
func WithBackoffPolicy(p BackoffPolicy) Option {
	return func(o *Options) { o.backoff = p }
}

// WithLogger sets the logger used for trace output.
func WithLogger(l opsapi.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// WithTracing enables or disables per-backoff trace logging.
func WithTracing(enabled bool) Option {
	return func(o *Options) { o.tracing = enabled }
}

// WithValue attaches an arbitrary typed value under key. Packages layered on
// the retry loop (such as lro) use this to carry their own settings through
// the same snapshot. Keys follow the context.Context convention: unexported
// types owned by the package that defines the setting.
func WithValue(key, value interface{}) Option {
	return func(o *Options) {
		if o.values == nil {
			o.values = make(map[interface{}]interface{})
		}

		o.values[key] = value
	}
}

// RetryPolicy returns a fresh clone of the retry policy prototype, falling
// back to the default limited-error-count policy.
func (o *Options) RetryPolicy() RetryPolicy {
	if o == nil || o.retry == nil {
		return NewLimitedErrorCountRetryPolicy(constants.DefaultRetryMaxFailures)
	}

	return o.retry.Clone()
}

// BackoffPolicy returns a fresh clone of the backoff policy prototype,
// falling back to the default exponential backoff.
func (o *Options) BackoffPolicy() BackoffPolicy {
	if o == nil || o.backoff == nil {
		return NewExponentialBackoffPolicy(
			constants.DefaultBackoffInitial,
			constants.DefaultBackoffMax,
			constants.DefaultBackoffMultiplier,
		)
	}

	return o.backoff.Clone()
}

// Logger returns the configured logger, never nil.
func (o *Options) Logger() opsapi.Logger {
	if o == nil || o.logger == nil {
		return noopLogger{}
	}

	return o.logger
}

// TracingEnabled reports whether backoff trace logging is on.
func (o *Options) TracingEnabled() bool {
	return o != nil && o.tracing
}

// Value returns the value attached under key, if any.
func (o *Options) Value(key interface{}) (interface{}, bool) {
	if o == nil || o.values == nil {
		return nil, false
	}

	v, ok := o.values[key]

	return v, ok
}

type noopLogger struct{}

func (noopLogger) Debug(string, map[string]interface{}) {}
func (noopLogger) Info(string, map[string]interface{})  {}
func (noopLogger) Warn(string, map[string]interface{})  {}
func (noopLogger) Error(string, map[string]interface{}) {}
