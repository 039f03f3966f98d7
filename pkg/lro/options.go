package lro

import "github.com/fivetwenty-io/opsapi-client/pkg/retry"

type pollingPolicyKey struct{}

type serverSideCancelKey struct{}

// WithPollingPolicy attaches a polling policy prototype to a retry.Options
// snapshot. Each polling loop clones its own copy.
func WithPollingPolicy(p PollingPolicy) retry.Option {
	return retry.WithValue(pollingPolicyKey{}, p)
}

// WithServerSideCancel controls whether cancelling a polling loop also
// issues a cancel RPC against the server-side operation. The default is to
// only abandon the operation client-side.
func WithServerSideCancel(enabled bool) retry.Option {
	return retry.WithValue(serverSideCancelKey{}, enabled)
}

// pollingPolicy returns a fresh clone of the configured polling policy,
// falling back to the default.
func pollingPolicy(opts *retry.Options) PollingPolicy {
	if v, ok := opts.Value(pollingPolicyKey{}); ok {
		if p, ok := v.(PollingPolicy); ok {
			return p.Clone()
		}
	}

	return DefaultPollingPolicy().Clone()
}

// serverSideCancel reports whether the snapshot asks for server-side
// cancellation.
func serverSideCancel(opts *retry.Options) bool {
	if v, ok := opts.Value(serverSideCancelKey{}); ok {
		if enabled, ok := v.(bool); ok {
			return enabled
		}
	}

	return false
}
