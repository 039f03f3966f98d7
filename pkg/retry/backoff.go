package retry

import (
	"math/rand"
	"time"

	"github.com/fivetwenty-io/opsapi-client/internal/constants"
)

// BackoffPolicy computes the wait before the next attempt. Like RetryPolicy,
// a backoff policy is stateful and owned by a single loop; Clone produces an
// independent, freshly-reset copy.
type BackoffPolicy interface {
	// OnCompletion returns the wait duration after a failed attempt.
	OnCompletion() time.Duration

	// Clone returns an independent, freshly-reset copy of the policy.
	Clone() BackoffPolicy
}

// ExponentialBackoffPolicy waits a random duration between 1ns and the
// current retry envelope. The envelope starts at the initial delay and grows
// by the multiplier after every wait, capped at the maximum. The
// randomization spreads out retries from concurrent clients that failed at
// the same moment.
type ExponentialBackoffPolicy struct {
	initial    time.Duration
	maximum    time.Duration
	multiplier float64
	current    time.Duration
}

// NewExponentialBackoffPolicy creates a backoff policy with the given
// envelope bounds and growth factor. Non-positive or out-of-range arguments
// fall back to the defaults.
func NewExponentialBackoffPolicy(initial, maximum time.Duration, multiplier float64) *ExponentialBackoffPolicy {
	if initial <= 0 {
		initial = constants.DefaultBackoffInitial
	}

	if maximum <= 0 {
		maximum = constants.DefaultBackoffMax
	}

	if maximum < initial {
		maximum = initial
	}

	if multiplier < 1 {
		multiplier = constants.DefaultBackoffMultiplier
	}

	return &ExponentialBackoffPolicy{
		initial:    initial,
		maximum:    maximum,
		multiplier: multiplier,
	}
}

// OnCompletion implements BackoffPolicy.
func (p *ExponentialBackoffPolicy) OnCompletion() time.Duration {
	if p.current == 0 {
		p.current = p.initial
	}

	d := time.Duration(1 + rand.Int63n(int64(p.current))) // #nosec G404 -- jitter, not crypto

	p.current = time.Duration(float64(p.current) * p.multiplier)
	if p.current > p.maximum {
		p.current = p.maximum
	}

	return d
}

// Clone implements BackoffPolicy.
func (p *ExponentialBackoffPolicy) Clone() BackoffPolicy {
	return &ExponentialBackoffPolicy{
		initial:    p.initial,
		maximum:    p.maximum,
		multiplier: p.multiplier,
	}
}

// FixedDelayBackoffPolicy waits the same duration after every failure. It is
// mainly useful in tests and for polling intervals that should not grow.
type FixedDelayBackoffPolicy struct {
	delay time.Duration
}

// NewFixedDelayBackoffPolicy creates a backoff policy with a constant wait.
func NewFixedDelayBackoffPolicy(delay time.Duration) *FixedDelayBackoffPolicy {
	return &FixedDelayBackoffPolicy{delay: delay}
}

// OnCompletion implements BackoffPolicy.
func (p *FixedDelayBackoffPolicy) OnCompletion() time.Duration {
	return p.delay
}

// Clone implements BackoffPolicy.
func (p *FixedDelayBackoffPolicy) Clone() BackoffPolicy {
	return &FixedDelayBackoffPolicy{delay: p.delay}
}
