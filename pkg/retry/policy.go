package retry

import (
	"time"

	"github.com/fivetwenty-io/opsapi-client/pkg/status"
)

// ErrorClassifier reports whether an error is transient and therefore worth
// retrying. Errors it rejects are treated as permanent. The set of retryable
// codes is service-specific, so clients supply their own classifier where
// the default (status.IsRetryableDefault) is too narrow or too wide.
type ErrorClassifier func(error) bool

// RetryPolicy decides whether a failed operation may be attempted again.
//
// A policy instance is stateful and single-use: it is cloned fresh for each
// logical call, mutated only by the loop that owns it, and discarded when
// the call completes. Implementations need no internal synchronization.
type RetryPolicy interface {
	// OnFailure records a failure and reports whether retrying is still
	// permitted.
	OnFailure(err error) bool

	// IsExhausted reports whether the retry budget is spent.
	IsExhausted() bool

	// IsPermanentFailure reports whether err is not worth retrying
	// regardless of remaining budget.
	IsPermanentFailure(err error) bool

	// Clone returns an independent, freshly-reset copy of the policy.
	Clone() RetryPolicy
}

// LimitedErrorCountRetryPolicy retries until a fixed number of transient
// failures has been observed.
type LimitedErrorCountRetryPolicy struct {
	maximumFailures int
	failures        int
	classifier      ErrorClassifier
}

// NewLimitedErrorCountRetryPolicy creates a policy tolerating up to
// maximumFailures transient failures. A maximumFailures of zero produces a
// policy that is exhausted before the first attempt.
func NewLimitedErrorCountRetryPolicy(maximumFailures int) *LimitedErrorCountRetryPolicy {
	return &LimitedErrorCountRetryPolicy{
		maximumFailures: maximumFailures,
		classifier:      status.IsRetryableDefault,
	}
}

// WithClassifier replaces the transient-error classifier and returns the
// policy for chaining.
func (p *LimitedErrorCountRetryPolicy) WithClassifier(fn ErrorClassifier) *LimitedErrorCountRetryPolicy {
	p.classifier = fn

	return p
}

// OnFailure implements RetryPolicy.
func (p *LimitedErrorCountRetryPolicy) OnFailure(err error) bool {
	if p.IsPermanentFailure(err) {
		return false
	}

	p.failures++

	return p.failures < p.maximumFailures
}

// IsExhausted implements RetryPolicy.
func (p *LimitedErrorCountRetryPolicy) IsExhausted() bool {
	return p.failures >= p.maximumFailures
}

// IsPermanentFailure implements RetryPolicy.
func (p *LimitedErrorCountRetryPolicy) IsPermanentFailure(err error) bool {
	return !p.classifier(err)
}

// Clone implements RetryPolicy.
func (p *LimitedErrorCountRetryPolicy) Clone() RetryPolicy {
	return &LimitedErrorCountRetryPolicy{
		maximumFailures: p.maximumFailures,
		classifier:      p.classifier,
	}
}

// LimitedTimeRetryPolicy retries until a total elapsed-time budget is spent.
// The budget starts when the policy is cloned for a call, not when it is
// constructed.
type LimitedTimeRetryPolicy struct {
	maximumDuration time.Duration
	deadline        time.Time
	classifier      ErrorClassifier
	now             func() time.Time
}

// NewLimitedTimeRetryPolicy creates a policy with the given elapsed-time
// budget.
func NewLimitedTimeRetryPolicy(maximumDuration time.Duration) *LimitedTimeRetryPolicy {
	p := &LimitedTimeRetryPolicy{
		maximumDuration: maximumDuration,
		classifier:      status.IsRetryableDefault,
		now:             time.Now,
	}
	p.deadline = p.now().Add(maximumDuration)

	return p
}

// WithClassifier replaces the transient-error classifier and returns the
// policy for chaining.
func (p *LimitedTimeRetryPolicy) WithClassifier(fn ErrorClassifier) *LimitedTimeRetryPolicy {
	p.classifier = fn

	return p
}

// WithClock replaces the time source, for tests.
func (p *LimitedTimeRetryPolicy) WithClock(now func() time.Time) *LimitedTimeRetryPolicy {
	p.now = now
	p.deadline = now().Add(p.maximumDuration)

	return p
}

// OnFailure implements RetryPolicy.
func (p *LimitedTimeRetryPolicy) OnFailure(err error) bool {
	if p.IsPermanentFailure(err) {
		return false
	}

	return !p.IsExhausted()
}

// IsExhausted implements RetryPolicy.
func (p *LimitedTimeRetryPolicy) IsExhausted() bool {
	return !p.now().Before(p.deadline)
}

// IsPermanentFailure implements RetryPolicy.
func (p *LimitedTimeRetryPolicy) IsPermanentFailure(err error) bool {
	return !p.classifier(err)
}

// Clone implements RetryPolicy.
func (p *LimitedTimeRetryPolicy) Clone() RetryPolicy {
	clone := &LimitedTimeRetryPolicy{
		maximumDuration: p.maximumDuration,
		classifier:      p.classifier,
		now:             p.now,
	}
	clone.deadline = clone.now().Add(clone.maximumDuration)

	return clone
}
