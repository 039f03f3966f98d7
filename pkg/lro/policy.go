package lro

import (
	"time"

	"github.com/fivetwenty-io/opsapi-client/internal/constants"
	"github.com/fivetwenty-io/opsapi-client/pkg/retry"
)

// PollingPolicy governs the interval between polls and the total polling
// budget for one long-running operation. Like the retry policies, a polling
// policy is cloned per operation and owned by a single loop.
type PollingPolicy interface {
	// WaitPeriod returns the wait before the next poll.
	WaitPeriod() time.Duration

	// OnFailure records a failed poll cycle and reports whether polling
	// may continue.
	OnFailure(err error) bool

	// IsExhausted reports whether the polling budget is spent.
	IsExhausted() bool

	// IsPermanentFailure reports whether err should stop polling
	// regardless of remaining budget.
	IsPermanentFailure(err error) bool

	// Clone returns an independent, freshly-reset copy of the policy.
	Clone() PollingPolicy
}

// GenericPollingPolicy composes a retry policy (the budget and failure
// classification) with a backoff policy (the poll interval) into a
// PollingPolicy. Any retry/backoff pair combine this way.
type GenericPollingPolicy struct {
	retryPolicy   retry.RetryPolicy
	backoffPolicy retry.BackoffPolicy
}

// NewGenericPollingPolicy combines rp and bp into a polling policy. The
// arguments are prototypes; the policy clones them when it is itself cloned.
func NewGenericPollingPolicy(rp retry.RetryPolicy, bp retry.BackoffPolicy) *GenericPollingPolicy {
	return &GenericPollingPolicy{retryPolicy: rp, backoffPolicy: bp}
}

// DefaultPollingPolicy polls at a fixed interval within an elapsed-time
// budget, treating every poll failure as transient. Poll failures are judged
// by the per-poll retry loop first, so a failure surfacing here has already
// exhausted its own retry budget; the polling policy decides only whether
// the operation as a whole is still worth watching.
func DefaultPollingPolicy() *GenericPollingPolicy {
	rp := retry.NewLimitedTimeRetryPolicy(constants.DefaultPollTimeout).
		WithClassifier(func(error) bool { return true })

	return NewGenericPollingPolicy(rp, retry.NewFixedDelayBackoffPolicy(constants.DefaultPollInterval))
}

// WaitPeriod implements PollingPolicy.
func (p *GenericPollingPolicy) WaitPeriod() time.Duration {
	return p.backoffPolicy.OnCompletion()
}

// OnFailure implements PollingPolicy.
func (p *GenericPollingPolicy) OnFailure(err error) bool {
	return p.retryPolicy.OnFailure(err)
}

// IsExhausted implements PollingPolicy.
func (p *GenericPollingPolicy) IsExhausted() bool {
	return p.retryPolicy.IsExhausted()
}

// IsPermanentFailure implements PollingPolicy.
func (p *GenericPollingPolicy) IsPermanentFailure(err error) bool {
	return p.retryPolicy.IsPermanentFailure(err)
}

// Clone implements PollingPolicy.
func (p *GenericPollingPolicy) Clone() PollingPolicy {
	return &GenericPollingPolicy{
		retryPolicy:   p.retryPolicy.Clone(),
		backoffPolicy: p.backoffPolicy.Clone(),
	}
}
