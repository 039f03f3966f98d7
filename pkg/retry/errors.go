package retry

import (
	"github.com/fivetwenty-io/opsapi-client/pkg/status"
	"google.golang.org/grpc/codes"
)

// Metadata keys attached to statuses produced when a loop gives up. These
// keys are part of the SDK's compatibility surface; downstream consumers
// match on them to tell apart the ways a call can fail.
const (
	// ReasonKey holds why retrying stopped: one of the Reason* values.
	ReasonKey = "gcloud-cpp.retry.reason"

	// OriginalMessageKey holds the message of the last underlying error.
	OriginalMessageKey = "gcloud-cpp.retry.original-message"

	// FunctionKey holds the call-site location string.
	FunctionKey = "gcloud-cpp.retry.function"

	// OnEntryKey is "true" when the retry budget was already spent before
	// the first attempt, "false" otherwise.
	OnEntryKey = "gcloud-cpp.retry.on-entry"
)

// Reason values stored under ReasonKey.
const (
	ReasonPermanentError  = "permanent-error"
	ReasonNonIdempotent   = "non-idempotent"
	ReasonPolicyExhausted = "retry-policy-exhausted"
	ReasonCancelled       = "cancelled"
)

// PermanentError describes a failure the retry policy classified as not
// retryable.
func PermanentError(lastErr error, location string) *status.Status {
	return annotate(status.FromError(lastErr), ReasonPermanentError, lastErr, location, false)
}

// NonIdempotentError describes a (possibly transient) failure of an
// operation that must not be replayed.
func NonIdempotentError(lastErr error, location string) *status.Status {
	return annotate(status.FromError(lastErr), ReasonNonIdempotent, lastErr, location, false)
}

// ExhaustedError describes a spent retry budget. When the budget was spent
// before the first attempt, lastErr is nil and the status carries
// DeadlineExceeded with on-entry=true.
func ExhaustedError(lastErr error, location string, onEntry bool) *status.Status {
	st := status.FromError(lastErr)
	if st == nil {
		st = status.New(codes.DeadlineExceeded, "retry policy exhausted before first attempt")
	}

	return annotate(st, ReasonPolicyExhausted, lastErr, location, onEntry)
}

// CancelledError describes a loop terminated by caller cancellation.
func CancelledError(location string) *status.Status {
	st := status.New(codes.Canceled, "operation cancelled")

	return annotate(st, ReasonCancelled, nil, location, false)
}

func annotate(st *status.Status, reason string, lastErr error, location string, onEntry bool) *status.Status {
	st = st.
		WithMetadata(ReasonKey, reason).
		WithMetadata(FunctionKey, location)

	if lastErr != nil {
		st = st.WithMetadata(OriginalMessageKey, status.FromError(lastErr).Message())
	}

	onEntryValue := "false"
	if onEntry {
		onEntryValue = "true"
	}

	return st.WithMetadata(OnEntryKey, onEntryValue)
}
