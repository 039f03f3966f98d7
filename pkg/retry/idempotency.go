package retry

// Idempotency declares whether an operation can safely be replayed.
// Non-idempotent operations are never retried by the loop: replaying one
// after a transient failure could double-apply its side effects, because the
// first attempt may have succeeded on the server even though its response
// was lost.
type Idempotency int

const (
	// Idempotent operations may be retried after transient failures.
	Idempotent Idempotency = iota

	// NonIdempotent operations fail on the first error.
	NonIdempotent
)

// String implements fmt.Stringer.
func (i Idempotency) String() string {
	if i == Idempotent {
		return "idempotent"
	}

	return "non-idempotent"
}
