// Package retry implements the asynchronous retry engine shared by every
// opsapi client: pluggable retry and backoff policies, a cancellable timer
// scheduler, a minimal future/promise pair, and the Start loop that drives a
// unit of work to a single result under those policies.
//
// The loop is a single-threaded state machine per logical call: at most one
// attempt or one backoff timer is outstanding at any time, attempts are
// strictly sequential, and the configuration snapshot captured when the loop
// starts is threaded unchanged through every attempt. Many independent loops
// may run concurrently; they share nothing but the scheduler.
//
// A typical call site wraps an RPC in an Operation and hands it to Start:
//
//	f := retry.Start(ctx, sched, retry.Idempotent, opts,
//	    func(ctx context.Context, _ retry.Scheduler, opts *retry.Options, name string) *retry.Future[*opsapi.Operation] {
//	        return retry.Go(func() (*opsapi.Operation, error) { return client.Get(ctx, name) })
//	    },
//	    "operations/abc-123", "OperationsClient.Get")
//	op, err := f.Wait(ctx)
//
// When the loop gives up, the returned error is a *status.Status annotated
// with the reason (permanent-error, non-idempotent, retry-policy-exhausted,
// or cancelled), the original message, and the call-site location.
package retry
