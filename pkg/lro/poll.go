package lro

import (
	"context"
	"time"

	"github.com/fivetwenty-io/opsapi-client/pkg/opsapi"
	"github.com/fivetwenty-io/opsapi-client/pkg/retry"
)

// PollFunc issues one GetOperation RPC.
type PollFunc func(ctx context.Context, sched retry.Scheduler, opts *retry.Options, req *opsapi.GetOperationRequest) *retry.Future[*opsapi.Operation]

// CancelFunc issues one CancelOperation RPC.
type CancelFunc func(ctx context.Context, sched retry.Scheduler, opts *retry.Options, req *opsapi.CancelOperationRequest) *retry.Future[struct{}]

// serverCancelTimeout bounds the best-effort cancel RPC issued when a
// polling loop is abandoned.
const serverCancelTimeout = 10 * time.Second

// Start drives a long-running operation to completion. started is the
// future of the initiating call; once it yields an operation, the loop polls
// via poll (each poll wrapped in its own retry loop) until the operation
// reports done, the polling policy gives up, or the returned future is
// cancelled.
//
// The future resolves to the terminal operation even when the operation
// itself failed server-side: an embedded failure is the operation's result,
// not a polling error, and callers inspect it with Operation.Err. Statuses
// produced when polling gives up carry the same diagnostic metadata as the
// retry loop's.
//
// Cancelling the future cancels whichever sub-operation is in flight and,
// when WithServerSideCancel is set, additionally fires one best-effort
// cancel RPC for the operation.
func Start(
	ctx context.Context,
	sched retry.Scheduler,
	opts *retry.Options,
	started *retry.Future[*opsapi.Operation],
	poll PollFunc,
	cancelOp CancelFunc,
	location string,
) *retry.Future[*opsapi.Operation] {
	promise, future := retry.NewPromise[*opsapi.Operation]()

	loopCtx, cancel := context.WithCancel(ctx)

	l := &pollLoop{
		ctx:      loopCtx,
		cancel:   cancel,
		sched:    sched,
		opts:     opts,
		started:  started,
		poll:     poll,
		cancelOp: cancelOp,
		location: location,
		promise:  promise,
		policy:   pollingPolicy(opts),
	}

	go func() {
		select {
		case <-promise.Cancelled():
			cancel()
		case <-loopCtx.Done():
		}
	}()

	go l.run()

	return future
}

type pollLoop struct {
	ctx      context.Context
	cancel   context.CancelFunc
	sched    retry.Scheduler
	opts     *retry.Options
	started  *retry.Future[*opsapi.Operation]
	poll     PollFunc
	cancelOp CancelFunc
	location string
	promise  *retry.Promise[*opsapi.Operation]
	policy   PollingPolicy

	opName string
	polls  int
}

func (l *pollLoop) run() {
	defer l.cancel()

	op, ok := l.awaitStart()
	if !ok {
		return
	}

	l.opName = op.Name

	for {
		if op.Done {
			l.promise.Resolve(op)

			return
		}

		if l.policy.IsExhausted() {
			l.promise.Reject(retry.ExhaustedError(nil, l.location, l.polls == 0))

			return
		}

		if !l.waitPeriod() {
			return
		}

		next, resolved := l.pollOnce()
		if resolved {
			return
		}

		if next != nil {
			op = next
		}
	}
}

// awaitStart waits for the initiating call. Its failure is forwarded
// verbatim: the loop never got an operation to poll.
func (l *pollLoop) awaitStart() (*opsapi.Operation, bool) {
	select {
	case <-l.started.Done():
	case <-l.ctx.Done():
		l.started.Cancel()
		l.abandon()

		return nil, false
	}

	op, err := l.started.Result()
	if err != nil {
		l.promise.Reject(err)

		return nil, false
	}

	return op, true
}

// waitPeriod sleeps until the next poll is due. It reports false when the
// loop must stop because cancellation was observed.
func (l *pollLoop) waitPeriod() bool {
	wait := l.policy.WaitPeriod()

	if l.opts.TracingEnabled() {
		l.opts.Logger().Debug("async poll backoff", map[string]interface{}{
			"function":  l.location,
			"operation": l.opName,
			"polls":     l.polls,
			"delay":     wait.String(),
		})
	}

	timer := l.sched.After(wait)

	select {
	case <-timer.C():
	case <-l.ctx.Done():
		timer.Stop()
		l.abandon()

		return false
	}

	if l.ctx.Err() != nil {
		l.abandon()

		return false
	}

	return true
}

// pollOnce runs one poll cycle through the retry engine. resolved means the
// overall future has been completed and the loop must stop; a nil operation
// with resolved=false means the cycle failed transiently and the previous
// state still stands.
func (l *pollLoop) pollOnce() (*opsapi.Operation, bool) {
	l.polls++

	attempt := retry.Start(
		l.ctx,
		l.sched,
		retry.Idempotent,
		l.opts,
		retry.Operation[*opsapi.GetOperationRequest, *opsapi.Operation](l.poll),
		&opsapi.GetOperationRequest{Name: l.opName},
		l.location,
	)

	select {
	case <-attempt.Done():
	case <-l.ctx.Done():
		attempt.Cancel()
		l.abandon()

		return nil, true
	}

	op, err := attempt.Result()
	if err == nil {
		return op, false
	}

	if l.policy.IsPermanentFailure(err) {
		l.promise.Reject(retry.PermanentError(err, l.location))

		return nil, true
	}

	if !l.policy.OnFailure(err) {
		l.promise.Reject(retry.ExhaustedError(err, l.location, false))

		return nil, true
	}

	// The poll cycle failed but the operation is still worth watching;
	// go back to waiting.
	return nil, false
}

// abandon resolves the future as cancelled and, if configured, fires a
// best-effort server-side cancel for the operation being polled.
func (l *pollLoop) abandon() {
	if serverSideCancel(l.opts) && l.opName != "" && l.cancelOp != nil {
		name := l.opName

		go func() {
			cancelCtx, cancel := context.WithTimeout(context.Background(), serverCancelTimeout)
			defer cancel()

			f := l.cancelOp(cancelCtx, l.sched, l.opts, &opsapi.CancelOperationRequest{Name: name})

			_, err := f.Wait(cancelCtx)
			if err != nil {
				l.opts.Logger().Debug("server-side cancel failed", map[string]interface{}{
					"operation": name,
					"error":     err.Error(),
				})
			}
		}()
	}

	l.promise.Reject(retry.CancelledError(l.location))
}
