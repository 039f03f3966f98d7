package retry

import "context"

// Operation is the retryable unit of work driven by Start. It is invoked
// once per attempt with a fresh attempt-scoped context; implementations
// must honor that context and must not reuse state across attempts.
type Operation[Req, Resp any] func(ctx context.Context, sched Scheduler, opts *Options, req Req) *Future[Resp]

// Start executes op under the retry and backoff policies captured from opts
// and returns a future resolving exactly once: to the first successful
// result, or to a status explaining why retrying stopped.
//
// The loop runs until success, a permanent failure, a first failure of a
// non-idempotent operation, retry-budget exhaustion, or cancellation.
// Cancelling the returned future (or ctx) cancels whichever sub-operation
// is outstanding, and the loop never starts another attempt or timer after
// observing the cancellation. location identifies the call site in
// diagnostics.
func Start[Req, Resp any](
	ctx context.Context,
	sched Scheduler,
	idempotency Idempotency,
	opts *Options,
	op Operation[Req, Resp],
	req Req,
	location string,
) *Future[Resp] {
	promise, future := NewPromise[Resp]()

	loopCtx, cancel := context.WithCancel(ctx)

	l := &loop[Req, Resp]{
		ctx:         loopCtx,
		cancel:      cancel,
		sched:       sched,
		idempotency: idempotency,
		opts:        opts,
		op:          op,
		req:         req,
		location:    location,
		promise:     promise,
		retryPolicy: opts.RetryPolicy(),
		backoff:     opts.BackoffPolicy(),
	}

	// Bridge future cancellation into the loop context.
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

type loop[Req, Resp any] struct {
	ctx         context.Context
	cancel      context.CancelFunc
	sched       Scheduler
	idempotency Idempotency
	opts        *Options
	op          Operation[Req, Resp]
	req         Req
	location    string
	promise     *Promise[Resp]
	retryPolicy RetryPolicy
	backoff     BackoffPolicy
	attempts    int
}

func (l *loop[Req, Resp]) run() {
	defer l.cancel()

	if l.retryPolicy.IsExhausted() {
		l.promise.Reject(ExhaustedError(nil, l.location, true))

		return
	}

	for {
		err, done := l.attempt()
		if done {
			return
		}

		if !l.waitBackoff(err) {
			return
		}
	}
}

// attempt runs one invocation of the operation. It reports done when the
// overall future has been resolved; otherwise err is the transient failure
// to back off from.
func (l *loop[Req, Resp]) attempt() (error, bool) {
	attemptCtx, cancelAttempt := context.WithCancel(l.ctx)
	defer cancelAttempt()

	l.attempts++
	attempt := l.op(attemptCtx, l.sched, l.opts, l.req)

	select {
	case <-attempt.Done():
	case <-l.ctx.Done():
		attempt.Cancel()
		l.promise.Reject(CancelledError(l.location))

		return nil, true
	}

	value, err := attempt.Result()
	if err == nil {
		l.promise.Resolve(value)

		return nil, true
	}

	if l.retryPolicy.IsPermanentFailure(err) {
		l.promise.Reject(PermanentError(err, l.location))

		return nil, true
	}

	if l.idempotency == NonIdempotent {
		l.promise.Reject(NonIdempotentError(err, l.location))

		return nil, true
	}

	if !l.retryPolicy.OnFailure(err) {
		l.promise.Reject(ExhaustedError(err, l.location, false))

		return nil, true
	}

	return err, false
}

// waitBackoff sleeps for the backoff period. It reports false when the loop
// must stop because cancellation was observed.
func (l *loop[Req, Resp]) waitBackoff(lastErr error) bool {
	delay := l.backoff.OnCompletion()

	if l.opts.TracingEnabled() {
		l.opts.Logger().Debug("async backoff", map[string]interface{}{
			"function":   l.location,
			"attempt":    l.attempts,
			"delay":      delay.String(),
			"last_error": lastErr.Error(),
		})
	}

	timer := l.sched.After(delay)

	select {
	case <-timer.C():
	case <-l.ctx.Done():
		timer.Stop()
		l.promise.Reject(CancelledError(l.location))

		return false
	}

	// The timer may race with cancellation; once cancellation has been
	// observed no further attempt is allowed.
	if l.ctx.Err() != nil {
		l.promise.Reject(CancelledError(l.location))

		return false
	}

	return true
}
