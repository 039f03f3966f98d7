package retry

import (
	"context"
	"sync"
)

// Future is the read side of a one-shot asynchronous result. It resolves
// exactly once, to either a value or an error. Cancel requests cooperative
// cancellation from the producer; it does not resolve the future by itself.
type Future[T any] struct {
	done      chan struct{}
	cancelled chan struct{}

	resolveOnce sync.Once
	cancelOnce  sync.Once

	value T
	err   error
}

// Promise is the write side of a Future.
type Promise[T any] struct {
	f *Future[T]
}

// NewPromise creates a connected promise/future pair.
func NewPromise[T any]() (*Promise[T], *Future[T]) {
	f := &Future[T]{
		done:      make(chan struct{}),
		cancelled: make(chan struct{}),
	}

	return &Promise[T]{f: f}, f
}

// Resolve completes the future with value. Only the first Resolve or Reject
// takes effect.
func (p *Promise[T]) Resolve(value T) {
	p.f.resolveOnce.Do(func() {
		p.f.value = value
		close(p.f.done)
	})
}

// Reject completes the future with err.
func (p *Promise[T]) Reject(err error) {
	p.f.resolveOnce.Do(func() {
		p.f.err = err
		close(p.f.done)
	})
}

// Cancelled returns a channel closed once the consumer has requested
// cancellation. Producers select on it at their suspension points.
func (p *Promise[T]) Cancelled() <-chan struct{} {
	return p.f.cancelled
}

// Done returns a channel closed once the future has resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Cancel requests cancellation. It is safe to call at any time, including
// after the future has resolved, in which case it has no effect on the
// result.
func (f *Future[T]) Cancel() {
	f.cancelOnce.Do(func() {
		close(f.cancelled)
	})
}

// Result returns the resolved value and error. It must only be called after
// Done is closed; calling it earlier is a programming error and the result
// is unspecified.
func (f *Future[T]) Result() (T, error) {
	return f.value, f.err
}

// Wait blocks until the future resolves or ctx is done. A ctx expiry cancels
// the future and returns ctx.Err().
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		f.Cancel()

		var zero T

		return zero, ctx.Err()
	}
}

// Go runs fn on a new goroutine and resolves the returned future with its
// result. It adapts synchronous work to the future-based call shape the
// retry loop expects; cancellation is delivered through whatever context fn
// closed over.
func Go[T any](fn func() (T, error)) *Future[T] {
	p, f := NewPromise[T]()

	go func() {
		v, err := fn()
		if err != nil {
			p.Reject(err)

			return
		}

		p.Resolve(v)
	}()

	return f
}

// Resolved returns a future that is already resolved with value.
func Resolved[T any](value T) *Future[T] {
	p, f := NewPromise[T]()
	p.Resolve(value)

	return f
}

// Rejected returns a future that is already resolved with err.
func Rejected[T any](err error) *Future[T] {
	p, f := NewPromise[T]()
	p.Reject(err)

	return f
}
