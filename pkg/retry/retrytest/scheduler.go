// Package retrytest provides deterministic test doubles for the retry
// engine, most importantly a manually-driven scheduler so tests control
// exactly when backoff and poll timers fire.
package retrytest

import (
	"sync"
	"testing"
	"time"

	"github.com/fivetwenty-io/opsapi-client/pkg/retry"
)

// ManualScheduler implements retry.Scheduler. Timers never fire on their
// own; tests observe them with NextTimer and fire them explicitly.
type ManualScheduler struct {
	timers chan *ManualTimer

	mu      sync.Mutex
	created int
}

// NewManualScheduler creates a manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{timers: make(chan *ManualTimer, 64)}
}

// After implements retry.Scheduler.
func (s *ManualScheduler) After(d time.Duration) retry.Timer {
	t := &ManualTimer{
		d: d,
		c: make(chan time.Time, 1),
	}

	s.mu.Lock()
	s.created++
	s.mu.Unlock()

	s.timers <- t

	return t
}

// NextTimer waits for the loop under test to create its next timer. It
// fails the test if none shows up within the deadline.
func (s *ManualScheduler) NextTimer(t *testing.T) *ManualTimer {
	t.Helper()

	select {
	case timer := <-s.timers:
		return timer
	case <-time.After(5 * time.Second):
		t.Fatal("no timer was scheduled")

		return nil
	}
}

// TimersCreated returns how many timers have been requested so far.
func (s *ManualScheduler) TimersCreated() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.created
}

// ManualTimer is a timer controlled by the test.
type ManualTimer struct {
	d time.Duration
	c chan time.Time

	mu      sync.Mutex
	fired   bool
	stopped bool
}

// C implements retry.Timer.
func (t *ManualTimer) C() <-chan time.Time {
	return t.c
}

// Stop implements retry.Timer.
func (t *ManualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fired {
		return false
	}

	t.stopped = true

	return true
}

// Fire delivers the timer tick. Firing a stopped or already-fired timer
// does nothing.
func (t *ManualTimer) Fire() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fired || t.stopped {
		return
	}

	t.fired = true
	t.c <- time.Now()
}

// Duration returns the wait the timer was created with.
func (t *ManualTimer) Duration() time.Duration {
	return t.d
}

// Stopped reports whether the loop released the timer.
func (t *ManualTimer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stopped
}
