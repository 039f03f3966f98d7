package retry

import "time"

// Timer is a single pending wait created by a Scheduler. Stop releases the
// timer; it reports false if the timer already fired.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// Scheduler creates cancellable timers. It is the loop's only notion of
// time, which lets tests drive backoff and poll intervals deterministically.
// Implementations must be safe for concurrent use by many loops.
type Scheduler interface {
	After(d time.Duration) Timer
}

// SystemScheduler returns a Scheduler backed by the runtime timers.
func SystemScheduler() Scheduler {
	return systemScheduler{}
}

type systemScheduler struct{}

func (systemScheduler) After(d time.Duration) Timer {
	return systemTimer{t: time.NewTimer(d)}
}

type systemTimer struct {
	t *time.Timer
}

func (s systemTimer) C() <-chan time.Time {
	return s.t.C
}

func (s systemTimer) Stop() bool {
	return s.t.Stop()
}
