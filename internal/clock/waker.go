// Package clock schedules one-shot wake-ups for the countdown.
package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Wake is delivered when a scheduled wake-up fires.
type Wake struct {
	Gen uint64
	At  time.Time
}

// Wait blocks until the scheduled wake fires or is cancelled. It reports
// false when the wake was cancelled.
type Wait func() (Wake, bool)

// Waker keeps at most one pending wake-up. Every Schedule call cancels the
// previous wake and hands out a new generation number.
type Waker struct {
	clock clockwork.Clock

	mu     sync.Mutex
	gen    uint64
	timer  clockwork.Timer
	cancel chan struct{}
}

// NewWaker returns a Waker driven by c.
func NewWaker(c clockwork.Clock) *Waker {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	return &Waker{clock: c}
}

// Clock returns the underlying clock.
func (w *Waker) Clock() clockwork.Clock {
	return w.clock
}

// Schedule cancels any pending wake and arms a new one after d.
func (w *Waker) Schedule(d time.Duration) (uint64, Wait) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cancelLocked()
	w.gen++
	gen := w.gen
	timer := w.clock.NewTimer(d)
	cancel := make(chan struct{})
	w.timer = timer
	w.cancel = cancel

	return gen, func() (Wake, bool) {
		select {
		case <-cancel:
			return Wake{}, false
		case at := <-timer.Chan():
			return Wake{Gen: gen, At: at}, true
		}
	}
}

// Cancel drops the pending wake, if any.
func (w *Waker) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelLocked()
}

// Pending reports the generation of the armed wake.
func (w *Waker) Pending() (uint64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer == nil {
		return 0, false
	}
	return w.gen, true
}

func (w *Waker) cancelLocked() {
	if w.timer == nil {
		return
	}
	w.timer.Stop()
	close(w.cancel)
	w.timer = nil
	w.cancel = nil
}
