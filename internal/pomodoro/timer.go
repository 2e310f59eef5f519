// Package pomodoro implements the work/break session state machine.
package pomodoro

import (
	"context"
	"time"

	"github.com/verte-zerg/tomato/internal/clock"
	"github.com/verte-zerg/tomato/internal/counter"
	"github.com/verte-zerg/tomato/internal/model"
)

// TickInterval is the time between countdown decrements.
const TickInterval = time.Second

// Transition describes a phase change.
type Transition struct {
	From    model.Phase
	To      model.Phase
	Trigger model.Trigger
	// Counted is true when the transition finished a work session.
	Counted bool
}

// Timer is the session state machine. It is not safe for concurrent use;
// callers feed it one event at a time.
type Timer struct {
	counters *counter.Store
	waker    *clock.Waker

	state   model.TimerState
	armed   uint64
	pending bool
}

// New returns a paused Timer in the work phase.
func New(counters *counter.Store, waker *clock.Waker) *Timer {
	return &Timer{
		counters: counters,
		waker:    waker,
		state: model.TimerState{
			Phase:     model.PhaseWork,
			Remaining: model.PhaseWork.Seconds(),
		},
	}
}

// State returns a snapshot of the countdown.
func (t *Timer) State() model.TimerState {
	return t.state
}

// Counters returns a snapshot of the session counters.
func (t *Timer) Counters() model.Counters {
	return t.counters.Counters()
}

// Start resumes the countdown. It returns nil when already running.
func (t *Timer) Start() clock.Wait {
	if t.state.Running {
		return nil
	}
	t.state.Running = true
	return t.rearm()
}

// Pause stops the countdown without touching the remaining time.
func (t *Timer) Pause() {
	t.state.Running = false
	t.rearm()
}

// Toggle starts a paused timer or pauses a running one.
func (t *Timer) Toggle() clock.Wait {
	if t.state.Running {
		t.Pause()
		return nil
	}
	return t.Start()
}

// Reset stops the countdown and restores the current phase's length.
func (t *Timer) Reset() {
	t.state.Running = false
	t.state.Remaining = t.state.Phase.Seconds()
	t.rearm()
}

// SwitchPhase moves to the other phase and leaves the timer paused.
func (t *Timer) SwitchPhase() Transition {
	tr := t.transition(model.TriggerManual)
	t.rearm()
	return tr
}

// Tick applies a fired wake. Wakes that were cancelled or replaced are
// ignored. The returned Wait is the next wake, or nil when the countdown
// stopped.
func (t *Timer) Tick(w clock.Wake) (*Transition, clock.Wait) {
	if !t.pending || w.Gen != t.armed {
		return nil, nil
	}
	t.pending = false
	if !t.state.Running || t.state.Remaining <= 0 {
		return nil, nil
	}
	t.state.Remaining--
	if t.state.Remaining > 0 {
		return nil, t.rearm()
	}
	tr := t.transition(model.TriggerExpiry)
	t.rearm()
	return &tr, nil
}

// ResetStats clears every counter and the persisted record.
func (t *Timer) ResetStats() model.Counters {
	return t.counters.ResetAll(context.Background())
}

// Stop cancels any pending wake.
func (t *Timer) Stop() {
	t.waker.Cancel()
	t.pending = false
}

// transition flips the phase, pauses and counts finished work sessions.
func (t *Timer) transition(trigger model.Trigger) Transition {
	from := t.state.Phase
	to := from.Next()
	t.state = model.TimerState{
		Phase:     to,
		Remaining: to.Seconds(),
		Running:   false,
	}
	tr := Transition{From: from, To: to, Trigger: trigger}
	if to == model.PhaseBreak {
		t.counters.Increment(context.Background(), trigger)
		tr.Counted = true
	}
	return tr
}

// rearm keeps exactly one wake pending while the countdown runs.
func (t *Timer) rearm() clock.Wait {
	if !t.state.Running || t.state.Remaining <= 0 {
		t.waker.Cancel()
		t.pending = false
		return nil
	}
	gen, wait := t.waker.Schedule(TickInterval)
	t.armed = gen
	t.pending = true
	return wait
}
