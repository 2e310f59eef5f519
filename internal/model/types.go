// Package model defines shared data structures.
package model

import "time"

// DayLayout is the calendar-day identifier format used in storage.
const DayLayout = "2006-01-02"

// Phase identifies the current interval.
type Phase int

const (
	// PhaseWork is the focused work interval.
	PhaseWork Phase = iota
	// PhaseBreak is the rest interval.
	PhaseBreak
)

const (
	// WorkSeconds is the length of a work interval.
	WorkSeconds = 25 * 60
	// BreakSeconds is the length of a break interval.
	BreakSeconds = 5 * 60
)

// Seconds returns the default length of the phase.
func (p Phase) Seconds() int {
	if p == PhaseBreak {
		return BreakSeconds
	}
	return WorkSeconds
}

// Next returns the phase that follows p.
func (p Phase) Next() Phase {
	if p == PhaseBreak {
		return PhaseWork
	}
	return PhaseBreak
}

func (p Phase) String() string {
	if p == PhaseBreak {
		return "break"
	}
	return "work"
}

// Trigger names what caused a phase transition.
type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerExpiry Trigger = "expiry"
)

// TimerState is the observable state of the countdown.
type TimerState struct {
	Remaining int
	Running   bool
	Phase     Phase
}

// Counters holds completed work session counts.
type Counters struct {
	CurrentCycle int
	Today        int
	AllTime      int
}

// PersistedRecord is the stored form of the counters.
type PersistedRecord struct {
	AllTime  int
	Today    int
	LastDate string
}

// Completion is a single work to break transition.
type Completion struct {
	RunID       string
	CompletedAt time.Time
	Day         string
	Trigger     Trigger
}

// DayCount is the number of completions on one calendar day.
type DayCount struct {
	Day   time.Time
	Count int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Since *time.Time
	Days  int
}

// DayString formats t as a calendar-day identifier in its own location.
func DayString(t time.Time) string {
	return t.Format(DayLayout)
}
