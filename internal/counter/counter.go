// Package counter keeps completed work session counts and persists them.
package counter

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/verte-zerg/tomato/internal/kv"
	"github.com/verte-zerg/tomato/internal/model"
)

// Storage keys.
const (
	KeyTotal    = "timerTotalSessions"
	KeyToday    = "timerTodaySessions"
	KeyLastDate = "timerLastDate"
)

// Journal records individual completions next to the counters.
type Journal interface {
	RecordCompletion(ctx context.Context, c model.Completion) error
	ClearCompletions(ctx context.Context) error
}

// Store holds the three counters and mirrors the persisted ones to kv.
// Storage failures are logged and never returned.
type Store struct {
	kv     kv.Store
	clock  clockwork.Clock
	logger *slog.Logger

	journal Journal
	runID   string

	counts model.Counters
	day    string
}

// New creates a Store. Call Load before use.
func New(store kv.Store, c clockwork.Clock) *Store {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	return &Store{
		kv:     store,
		clock:  c,
		logger: slog.Default(),
	}
}

// SetJournal attaches a completion journal.
func (s *Store) SetJournal(j Journal, runID string) {
	s.journal = j
	s.runID = runID
}

// SetLogger replaces the logger.
func (s *Store) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Counters returns the current counts.
func (s *Store) Counters() model.Counters {
	return s.counts
}

// Load restores counters from storage. Today's count is restored only when
// the stored date is today; otherwise it is zeroed and the record rewritten.
func (s *Store) Load(ctx context.Context) model.Counters {
	today := s.today()
	rec, hasToday := s.read(ctx)

	s.counts = model.Counters{AllTime: rec.AllTime}
	s.day = today
	if rec.LastDate == today && hasToday {
		s.counts.Today = rec.Today
	} else {
		s.write(ctx, KeyLastDate, today)
		s.write(ctx, KeyToday, "0")
	}
	if s.counts.Today > s.counts.AllTime {
		s.counts.AllTime = s.counts.Today
	}
	s.logger.Debug("counters loaded", "today", s.counts.Today, "all_time", s.counts.AllTime, "day", today)
	return s.counts
}

// Increment counts one completed work session and persists the result.
func (s *Store) Increment(ctx context.Context, trigger model.Trigger) model.Counters {
	now := s.clock.Now()
	today := model.DayString(now)
	if today != s.day {
		s.counts.Today = 0
		s.day = today
	}

	s.counts.CurrentCycle++
	s.counts.Today++
	s.counts.AllTime++

	s.write(ctx, KeyTotal, strconv.Itoa(s.counts.AllTime))
	s.write(ctx, KeyToday, strconv.Itoa(s.counts.Today))
	s.write(ctx, KeyLastDate, today)

	if s.journal != nil {
		c := model.Completion{
			RunID:       s.runID,
			CompletedAt: now,
			Day:         today,
			Trigger:     trigger,
		}
		if err := s.journal.RecordCompletion(ctx, c); err != nil {
			s.logger.Warn("failed to record completion", "error", err)
		}
	}
	s.logger.Info("work session completed", "trigger", string(trigger), "today", s.counts.Today, "all_time", s.counts.AllTime)
	return s.counts
}

// ResetAll zeroes every counter and removes all persisted state.
func (s *Store) ResetAll(ctx context.Context) model.Counters {
	s.counts = model.Counters{}
	s.day = s.today()
	if err := s.kv.Delete(ctx, KeyTotal, KeyToday, KeyLastDate); err != nil {
		s.logger.Warn("failed to delete counters", "error", err)
	}
	if s.journal != nil {
		if err := s.journal.ClearCompletions(ctx); err != nil {
			s.logger.Warn("failed to clear completions", "error", err)
		}
	}
	s.logger.Info("stats reset")
	return s.counts
}

// read returns the persisted record and whether a today count was stored.
func (s *Store) read(ctx context.Context) (model.PersistedRecord, bool) {
	total, _ := s.get(ctx, KeyTotal)
	today, hasToday := s.get(ctx, KeyToday)
	lastDate, _ := s.get(ctx, KeyLastDate)
	return model.PersistedRecord{
		AllTime:  parseCount(total),
		Today:    parseCount(today),
		LastDate: strings.TrimSpace(lastDate),
	}, hasToday
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read counter", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

func (s *Store) write(ctx context.Context, key, value string) {
	if err := s.kv.Set(ctx, key, value); err != nil {
		s.logger.Warn("failed to write counter", "key", key, "error", err)
	}
}

func (s *Store) today() string {
	return model.DayString(s.clock.Now())
}

// parseCount reads a stored count; anything that is not a non-negative
// integer is zero.
func parseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
