package counter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tomato/internal/kv"
	"github.com/verte-zerg/tomato/internal/model"
)

var day1 = time.Date(2024, 5, 10, 14, 30, 0, 0, time.Local)

type fakeJournal struct {
	rows    []model.Completion
	cleared int
}

func (j *fakeJournal) RecordCompletion(_ context.Context, c model.Completion) error {
	j.rows = append(j.rows, c)
	return nil
}

func (j *fakeJournal) ClearCompletions(context.Context) error {
	j.rows = nil
	j.cleared++
	return nil
}

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage unavailable")
}

func (brokenKV) Set(context.Context, string, string) error {
	return errors.New("storage unavailable")
}

func (brokenKV) Delete(context.Context, ...string) error {
	return errors.New("storage unavailable")
}

func seed(t *testing.T, m *kv.Memory, values map[string]string) {
	t.Helper()
	for k, v := range values {
		require.NoError(t, m.Set(context.Background(), k, v))
	}
}

func value(t *testing.T, m *kv.Memory, key string) (string, bool) {
	t.Helper()
	v, ok, err := m.Get(context.Background(), key)
	require.NoError(t, err)
	return v, ok
}

func TestLoadEmptyStorage(t *testing.T) {
	m := kv.NewMemory()
	s := New(m, clockwork.NewFakeClockAt(day1))

	got := s.Load(context.Background())
	require.Equal(t, model.Counters{}, got)

	date, ok := value(t, m, KeyLastDate)
	require.True(t, ok)
	require.Equal(t, "2024-05-10", date)
	today, _ := value(t, m, KeyToday)
	require.Equal(t, "0", today)
}

func TestLoadSameDayRestoresToday(t *testing.T) {
	m := kv.NewMemory()
	seed(t, m, map[string]string{KeyTotal: "12", KeyToday: "3", KeyLastDate: "2024-05-10"})
	s := New(m, clockwork.NewFakeClockAt(day1))

	got := s.Load(context.Background())
	require.Equal(t, model.Counters{CurrentCycle: 0, Today: 3, AllTime: 12}, got)
}

func TestLoadOtherDayResetsToday(t *testing.T) {
	m := kv.NewMemory()
	seed(t, m, map[string]string{KeyTotal: "12", KeyToday: "3", KeyLastDate: "2024-05-09"})
	s := New(m, clockwork.NewFakeClockAt(day1))

	got := s.Load(context.Background())
	require.Equal(t, model.Counters{Today: 0, AllTime: 12}, got)

	today, _ := value(t, m, KeyToday)
	date, _ := value(t, m, KeyLastDate)
	assert.Equal(t, "0", today)
	assert.Equal(t, "2024-05-10", date)
	total, _ := value(t, m, KeyTotal)
	assert.Equal(t, "12", total)
}

func TestLoadMalformedValuesDefaultToZero(t *testing.T) {
	tests := []struct {
		name  string
		total string
		today string
		want  model.Counters
	}{
		{"non numeric", "abc", "x", model.Counters{}},
		{"negative", "-4", "-1", model.Counters{}},
		{"blank", "", "", model.Counters{}},
		{"padded", " 7 ", "2", model.Counters{Today: 2, AllTime: 7}},
		{"today above total", "1", "5", model.Counters{Today: 5, AllTime: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := kv.NewMemory()
			seed(t, m, map[string]string{KeyTotal: tt.total, KeyToday: tt.today, KeyLastDate: "2024-05-10"})
			s := New(m, clockwork.NewFakeClockAt(day1))
			require.Equal(t, tt.want, s.Load(context.Background()))
		})
	}
}

func TestIncrementPersists(t *testing.T) {
	m := kv.NewMemory()
	seed(t, m, map[string]string{KeyTotal: "4", KeyToday: "1", KeyLastDate: "2024-05-10"})
	s := New(m, clockwork.NewFakeClockAt(day1))
	ctx := context.Background()
	s.Load(ctx)

	got := s.Increment(ctx, model.TriggerManual)
	require.Equal(t, model.Counters{CurrentCycle: 1, Today: 2, AllTime: 5}, got)
	require.Equal(t, got, s.Counters())

	total, _ := value(t, m, KeyTotal)
	today, _ := value(t, m, KeyToday)
	date, _ := value(t, m, KeyLastDate)
	assert.Equal(t, "5", total)
	assert.Equal(t, "2", today)
	assert.Equal(t, "2024-05-10", date)
}

func TestIncrementKeepsTodayWithinAllTime(t *testing.T) {
	s := New(kv.NewMemory(), clockwork.NewFakeClockAt(day1))
	ctx := context.Background()
	s.Load(ctx)
	for i := 0; i < 10; i++ {
		c := s.Increment(ctx, model.TriggerExpiry)
		require.LessOrEqual(t, c.Today, c.AllTime)
	}
}

func TestIncrementRollsOverAtMidnight(t *testing.T) {
	m := kv.NewMemory()
	fc := clockwork.NewFakeClockAt(time.Date(2024, 5, 10, 23, 50, 0, 0, time.Local))
	s := New(m, fc)
	ctx := context.Background()
	s.Load(ctx)
	s.Increment(ctx, model.TriggerManual)
	s.Increment(ctx, model.TriggerManual)

	fc.Advance(20 * time.Minute)
	got := s.Increment(ctx, model.TriggerExpiry)
	require.Equal(t, model.Counters{CurrentCycle: 3, Today: 1, AllTime: 3}, got)

	date, _ := value(t, m, KeyLastDate)
	require.Equal(t, "2024-05-11", date)
}

func TestIncrementRecordsJournal(t *testing.T) {
	j := &fakeJournal{}
	s := New(kv.NewMemory(), clockwork.NewFakeClockAt(day1))
	s.SetJournal(j, "run-1")
	ctx := context.Background()
	s.Load(ctx)

	s.Increment(ctx, model.TriggerExpiry)
	require.Len(t, j.rows, 1)
	require.Equal(t, model.Completion{
		RunID:       "run-1",
		CompletedAt: day1,
		Day:         "2024-05-10",
		Trigger:     model.TriggerExpiry,
	}, j.rows[0])
}

func TestResetAllRemovesEverything(t *testing.T) {
	m := kv.NewMemory()
	j := &fakeJournal{}
	s := New(m, clockwork.NewFakeClockAt(day1))
	s.SetJournal(j, "run-1")
	ctx := context.Background()
	s.Load(ctx)
	s.Increment(ctx, model.TriggerManual)
	s.Increment(ctx, model.TriggerManual)

	got := s.ResetAll(ctx)
	require.Equal(t, model.Counters{}, got)
	require.Equal(t, 0, m.Len())
	require.Empty(t, j.rows)
	require.Equal(t, 1, j.cleared)
}

func TestBrokenStorageDegradesSilently(t *testing.T) {
	s := New(brokenKV{}, clockwork.NewFakeClockAt(day1))
	ctx := context.Background()

	require.Equal(t, model.Counters{}, s.Load(ctx))
	require.Equal(t, model.Counters{CurrentCycle: 1, Today: 1, AllTime: 1}, s.Increment(ctx, model.TriggerManual))
	require.Equal(t, model.Counters{}, s.ResetAll(ctx))
}
