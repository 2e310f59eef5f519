package clock

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestScheduleFiresAfterDuration(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	fc := clockwork.NewFakeClockAt(start)
	w := NewWaker(fc)

	gen, wait := w.Schedule(time.Second)
	pending, ok := w.Pending()
	require.True(t, ok)
	require.Equal(t, gen, pending)

	fc.Advance(time.Second)
	wake, ok := wait()
	require.True(t, ok)
	require.Equal(t, gen, wake.Gen)
	require.Equal(t, start.Add(time.Second), wake.At)
}

func TestCancelReleasesWait(t *testing.T) {
	fc := clockwork.NewFakeClock()
	w := NewWaker(fc)

	_, wait := w.Schedule(time.Second)
	w.Cancel()

	_, ok := wait()
	require.False(t, ok)
	_, ok = w.Pending()
	require.False(t, ok)
}

func TestScheduleReplacesPendingWake(t *testing.T) {
	fc := clockwork.NewFakeClock()
	w := NewWaker(fc)

	first, firstWait := w.Schedule(time.Second)
	second, secondWait := w.Schedule(time.Second)
	require.Greater(t, second, first)

	_, ok := firstWait()
	require.False(t, ok, "replaced wake must not fire")

	fc.Advance(time.Second)
	wake, ok := secondWait()
	require.True(t, ok)
	require.Equal(t, second, wake.Gen)
}

func TestCancelWithoutPendingIsNoop(t *testing.T) {
	w := NewWaker(clockwork.NewFakeClock())
	w.Cancel()
	_, ok := w.Pending()
	require.False(t, ok)
}
