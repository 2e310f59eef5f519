package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/tomato/internal/model"
	"github.com/verte-zerg/tomato/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tomato.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	now := time.Date(2024, 5, 10, 18, 0, 0, 0, time.Local)
	record := func(daysAgo int, trigger model.Trigger) {
		at := time.Date(2024, 5, 10-daysAgo, 9, 0, 0, 0, time.Local)
		c := model.Completion{RunID: "run", CompletedAt: at, Day: model.DayString(at), Trigger: trigger}
		if err := st.RecordCompletion(ctx, c); err != nil {
			t.Fatalf("record completion: %v", err)
		}
	}
	// Older activity outside the window, then a three day streak.
	for i := 0; i < 5; i++ {
		record(20, model.TriggerExpiry)
	}
	record(2, model.TriggerExpiry)
	record(1, model.TriggerManual)
	record(1, model.TriggerExpiry)
	record(0, model.TriggerExpiry)

	counters := model.Counters{Today: 1, AllTime: 9}
	report, err := BuildReport(ctx, st, counters, model.StatsConfig{Days: 7}, now)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.Counters != counters {
		t.Fatalf("unexpected counters: %+v", report.Counters)
	}
	if len(report.Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(report.Days))
	}
	if model.DayString(report.Days[0].Day) != "2024-05-04" || model.DayString(report.Days[6].Day) != "2024-05-10" {
		t.Fatalf("unexpected window: %s..%s", model.DayString(report.Days[0].Day), model.DayString(report.Days[6].Day))
	}
	if report.Days[5].Count != 2 || report.Days[3].Count != 0 {
		t.Fatalf("unexpected day counts: %+v", report.Days)
	}
	if report.Manual != 1 || report.Expiry != 3 {
		t.Fatalf("expected 1 manual and 3 expiry, got %d/%d", report.Manual, report.Expiry)
	}
	if report.ActiveDays != 4 {
		t.Fatalf("expected 4 active days, got %d", report.ActiveDays)
	}
	if report.BestDay.Count != 5 || model.DayString(report.BestDay.Day) != "2024-04-20" {
		t.Fatalf("unexpected best day: %+v", report.BestDay)
	}
	if report.Streak != 3 {
		t.Fatalf("expected streak 3, got %d", report.Streak)
	}
}

func TestBuildReportSince(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "tomato.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.Local)
	since := time.Date(2024, 5, 8, 0, 0, 0, 0, time.Local)
	report, err := BuildReport(context.Background(), st, model.Counters{}, model.StatsConfig{Since: &since, Days: 30}, now)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(report.Days))
	}
	if report.Streak != 0 || report.ActiveDays != 0 {
		t.Fatalf("expected empty history, got %+v", report)
	}
}

func TestCurrentStreakSurvivesEmptyToday(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)
	counts := []model.DayCount{
		{Day: addDays(today, -2), Count: 1},
		{Day: addDays(today, -1), Count: 3},
	}
	if got := currentStreak(counts, today); got != 2 {
		t.Fatalf("expected streak 2, got %d", got)
	}
	counts = []model.DayCount{{Day: addDays(today, -3), Count: 1}}
	if got := currentStreak(counts, today); got != 0 {
		t.Fatalf("expected broken streak, got %d", got)
	}
}
