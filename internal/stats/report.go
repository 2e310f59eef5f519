// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"
	"time"

	"github.com/verte-zerg/tomato/internal/model"
)

const defaultDays = 14

// Source provides the completion journal.
type Source interface {
	ListCompletions(ctx context.Context, cfg model.StatsConfig) ([]model.Completion, error)
	DailyCounts(ctx context.Context, cfg model.StatsConfig) ([]model.DayCount, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Counters model.Counters
	// Days covers the requested window, oldest first, including empty days.
	Days []model.DayCount

	Manual int
	Expiry int

	ActiveDays int
	BestDay    model.DayCount
	Streak     int
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src Source, counters model.Counters, cfg model.StatsConfig, now time.Time) (Report, error) {
	today := startOfDay(now)
	start := windowStart(today, cfg)
	windowCfg := model.StatsConfig{Since: &start}

	completions, err := src.ListCompletions(ctx, windowCfg)
	if err != nil {
		return Report{}, err
	}
	windowCounts, err := src.DailyCounts(ctx, windowCfg)
	if err != nil {
		return Report{}, err
	}
	allCounts, err := src.DailyCounts(ctx, model.StatsConfig{})
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Counters: counters,
		Days:     fillDays(windowCounts, start, today),
	}
	for _, c := range completions {
		if c.Day > model.DayString(today) {
			continue
		}
		switch c.Trigger {
		case model.TriggerManual:
			report.Manual++
		case model.TriggerExpiry:
			report.Expiry++
		}
	}
	for _, dc := range allCounts {
		if dc.Count <= 0 {
			continue
		}
		report.ActiveDays++
		if dc.Count > report.BestDay.Count {
			report.BestDay = dc
		}
	}
	report.Streak = currentStreak(allCounts, today)
	return report, nil
}

func windowStart(today time.Time, cfg model.StatsConfig) time.Time {
	if cfg.Since != nil {
		since := startOfDay(*cfg.Since)
		if since.After(today) {
			return today
		}
		return since
	}
	days := cfg.Days
	if days <= 0 {
		days = defaultDays
	}
	return addDays(today, -(days - 1))
}

func fillDays(counts []model.DayCount, start, end time.Time) []model.DayCount {
	byDay := make(map[string]int, len(counts))
	for _, dc := range counts {
		byDay[model.DayString(dc.Day)] += dc.Count
	}
	var out []model.DayCount
	for d := start; !d.After(end); d = addDays(d, 1) {
		out = append(out, model.DayCount{Day: d, Count: byDay[model.DayString(d)]})
	}
	return out
}

// currentStreak counts consecutive days with completions ending today. A
// day without completions yet does not break a streak that ran through
// yesterday.
func currentStreak(counts []model.DayCount, today time.Time) int {
	active := make(map[string]bool, len(counts))
	for _, dc := range counts {
		if dc.Count > 0 {
			active[model.DayString(dc.Day)] = true
		}
	}
	day := today
	if !active[model.DayString(day)] {
		day = addDays(day, -1)
	}
	streak := 0
	for active[model.DayString(day)] {
		streak++
		day = addDays(day, -1)
	}
	return streak
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func addDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, t.Location())
}
