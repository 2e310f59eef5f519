// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/tomato/internal/model"
)

const (
	sparkChars = " .:-=+*#%@"
	barChar    = "#"
	dayFormat  = "Mon 2006-01-02"
)

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the counters and journal totals.
func RenderSummary(w io.Writer, r Report) error {
	best := "-"
	if r.BestDay.Count > 0 {
		best = fmt.Sprintf("%d (%s)", r.BestDay.Count, r.BestDay.Day.Format(model.DayLayout))
	}
	rows := [][]string{
		{"Today", strconv.Itoa(r.Counters.Today)},
		{"All time", strconv.Itoa(r.Counters.AllTime)},
		{"Active days", strconv.Itoa(r.ActiveDays)},
		{"Best day", best},
		{"Streak", pluralDays(r.Streak)},
		{"Finished by timer", strconv.Itoa(r.Expiry)},
		{"Switched early", strconv.Itoa(r.Manual)},
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	for _, line := range formatTable(nil, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderDaily prints one row per day with a bar scaled to totalWidth.
func RenderDaily(w io.Writer, r Report, totalWidth int) error {
	if len(r.Days) == 0 {
		_, err := fmt.Fprintln(w, "No days in range.")
		return err
	}
	maxCount := 0
	values := make([]float64, len(r.Days))
	for i, dc := range r.Days {
		values[i] = float64(dc.Count)
		if dc.Count > maxCount {
			maxCount = dc.Count
		}
	}

	labelWidth := displayWidth(dayFormat) + 1 + len(strconv.Itoa(maxCount)) + 1
	barWidth := totalWidth - labelWidth
	if barWidth < 1 {
		barWidth = 1
	}

	rows := make([][]string, 0, len(r.Days))
	for _, dc := range r.Days {
		rows = append(rows, []string{
			dc.Day.Format(dayFormat),
			strconv.Itoa(dc.Count),
			bar(dc.Count, maxCount, barWidth),
		})
	}
	if _, err := fmt.Fprintln(w, "Daily"); err != nil {
		return err
	}
	for _, line := range formatTable(nil, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Trend: %s\n", Sparkline(values)); err != nil {
		return err
	}
	return nil
}

func bar(count, maxCount, width int) string {
	if count <= 0 || maxCount <= 0 {
		return ""
	}
	n := int(math.Round(float64(count) / float64(maxCount) * float64(width)))
	if n < 1 {
		n = 1
	}
	return strings.Repeat(barChar, n)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
