// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/finquiz/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = min(max(idx, 0), len(sparkChars)-1)
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// TrendWindow is the moving-average window used for the accuracy trend.
const TrendWindow = 3

// SummaryLines returns the overview block of a report.
func SummaryLines(r Report) []string {
	lines := []string{
		fmt.Sprintf("Questions answered: %d", r.Totals.TotalSolved),
		fmt.Sprintf("Correct: %d", r.Totals.TotalCorrect),
		fmt.Sprintf("Accuracy: %d%%", r.Totals.Accuracy()),
		fmt.Sprintf("Questions seen: %d", r.Seen),
		fmt.Sprintf("Sessions: %d", len(r.Sessions)),
	}
	if len(r.Sessions) == 0 {
		return lines
	}
	counts := ModeCounts(r.Sessions)
	parts := make([]string, 0, len(model.Modes))
	for _, mode := range model.Modes {
		parts = append(parts, fmt.Sprintf("%s %d", mode.Badge(), counts[mode]))
	}
	lines = append(lines, "By mode: "+strings.Join(parts, " · "))
	trend := Sparkline(MovingAverage(SessionAccuracies(r.Sessions), TrendWindow))
	lines = append(lines, fmt.Sprintf("Accuracy trend: [%s]", trend))
	return lines
}

// RenderSummary prints the overview block.
func RenderSummary(w io.Writer, r Report) error {
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	return writeLines(w, SummaryLines(r))
}

// WeekTable returns the per-week table rows.
func WeekTable(weeks []WeekStat) ([]string, [][]string) {
	headers := []string{"Week", "Questions", "Seen", "Missed", "Answered", "Accuracy"}
	rows := make([][]string, 0, len(weeks))
	for _, w := range weeks {
		acc := "-"
		if w.Answered() > 0 {
			acc = fmt.Sprintf("%d%%", w.Accuracy())
		}
		rows = append(rows, []string{
			w.Name,
			fmt.Sprint(w.Questions),
			fmt.Sprint(w.Seen),
			fmt.Sprint(w.Missed),
			fmt.Sprint(w.Answered()),
			acc,
		})
	}
	return headers, rows
}

// RenderWeeks prints the per-week breakdown.
func RenderWeeks(w io.Writer, weeks []WeekStat) error {
	if _, err := fmt.Fprintln(w, "Per-Week"); err != nil {
		return err
	}
	headers, rows := WeekTable(weeks)
	return writeLines(w, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}))
}

// MissedTable returns the most-missed table rows with question text cut to
// textWidth columns.
func MissedTable(missed []MissedQuestion, textWidth int) ([]string, [][]string) {
	headers := []string{"ID", "Week", "Wrong", "Correct", "Question"}
	rows := make([][]string, 0, len(missed))
	for _, m := range missed {
		rows = append(rows, []string{
			m.Stat.ID,
			m.Week,
			fmt.Sprint(m.Stat.Wrong),
			fmt.Sprint(m.Stat.Correct),
			Truncate(m.Text, textWidth),
		})
	}
	return headers, rows
}

// RenderMissed prints the most-missed questions.
func RenderMissed(w io.Writer, missed []MissedQuestion) error {
	if len(missed) == 0 {
		_, err := fmt.Fprintln(w, "No missed questions.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Most Missed"); err != nil {
		return err
	}
	headers, rows := MissedTable(missed, 50)
	return writeLines(w, formatTable(headers, rows, map[int]bool{2: true, 3: true}))
}

// SessionTable returns the session history rows, newest first.
func SessionTable(sessions []model.SessionRecord) ([]string, [][]string) {
	headers := []string{"Ended", "Mode", "Weeks", "Score", "Accuracy"}
	rows := make([][]string, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		rows = append(rows, []string{
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			s.Mode.Badge(),
			strings.Join(s.Weeks, ","),
			fmt.Sprintf("%d/%d", s.Correct, s.Attempted),
			fmt.Sprintf("%d%%", model.Percent(s.Correct, s.Attempted)),
		})
	}
	return headers, rows
}

// RenderSessions prints the session history.
func RenderSessions(w io.Writer, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Sessions"); err != nil {
		return err
	}
	headers, rows := SessionTable(sessions)
	return writeLines(w, formatTable(headers, rows, map[int]bool{3: true, 4: true}))
}

// RenderReport prints every section of the report.
func RenderReport(w io.Writer, r Report) error {
	sections := []func() error{
		func() error { return RenderSummary(w, r) },
		func() error { return RenderWeeks(w, r.Weeks) },
		func() error { return RenderMissed(w, r.Missed) },
		func() error { return RenderSessions(w, r.Sessions) },
	}
	for i, section := range sections {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := section(); err != nil {
			return err
		}
	}
	return nil
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
