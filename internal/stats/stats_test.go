package stats

import (
	"strings"
	"testing"

	"github.com/verte-zerg/finquiz/internal/bank"
	"github.com/verte-zerg/finquiz/internal/model"
)

func TestMostMissedOrder(t *testing.T) {
	stats := []model.QuestionStat{
		{ID: "b", Correct: 3, Wrong: 2},
		{ID: "a", Correct: 0, Wrong: 2},
		{ID: "c", Correct: 9, Wrong: 0},
		{ID: "d", Correct: 1, Wrong: 5},
	}
	got := MostMissed(stats, 0)
	if len(got) != 3 {
		t.Fatalf("never-missed questions must be excluded, got %v", got)
	}
	if got[0].ID != "d" || got[1].ID != "a" || got[2].ID != "b" {
		t.Fatalf("unexpected order: %v", got)
	}
	if top := MostMissed(stats, 1); len(top) != 1 || top[0].ID != "d" {
		t.Fatalf("unexpected top 1: %v", top)
	}
}

func TestWeekBreakdown(t *testing.T) {
	b := bank.New([]model.Week{{Key: "1", Name: "Week 1"}, {Key: "9", Name: "Week 9"}}, []model.Question{
		{ID: "q1", Week: "1"},
		{ID: "q2", Week: "1"},
		{ID: "q3", Week: "9"},
	})
	weeks := WeekBreakdown(b, map[string]model.QuestionStat{
		"q1":    {Correct: 3, Wrong: 1},
		"q3":    {Correct: 1},
		"ghost": {Wrong: 4},
	})
	if len(weeks) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(weeks))
	}
	w1 := weeks[0]
	if w1.Questions != 2 || w1.Seen != 1 || w1.Missed != 1 || w1.Answered() != 4 || w1.Accuracy() != 75 {
		t.Fatalf("unexpected week 1: %+v", w1)
	}
	if weeks[1].Accuracy() != 100 || weeks[1].Missed != 0 {
		t.Fatalf("unexpected week 9: %+v", weeks[1])
	}
}

func TestSparklineAndMovingAverage(t *testing.T) {
	if got := Sparkline([]float64{0, 50, 100}); got != " +@" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{5, 5}); got != "++" {
		t.Fatalf("flat series should use the mid char, got %q", got)
	}
	avg := MovingAverage([]float64{2, 4, 6, 8}, 2)
	if avg[0] != 2 || avg[1] != 3 || avg[3] != 7 {
		t.Fatalf("unexpected moving average %v", avg)
	}
}

func TestSummaryLinesWithoutSessions(t *testing.T) {
	lines := SummaryLines(Report{Totals: model.Totals{TotalSolved: 4, TotalCorrect: 3}})
	out := strings.Join(lines, "\n")
	if !strings.Contains(out, "Accuracy: 75%") || strings.Contains(out, "trend") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}
