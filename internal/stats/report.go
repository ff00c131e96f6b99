package stats

import (
	"context"
	"fmt"
	"sort"

	"github.com/verte-zerg/finquiz/internal/bank"
	"github.com/verte-zerg/finquiz/internal/model"
	"github.com/verte-zerg/finquiz/internal/store"
)

// MissedQuestion pairs a question's history with its bank entry.
type MissedQuestion struct {
	Stat model.QuestionStat
	Week string
	Text string
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Totals   model.Totals
	Seen     int
	Sessions []model.SessionRecord
	Weeks    []WeekStat
	Missed   []MissedQuestion
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st store.Backend, b *bank.Bank, cfg model.StatsConfig) (Report, error) {
	snap, err := st.Snapshot()
	if err != nil {
		return Report{}, fmt.Errorf("failed to read stats: %w", err)
	}
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}

	byID := make(map[string]model.QuestionStat, len(snap.QuestionStats))
	list := make([]model.QuestionStat, 0, len(snap.QuestionStats))
	for id, c := range snap.QuestionStats {
		stat := model.QuestionStat{ID: id, Correct: c.Correct, Wrong: c.Wrong}
		byID[id] = stat
		list = append(list, stat)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	report := Report{
		Totals:   model.Totals{TotalSolved: snap.TotalSolved, TotalCorrect: snap.TotalCorrect},
		Sessions: sessions,
		Weeks:    WeekBreakdown(b, byID),
	}
	for _, stat := range list {
		if stat.Correct+stat.Wrong > 0 {
			report.Seen++
		}
	}
	for _, stat := range MostMissed(list, cfg.MissedTop) {
		mq := MissedQuestion{Stat: stat, Week: "?", Text: "(not in the current bank)"}
		if q, ok := b.Question(stat.ID); ok {
			mq.Week = q.Week
			mq.Text = q.Text
		}
		report.Missed = append(report.Missed, mq)
	}
	return report, nil
}

// SessionAccuracies returns the accuracy percentage of each session in order.
func SessionAccuracies(sessions []model.SessionRecord) []float64 {
	out := make([]float64, len(sessions))
	for i, s := range sessions {
		out[i] = float64(model.Percent(s.Correct, s.Attempted))
	}
	return out
}

// ModeCounts counts sessions per mode.
func ModeCounts(sessions []model.SessionRecord) map[model.Mode]int {
	out := make(map[model.Mode]int, len(model.Modes))
	for _, s := range sessions {
		out[s.Mode]++
	}
	return out
}
