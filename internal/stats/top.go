package stats

import (
	"github.com/verte-zerg/finquiz/internal/bank"
	"github.com/verte-zerg/finquiz/internal/model"
)

// WeekStat aggregates question history for one week tag.
type WeekStat struct {
	Key       string
	Name      string
	Questions int
	Seen      int
	Missed    int
	Correct   int
	Wrong     int
}

// Answered is the number of recorded attempts for the week.
func (w WeekStat) Answered() int {
	return w.Correct + w.Wrong
}

// Accuracy returns the rounded accuracy percentage for the week.
func (w WeekStat) Accuracy() int {
	return model.Percent(w.Correct, w.Answered())
}

// WeekBreakdown groups per-question stats by the bank's weeks, in bank week
// order. Stats for ids not in the bank are ignored.
func WeekBreakdown(b *bank.Bank, stats map[string]model.QuestionStat) []WeekStat {
	keys := b.WeekKeys()
	index := make(map[string]int, len(keys))
	out := make([]WeekStat, len(keys))
	for i, key := range keys {
		index[key] = i
		out[i] = WeekStat{Key: key, Name: b.Week(key).Name}
	}
	seen := make(map[string]struct{}, len(b.Questions))
	for _, q := range b.Questions {
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		w := &out[index[q.Week]]
		w.Questions++
		st, ok := stats[q.ID]
		if !ok || st.Correct+st.Wrong == 0 {
			continue
		}
		w.Seen++
		if st.EverWrong() {
			w.Missed++
		}
		w.Correct += st.Correct
		w.Wrong += st.Wrong
	}
	return out
}
