package stats

import (
	"sort"

	"github.com/verte-zerg/finquiz/internal/model"
)

// MostMissed returns up to top ever-missed questions, most wrong answers
// first, then lowest accuracy, then id. A non-positive top returns all.
func MostMissed(stats []model.QuestionStat, top int) []model.QuestionStat {
	candidates := make([]model.QuestionStat, 0, len(stats))
	for _, st := range stats {
		if st.EverWrong() {
			candidates = append(candidates, st)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Wrong != candidates[j].Wrong {
			return candidates[i].Wrong > candidates[j].Wrong
		}
		ai, aj := accuracy(candidates[i]), accuracy(candidates[j])
		if ai != aj {
			return ai < aj
		}
		return candidates[i].ID < candidates[j].ID
	})
	if top > 0 && top < len(candidates) {
		candidates = candidates[:top]
	}
	return candidates
}

func accuracy(st model.QuestionStat) float64 {
	total := st.Correct + st.Wrong
	if total == 0 {
		return 1.0
	}
	return float64(st.Correct) / float64(total)
}
