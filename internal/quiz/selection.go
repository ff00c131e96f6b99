// Package quiz implements question selection, answer evaluation and the
// session state machine.
package quiz

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/finquiz/internal/bank"
	"github.com/verte-zerg/finquiz/internal/generator"
	"github.com/verte-zerg/finquiz/internal/model"
)

// Selection failures. They leave a session idle.
var (
	ErrNoWeeks         = errors.New("no weeks selected")
	ErrNoQuestions     = errors.New("no questions for the selected weeks")
	ErrNothingToReview = errors.New("no wrong answers to review for the selected weeks")
)

// Weights used by the infinite-mode draw.
const (
	weightEverWrong = 3
	weightDefault   = 1
)

// StatsStore is the statistics dependency of the engine.
type StatsStore interface {
	Get(id string) model.QuestionStat
	Record(id string, correct bool) error
}

// Selector builds working sets for each mode.
type Selector struct {
	bank  *bank.Bank
	stats StatsStore
	gen   *generator.Generator
}

// NewSelector returns a Selector over the bank and stats store.
func NewSelector(b *bank.Bank, st StatsStore, gen *generator.Generator) *Selector {
	return &Selector{bank: b, stats: st, gen: gen}
}

// Select returns the working set for mode over weeks: bank order for weekly,
// a random permutation of ever-missed questions for review, and the full
// week set as the initial pool for infinite.
func (s *Selector) Select(mode model.Mode, weeks []string) ([]*model.Question, error) {
	if len(weeks) == 0 {
		return nil, ErrNoWeeks
	}
	weekQuestions := s.bank.ByWeeks(weeks)
	switch mode {
	case model.ModeWeekly, model.ModeInfinite:
		if len(weekQuestions) == 0 {
			return nil, ErrNoQuestions
		}
		return weekQuestions, nil
	case model.ModeReview:
		wrong := make([]*model.Question, 0, len(weekQuestions))
		for _, q := range weekQuestions {
			if s.stats.Get(q.ID).EverWrong() {
				wrong = append(wrong, q)
			}
		}
		if len(wrong) == 0 {
			return nil, ErrNothingToReview
		}
		return generator.Shuffle(s.gen, wrong), nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

// Weight returns the draw weight of a question.
func (s *Selector) Weight(q *model.Question) int {
	if s.stats.Get(q.ID).EverWrong() {
		return weightEverWrong
	}
	return weightDefault
}

// Draw picks the pool index of the next infinite-mode question, or -1 for an
// empty pool.
func (s *Selector) Draw(pool []*model.Question) int {
	weights := make([]int, len(pool))
	for i, q := range pool {
		weights[i] = s.Weight(q)
	}
	return s.gen.WeightedIndex(weights)
}

// Shuffle returns a random permutation of questions.
func (s *Selector) Shuffle(questions []*model.Question) []*model.Question {
	return generator.Shuffle(s.gen, questions)
}
