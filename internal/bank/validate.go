package bank

import (
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/finquiz/internal/model"
)

// Validate checks bank content that the quiz engine relies on. All problems
// are reported together.
func (b *Bank) Validate() error {
	var errs []error
	if len(b.Questions) == 0 {
		errs = append(errs, errors.New("bank has no questions"))
	}
	seen := make(map[string]int, len(b.Questions))
	for i, q := range b.Questions {
		label := fmt.Sprintf("question %d", i+1)
		if q.ID != "" {
			label = fmt.Sprintf("question %q", q.ID)
		}
		if q.ID == "" {
			errs = append(errs, fmt.Errorf("%s: missing id", label))
		} else if first, dup := seen[q.ID]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate id (first at position %d)", label, first+1))
		} else {
			seen[q.ID] = i
		}
		if strings.TrimSpace(q.Text) == "" {
			errs = append(errs, fmt.Errorf("%s: empty question text", label))
		}
		if len(b.Weeks) > 0 {
			if _, ok := b.weekIndex[q.Week]; !ok {
				errs = append(errs, fmt.Errorf("%s: unknown week %q", label, q.Week))
			}
		}
		errs = append(errs, validateAnswer(label, q)...)
	}
	return errors.Join(errs...)
}

func validateAnswer(label string, q model.Question) []error {
	switch q.Type {
	case model.MultipleChoice:
		if len(q.Options) < 2 {
			return []error{fmt.Errorf("%s: multiple-choice needs at least 2 options", label)}
		}
		if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
			return []error{fmt.Errorf("%s: answer index %d out of range (%d options)", label, q.AnswerIndex, len(q.Options))}
		}
	case model.FreeText:
		if strings.TrimSpace(q.AnswerText) == "" {
			return []error{fmt.Errorf("%s: free-text answer is empty", label)}
		}
	}
	return nil
}
