package quiz

import (
	"strings"
	"unicode"

	"github.com/verte-zerg/finquiz/internal/generator"
	"github.com/verte-zerg/finquiz/internal/model"
)

// OptionShuffle is the display order of one multiple-choice showing.
type OptionShuffle struct {
	Options            []string
	OriginalToShuffled []int
	AnswerIndex        int
}

// ShuffleOptions permutes options and tracks where the answer lands.
// AnswerIndex is -1 when answer is not a valid option index.
func ShuffleOptions(gen *generator.Generator, options []string, answer int) OptionShuffle {
	perm := gen.Permutation(len(options))
	sh := OptionShuffle{
		Options:            make([]string, len(options)),
		OriginalToShuffled: make([]int, len(options)),
		AnswerIndex:        -1,
	}
	for display, original := range perm {
		sh.Options[display] = options[original]
		sh.OriginalToShuffled[original] = display
	}
	if answer >= 0 && answer < len(options) {
		sh.AnswerIndex = sh.OriginalToShuffled[answer]
	}
	return sh
}

// EvaluateChoice reports whether the displayed index is the answer.
func EvaluateChoice(sh OptionShuffle, chosen int) bool {
	return sh.AnswerIndex >= 0 && chosen == sh.AnswerIndex
}

// EvaluateBoolean reports whether value matches the question's answer.
func EvaluateBoolean(q *model.Question, value bool) bool {
	return q.AnswerBool == value
}

// EvaluateText checks a typed answer against the answer and alternatives.
// A blank submission is wrong and reported as skipped.
func EvaluateText(q *model.Question, text string) (correct, skipped bool) {
	if strings.TrimSpace(text) == "" {
		return false, true
	}
	got := Normalize(text)
	if got == Normalize(q.AnswerText) {
		return true, false
	}
	for _, alt := range q.Alternatives {
		if got == Normalize(alt) {
			return true, false
		}
	}
	return false, false
}

// Normalize lower-cases s and drops all whitespace.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
