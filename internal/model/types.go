// Package model defines shared data structures.
package model

import "time"

// QuestionType identifies how a question is answered.
type QuestionType string

// Supported question types.
const (
	MultipleChoice QuestionType = "multiple-choice"
	Boolean        QuestionType = "boolean"
	FreeText       QuestionType = "free-text"
)

// Label returns the short badge shown next to a question.
func (t QuestionType) Label() string {
	switch t {
	case Boolean:
		return "O/X"
	case FreeText:
		return "Fill-in"
	default:
		return "Multiple choice"
	}
}

// Question is a single immutable bank entry.
type Question struct {
	ID           string
	Week         string
	Type         QuestionType
	Text         string
	Options      []string
	AnswerIndex  int
	AnswerBool   bool
	AnswerText   string
	Alternatives []string
	Explanation  string
	Tip          string
}

// Week maps a week tag to its display names.
type Week struct {
	Key       string
	Name      string
	ShortName string
}

// Mode selects how a session consumes question history.
type Mode string

// Practice modes.
const (
	ModeWeekly   Mode = "weekly"
	ModeReview   Mode = "review"
	ModeInfinite Mode = "infinite"
)

// Modes lists the practice modes in menu order.
var Modes = []Mode{ModeWeekly, ModeReview, ModeInfinite}

// Label returns the long mode name.
func (m Mode) Label() string {
	switch m {
	case ModeWeekly:
		return "Weekly quiz"
	case ModeReview:
		return "Review wrong answers"
	case ModeInfinite:
		return "Infinite mode"
	default:
		return string(m)
	}
}

// Badge returns the short mode name shown during a session.
func (m Mode) Badge() string {
	switch m {
	case ModeWeekly:
		return "Weekly"
	case ModeReview:
		return "Review"
	case ModeInfinite:
		return "Infinite"
	default:
		return string(m)
	}
}

// ParseMode converts user input into a Mode.
func ParseMode(s string) (Mode, bool) {
	for _, m := range Modes {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// QuestionStat holds the historical counters for one question.
type QuestionStat struct {
	ID      string
	Correct int
	Wrong   int
}

// EverWrong reports whether the question was ever missed.
func (s QuestionStat) EverWrong() bool {
	return s.Wrong > 0
}

// Totals are the global attempt counters.
type Totals struct {
	TotalSolved  int
	TotalCorrect int
}

// Accuracy returns the rounded all-time accuracy percentage.
func (t Totals) Accuracy() int {
	return Percent(t.TotalCorrect, t.TotalSolved)
}

// SessionRecord captures a completed quiz session.
type SessionRecord struct {
	ID         string
	Mode       Mode
	Weeks      []string
	StartedAt  time.Time
	EndedAt    time.Time
	Attempted  int
	Correct    int
	WrongCount int
}

// Config defines quiz settings resolved from flags, env and config file.
type Config struct {
	BankPath      string
	StoreKind     string
	DBPath        string
	Mode          string
	Weeks         []string
	FeedbackDelay time.Duration
	Seed          int64
	Validate      bool
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Mode      string
	Since     *time.Time
	Last      int
	MissedTop int
}

// Percent returns part/total as a rounded percentage, 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(part)/float64(total)*100 + 0.5)
}
