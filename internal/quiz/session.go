package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/finquiz/internal/bank"
	"github.com/verte-zerg/finquiz/internal/diagram"
	"github.com/verte-zerg/finquiz/internal/generator"
	"github.com/verte-zerg/finquiz/internal/model"
)

// State is the session lifecycle position.
type State int

// Session states.
const (
	Idle State = iota
	AwaitingAnswer
	ShowingExplanation
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingAnswer:
		return "awaiting-answer"
	case ShowingExplanation:
		return "showing-explanation"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Input is one answer event for the displayed question.
type Input interface {
	isInput()
}

// Select picks a multiple-choice option by display index.
type Select struct{ Index int }

// SelectBoolean answers an O/X question.
type SelectBoolean struct{ Value bool }

// SubmitText answers a fill-in question.
type SubmitText struct{ Value string }

// Skip is the explicit "don't know" answer.
type Skip struct{}

func (Select) isInput()        {}
func (SelectBoolean) isInput() {}
func (SubmitText) isInput()    {}
func (Skip) isInput()          {}

// SessionRecorder is implemented by stores that keep session history.
type SessionRecorder interface {
	InsertSession(ctx context.Context, rec model.SessionRecord) error
}

// View is what the presentation layer needs to draw the current question.
type View struct {
	State           State
	Mode            model.Mode
	Badge           string
	Question        *model.Question
	Options         []string
	PreviouslyWrong bool
	Number          int
	Total           int
	Remaining       int
	Progress        float64
}

// Feedback describes the outcome of the accepted submission.
type Feedback struct {
	Question      *model.Question
	Correct       bool
	Skipped       bool
	CorrectAnswer string
	UserAnswer    string
	Explanation   string
	Tip           string
	Diagrams      []string
	Remaining     int
	Last          bool
}

// Summary is the end-of-session result.
type Summary struct {
	Mode          model.Mode
	Correct       int
	Attempted     int
	Percent       int
	WrongCount    int
	Message       string
	CanRetryWrong bool
}

// Session runs one practice session at a time over a bank.
type Session struct {
	bank     *bank.Bank
	stats    StatsStore
	selector *Selector
	gen      *generator.Generator
	logger   *slog.Logger
	now      func() time.Time

	id        string
	mode      model.Mode
	weeks     []string
	state     State
	startedAt time.Time

	sequence []*model.Question
	position int

	pool      []*model.Question
	poolIndex int
	poolSize  int

	solvedCount  int
	correctCount int
	wrongList    []*model.Question

	current         *model.Question
	previouslyWrong bool
	answered        bool
	userAnswer      Input
	shuffle         OptionShuffle
	feedback        *Feedback

	notice   string
	storeErr error
}

// NewSession returns an idle session.
func NewSession(b *bank.Bank, st StatsStore, gen *generator.Generator, logger *slog.Logger) *Session {
	if gen == nil {
		gen = generator.New()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		bank:     b,
		stats:    st,
		selector: NewSelector(b, st, gen),
		gen:      gen,
		logger:   logger,
		now:      time.Now,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Mode returns the running mode.
func (s *Session) Mode() model.Mode { return s.mode }

// Weeks returns the selected weeks.
func (s *Session) Weeks() []string { return s.weeks }

// Notice returns the last user-facing message, such as an empty working set.
func (s *Session) Notice() string { return s.notice }

// StoreErr returns the last statistics write failure, if any.
func (s *Session) StoreErr() error { return s.storeErr }

// SolvedCount returns the number of accepted submissions this session.
func (s *Session) SolvedCount() int { return s.solvedCount }

// CorrectCount returns the number of correct submissions this session.
func (s *Session) CorrectCount() int { return s.correctCount }

// WrongList returns the questions missed this session (weekly/review).
func (s *Session) WrongList() []*model.Question { return s.wrongList }

// PoolSize returns the remaining infinite-mode pool size.
func (s *Session) PoolSize() int { return len(s.pool) }

// Feedback returns the outcome of the current question once answered.
func (s *Session) Feedback() *Feedback { return s.feedback }

// Start selects the working set and shows the first question. On an empty
// set the session stays idle and Notice explains why.
func (s *Session) Start(mode model.Mode, weeks []string) error {
	s.reset()
	s.mode = mode
	s.weeks = append([]string(nil), weeks...)

	set, err := s.selector.Select(mode, s.weeks)
	if err != nil {
		s.state = Idle
		s.notice = noticeFor(err)
		return err
	}
	s.begin(set)
	return nil
}

func noticeFor(err error) string {
	switch {
	case errors.Is(err, ErrNothingToReview):
		return "No wrong answers yet! Pick another mode."
	case errors.Is(err, ErrNoQuestions):
		return "The selected weeks have no questions."
	case errors.Is(err, ErrNoWeeks):
		return "Select at least one week."
	default:
		return err.Error()
	}
}

func (s *Session) begin(set []*model.Question) {
	s.id = uuid.NewString()
	s.startedAt = s.now()
	s.solvedCount = 0
	s.correctCount = 0
	s.wrongList = nil
	if s.mode == model.ModeInfinite {
		s.pool = append([]*model.Question(nil), set...)
		s.poolSize = len(s.pool)
		s.sequence = nil
	} else {
		s.sequence = set
		s.position = 0
		s.pool = nil
	}
	s.display()
}

func (s *Session) reset() {
	s.id = ""
	s.mode = ""
	s.weeks = nil
	s.state = Idle
	s.sequence = nil
	s.position = 0
	s.pool = nil
	s.poolIndex = 0
	s.poolSize = 0
	s.solvedCount = 0
	s.correctCount = 0
	s.wrongList = nil
	s.clearCurrent()
	s.notice = ""
	s.storeErr = nil
}

func (s *Session) clearCurrent() {
	s.current = nil
	s.previouslyWrong = false
	s.answered = false
	s.userAnswer = nil
	s.shuffle = OptionShuffle{}
	s.feedback = nil
}

// display prepares the next question for the mode, or completes the session.
func (s *Session) display() {
	s.clearCurrent()
	if s.mode == model.ModeInfinite {
		idx := s.selector.Draw(s.pool)
		if idx < 0 {
			s.complete()
			return
		}
		s.poolIndex = idx
		s.current = s.pool[idx]
	} else {
		if s.position >= len(s.sequence) {
			s.complete()
			return
		}
		s.current = s.sequence[s.position]
	}
	s.previouslyWrong = s.stats.Get(s.current.ID).EverWrong()
	if s.current.Type == model.MultipleChoice {
		s.shuffle = ShuffleOptions(s.gen, s.current.Options, s.current.AnswerIndex)
	}
	s.state = AwaitingAnswer
}

// View returns the display data for the current question.
func (s *Session) View() View {
	v := View{State: s.state, Mode: s.mode, Badge: s.mode.Badge()}
	if s.current == nil {
		return v
	}
	v.Question = s.current
	v.Options = s.shuffle.Options
	v.PreviouslyWrong = s.previouslyWrong
	if s.mode == model.ModeInfinite {
		v.Number = s.solvedCount + 1
		if s.answered {
			v.Number = s.solvedCount
		}
		v.Total = s.poolSize
		v.Remaining = len(s.pool)
		v.Badge = fmt.Sprintf("∞ %d/%d", s.correctCount, s.solvedCount)
		if s.poolSize > 0 {
			v.Progress = float64(s.poolSize-len(s.pool)) / float64(s.poolSize)
		}
		return v
	}
	v.Number = s.position + 1
	v.Total = len(s.sequence)
	v.Remaining = len(s.sequence) - s.position
	if len(s.sequence) > 0 {
		v.Progress = float64(s.position) / float64(len(s.sequence))
	}
	return v
}

// Submit scores the first acceptable input for the displayed question. It
// returns false, changing nothing, when the question is already answered or
// the input does not fit the question type.
func (s *Session) Submit(in Input) (*Feedback, bool) {
	if s.state != AwaitingAnswer || s.answered || s.current == nil {
		return nil, false
	}
	q := s.current
	correct, skipped, ok := s.evaluate(q, in)
	if !ok {
		return nil, false
	}

	s.answered = true
	s.userAnswer = in
	if err := s.stats.Record(q.ID, correct); err != nil {
		s.storeErr = err
		s.logger.Error("failed to record attempt", "question", q.ID, "err", err)
	}

	s.solvedCount++
	if correct {
		s.correctCount++
	}
	if s.mode == model.ModeInfinite {
		if correct {
			s.pool = append(s.pool[:s.poolIndex], s.pool[s.poolIndex+1:]...)
		}
	} else if !correct {
		s.wrongList = append(s.wrongList, q)
	}

	s.feedback = s.buildFeedback(q, in, correct, skipped)
	s.state = ShowingExplanation
	return s.feedback, true
}

func (s *Session) evaluate(q *model.Question, in Input) (correct, skipped, ok bool) {
	switch v := in.(type) {
	case Skip:
		return false, true, true
	case Select:
		if q.Type != model.MultipleChoice || v.Index < 0 || v.Index >= len(s.shuffle.Options) {
			return false, false, false
		}
		return EvaluateChoice(s.shuffle, v.Index), false, true
	case SelectBoolean:
		if q.Type != model.Boolean {
			return false, false, false
		}
		return EvaluateBoolean(q, v.Value), false, true
	case SubmitText:
		if q.Type != model.FreeText {
			return false, false, false
		}
		correct, skipped := EvaluateText(q, v.Value)
		return correct, skipped, true
	default:
		return false, false, false
	}
}

func (s *Session) buildFeedback(q *model.Question, in Input, correct, skipped bool) *Feedback {
	fb := &Feedback{
		Question:      q,
		Correct:       correct,
		Skipped:       skipped,
		CorrectAnswer: AnswerText(q),
		Explanation:   q.Explanation,
		Tip:           q.Tip,
		Diagrams:      diagram.Sources(q.Explanation),
	}
	if !correct && !skipped {
		fb.UserAnswer = s.userAnswerText(in)
	}
	if s.mode == model.ModeInfinite {
		fb.Remaining = len(s.pool)
		fb.Last = len(s.pool) == 0
	} else {
		fb.Remaining = len(s.sequence) - s.position - 1
		fb.Last = s.position >= len(s.sequence)-1
	}
	return fb
}

// AnswerText formats the expected answer of q for display.
func AnswerText(q *model.Question) string {
	switch q.Type {
	case model.Boolean:
		return booleanText(q.AnswerBool)
	case model.FreeText:
		if len(q.Alternatives) > 0 {
			return fmt.Sprintf("%s (or: %s)", q.AnswerText, strings.Join(q.Alternatives, ", "))
		}
		return q.AnswerText
	default:
		if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
			return ""
		}
		return q.Options[q.AnswerIndex]
	}
}

func (s *Session) userAnswerText(in Input) string {
	switch v := in.(type) {
	case SelectBoolean:
		return booleanText(v.Value)
	case SubmitText:
		return strings.TrimSpace(v.Value)
	case Select:
		return s.shuffle.Options[v.Index]
	default:
		return ""
	}
}

func booleanText(v bool) string {
	if v {
		return "O (true)"
	}
	return "X (false)"
}

// Next leaves the explanation and shows the next question, or completes the
// session when the mode's end condition holds.
func (s *Session) Next() State {
	if s.state != ShowingExplanation {
		return s.state
	}
	if s.mode != model.ModeInfinite {
		s.position++
	}
	s.display()
	return s.state
}

func (s *Session) complete() {
	s.clearCurrent()
	s.state = Complete
	rec, ok := s.stats.(SessionRecorder)
	if !ok {
		return
	}
	sum := s.Summary()
	err := rec.InsertSession(context.Background(), model.SessionRecord{
		ID:         s.id,
		Mode:       s.mode,
		Weeks:      s.weeks,
		StartedAt:  s.startedAt,
		EndedAt:    s.now(),
		Attempted:  sum.Attempted,
		Correct:    sum.Correct,
		WrongCount: sum.WrongCount,
	})
	if err != nil {
		s.storeErr = err
		s.logger.Error("failed to save session", "session", s.id, "err", err)
	}
}

// Summary returns the end-of-session counts. It is meaningful once the
// session is complete.
func (s *Session) Summary() Summary {
	sum := Summary{
		Mode:       s.mode,
		Correct:    s.correctCount,
		WrongCount: len(s.wrongList),
	}
	if s.mode == model.ModeInfinite {
		sum.Attempted = s.solvedCount
		sum.Percent = model.Percent(sum.Correct, sum.Attempted)
		sum.Message = "You mastered every question!"
		return sum
	}
	sum.Attempted = len(s.sequence)
	sum.Percent = model.Percent(sum.Correct, sum.Attempted)
	sum.Message = resultMessage(sum.Percent)
	sum.CanRetryWrong = len(s.wrongList) > 0
	return sum
}

func resultMessage(percent int) string {
	switch {
	case percent >= 90:
		return "Perfect! You are ready for the exam."
	case percent >= 70:
		return "Nice work! A little more review and you are there."
	case percent >= 50:
		return "Review needed. Retry the questions you missed."
	default:
		return "Don't give up! Repetition is what works."
	}
}

// RetryWrong restarts with the shuffled questions missed this session.
// Infinite mode has no such path.
func (s *Session) RetryWrong() bool {
	if s.state != Complete || s.mode == model.ModeInfinite || len(s.wrongList) == 0 {
		return false
	}
	set := s.selector.Shuffle(s.wrongList)
	s.notice = ""
	s.begin(set)
	return true
}

// RetryAll restarts the session: weekly and review re-permute the current
// sequence, infinite reruns selection.
func (s *Session) RetryAll() error {
	if s.state != Complete {
		return fmt.Errorf("session is %s, not complete", s.state)
	}
	s.notice = ""
	if s.mode == model.ModeInfinite {
		return s.Start(s.mode, s.weeks)
	}
	s.begin(s.selector.Shuffle(s.sequence))
	return nil
}

// ReturnToMain abandons the session and clears the selection.
func (s *Session) ReturnToMain() {
	s.reset()
}
