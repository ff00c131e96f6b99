package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/finquiz/internal/bank"
	"github.com/verte-zerg/finquiz/internal/explain"
	"github.com/verte-zerg/finquiz/internal/generator"
	"github.com/verte-zerg/finquiz/internal/model"
	"github.com/verte-zerg/finquiz/internal/quiz"
	"github.com/verte-zerg/finquiz/internal/store"
)

func newTestModel(t *testing.T, cfg model.Config) (*Model, *store.FileStore) {
	t.Helper()
	b, err := bank.Sample()
	if err != nil {
		t.Fatalf("sample bank: %v", err)
	}
	st, err := store.OpenFile(filepath.Join(t.TempDir(), store.StorageKey+".json"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return NewModel(cfg, b, st, generator.NewSeeded(1), nil), st
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, msg tea.Msg) {
	m.Update(msg)
}

func TestWeeklyRunThroughScreens(t *testing.T) {
	m, st := newTestModel(t, model.Config{Mode: "weekly", Weeks: []string{"9"}})
	if m.screen != screenQuiz {
		t.Fatalf("expected quiz screen, got %v", m.screen)
	}

	press(m, runes("a"))
	if m.screen != screenExplanation {
		t.Fatalf("expected explanation after answering, got %v", m.screen)
	}
	press(m, runes("s"))
	if m.session.SolvedCount() != 1 {
		t.Fatalf("key on explanation screen must not submit again")
	}

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.screen != screenQuiz {
		t.Fatalf("expected next question, got %v", m.screen)
	}
	press(m, runes("s"))
	if fb := m.session.Feedback(); fb == nil || !fb.Correct {
		t.Fatalf("expected X to be correct for w9-02, got %+v", fb)
	}

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.input.Focused() {
		t.Fatalf("free-text question should focus the input")
	}
	press(m, runes("Utilization"))
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if fb := m.session.Feedback(); fb == nil || !fb.Correct || !fb.Last {
		t.Fatalf("expected correct last answer, got %+v", fb)
	}

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.screen != screenResult {
		t.Fatalf("expected result screen, got %v", m.screen)
	}
	if got := st.Totals().TotalSolved; got != 3 || m.totals.TotalSolved != 3 {
		t.Fatalf("expected 3 solved, got %d", got)
	}
	if !strings.Contains(m.renderResult(), "/ 3 correct") {
		t.Fatalf("unexpected result view:\n%s", m.renderResult())
	}

	press(m, runes("m"))
	if m.screen != screenMain || m.session.State() != quiz.Idle {
		t.Fatalf("expected idle main screen")
	}
}

func TestFeedbackDelay(t *testing.T) {
	m, _ := newTestModel(t, model.Config{Mode: "weekly", Weeks: []string{"9"}, FeedbackDelay: time.Second})
	press(m, runes("a"))
	if m.screen != screenQuiz || !m.waiting {
		t.Fatalf("expected to wait on the quiz screen")
	}
	press(m, runes("b"))
	press(m, feedbackDoneMsg{seq: m.seq - 1})
	if m.screen != screenQuiz {
		t.Fatalf("stale tick must be ignored")
	}
	press(m, feedbackDoneMsg{seq: m.seq})
	if m.screen != screenExplanation {
		t.Fatalf("expected explanation after delay, got %v", m.screen)
	}
}

func TestDiagramResultsFillExplanation(t *testing.T) {
	m, _ := newTestModel(t, model.Config{Mode: "weekly", Weeks: []string{"1"}})
	press(m, runes(" "))
	if m.screen != screenExplanation {
		t.Fatalf("expected explanation, got %v", m.screen)
	}
	if !strings.Contains(m.renderFeedback(), explain.Pending) {
		t.Fatalf("expected pending diagram before render")
	}
	fb := m.session.Feedback()
	if len(fb.Diagrams) != 1 {
		t.Fatalf("expected one diagram, got %d", len(fb.Diagrams))
	}
	msg := renderDiagram(m.renderer, m.seq, 0, fb.Diagrams[0])()
	press(m, msg)
	out := m.renderFeedback()
	if strings.Contains(out, explain.Pending) || !strings.Contains(out, "Households ─(labor)→ Firms") {
		t.Fatalf("diagram not rendered:\n%s", out)
	}
	press(m, diagramMsg{seq: m.seq + 5, index: 0, out: "stale"})
	if strings.Contains(m.renderFeedback(), "stale") {
		t.Fatalf("stale diagram result applied")
	}
}

func TestEscapeAsksBeforeReturning(t *testing.T) {
	m, _ := newTestModel(t, model.Config{Mode: "infinite", Weeks: []string{"3"}})
	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.screen != screenConfirm {
		t.Fatalf("expected confirm screen")
	}
	press(m, runes("n"))
	if m.screen != screenQuiz {
		t.Fatalf("expected to resume quiz")
	}
	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	press(m, runes("y"))
	if m.screen != screenMain || m.session.State() != quiz.Idle {
		t.Fatalf("expected main screen after confirm")
	}
}

func TestReviewWithoutHistoryShowsNotice(t *testing.T) {
	m, _ := newTestModel(t, model.Config{Mode: "review", Weeks: []string{"9"}})
	if m.screen != screenMain {
		t.Fatalf("expected main screen, got %v", m.screen)
	}
	if !strings.Contains(m.renderMain(), "No wrong answers yet") {
		t.Fatalf("expected notice in main view:\n%s", m.renderMain())
	}
}

func TestMainSelectsWeeksAndStarts(t *testing.T) {
	m, _ := newTestModel(t, model.Config{})
	press(m, runes(" "))
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.focus != focusModes {
		t.Fatalf("enter on weeks should move focus to modes")
	}
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.screen != screenQuiz || m.session.Mode() != model.ModeWeekly {
		t.Fatalf("expected weekly session, got screen %v", m.screen)
	}
	if got := m.session.Weeks(); len(got) != 1 || got[0] != "1" {
		t.Fatalf("unexpected weeks %v", got)
	}
}

func TestRenderFooterFormats(t *testing.T) {
	m, _ := newTestModel(t, model.Config{})
	m.totals = model.Totals{TotalSolved: 8, TotalCorrect: 6}
	out := m.renderFooter()
	if !strings.Contains(out, "All-time 8 solved · 75%") {
		t.Fatalf("footer missing totals: %s", out)
	}
}

func TestOptionIndex(t *testing.T) {
	cases := []struct {
		key  string
		n    int
		want int
		ok   bool
	}{
		{"a", 4, 0, true},
		{"f", 4, 3, true},
		{"f", 3, 0, false},
		{"2", 4, 1, true},
		{"9", 4, 0, false},
		{"z", 4, 0, false},
	}
	for _, tc := range cases {
		got, ok := optionIndex(tc.key, tc.n)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("optionIndex(%q, %d) = %d,%v want %d,%v", tc.key, tc.n, got, ok, tc.want, tc.ok)
		}
	}
}
