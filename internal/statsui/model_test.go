package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/finquiz/internal/bank"
	"github.com/verte-zerg/finquiz/internal/model"
	"github.com/verte-zerg/finquiz/internal/store"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "finquiz.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	b, err := bank.Sample()
	if err != nil {
		t.Fatalf("sample bank: %v", err)
	}
	if err := st.Record("w9-02", false); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := st.Record("w9-01", true); err != nil {
		t.Fatalf("record: %v", err)
	}
	now := time.Now()
	err = st.InsertSession(context.Background(), model.SessionRecord{
		ID: "s1", Mode: model.ModeWeekly, Weeks: []string{"9"},
		StartedAt: now.Add(-time.Minute), EndedAt: now, Attempted: 2, Correct: 1, WrongCount: 1,
	})
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	m := NewModel(st, b, model.StatsConfig{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestTabsRender(t *testing.T) {
	m := newTestModel(t)
	if out := m.View(); !strings.Contains(out, "Accuracy") || !strings.Contains(out, "50%") {
		t.Fatalf("overview missing totals:\n%s", out)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabWeeks || !strings.Contains(m.View(), "Credit") {
		t.Fatalf("weeks tab missing week names:\n%s", m.View())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if !strings.Contains(m.View(), "w9-02") {
		t.Fatalf("missed tab missing question:\n%s", m.View())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if !strings.Contains(m.View(), "1/2") {
		t.Fatalf("sessions tab missing score:\n%s", m.View())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabOverview {
		t.Fatalf("tabs should wrap around")
	}
}

func TestFilterRejectsBadMode(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hourly")})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterError == "" || !m.filterMode {
		t.Fatalf("expected validation error")
	}
	m.filterInputs[fieldMode].SetValue("infinite")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode || m.cfg.Mode != "infinite" {
		t.Fatalf("expected filter applied, got %+v", m.cfg)
	}
	if len(m.report.Sessions) != 0 {
		t.Fatalf("infinite filter should hide weekly sessions")
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("abcdefghij", 6); got != "abc..." {
		t.Fatalf("unexpected truncate %q", got)
	}
}
