package explain

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

func TestWrapRespectsWideRunes(t *testing.T) {
	out := Wrap("신용 점수 관리 방법", 8, lipgloss.NewStyle())
	for _, line := range strings.Split(out, "\n") {
		if w := runewidth.StringWidth(line); w > 8 {
			t.Fatalf("line %q is %d columns wide", line, w)
		}
	}
	if strings.ReplaceAll(out, "\n", " ") != "신용 점수 관리 방법" {
		t.Fatalf("wrap lost text: %q", out)
	}
}

func TestWrapBreaksLongWords(t *testing.T) {
	out := Wrap("abcdefgh", 3, lipgloss.NewStyle())
	if out != "abc\ndef\ngh" {
		t.Fatalf("unexpected wrap: %q", out)
	}
}

func TestFormatTable(t *testing.T) {
	text := "📊 Formula\n| Term | Meaning |\n|---|---|\n| Real | Nominal minus inflation |\n"
	out := Format(text, 60, nil)
	for _, want := range []string{"📊 Formula", "Term", "Meaning", "Nominal minus inflation", "│"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "---") {
		t.Fatalf("separator row leaked into output:\n%s", out)
	}
}

func TestFormatStripsAnswerMarkers(t *testing.T) {
	out := Format("Households supply labor.【정답: Households】", 80, nil)
	if strings.Contains(out, "정답") {
		t.Fatalf("answer marker not removed: %q", out)
	}
}

func TestFormatDiagramPlaceholders(t *testing.T) {
	text := "before\n```mermaid\nflowchart LR\nA --> B\n```\nafter"
	pending := Format(text, 80, nil)
	if !strings.Contains(pending, Pending) {
		t.Fatalf("expected pending marker:\n%s", pending)
	}
	done := Format(text, 80, map[int]string{0: "A → B"})
	if strings.Contains(done, Pending) || !strings.Contains(done, "A → B") {
		t.Fatalf("expected rendered diagram:\n%s", done)
	}
	if !strings.Contains(done, "before") || !strings.Contains(done, "after") {
		t.Fatalf("surrounding text lost:\n%s", done)
	}
}
