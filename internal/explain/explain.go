// Package explain formats question explanations for the terminal.
package explain

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/verte-zerg/finquiz/internal/diagram"
)

var answerMarker = regexp.MustCompile(`【정답:[^】]*】`)

var sectionMarkers = []string{"📚", "✅", "❌", "💡", "🔍", "📊"}

var (
	textStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	bulletStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#D0D0D0"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Italic(true)
	borderStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	diagramStyle     = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#6E6E6E")).
				Padding(0, 1)
)

// Pending is shown in place of a diagram whose rendering has not finished.
const Pending = "rendering diagram..."

// Format renders explanation text for the given width. The i-th diagram of
// the text is replaced by rendered[i], or by a pending line when absent.
func Format(text string, width int, rendered map[int]string) string {
	var parts []string
	idx := 0
	for _, seg := range diagram.Split(text) {
		if seg.IsDiagram {
			out, ok := rendered[idx]
			if ok {
				parts = append(parts, diagramStyle.Render(out))
			} else {
				parts = append(parts, pendingStyle.Render(Pending))
			}
			idx++
			continue
		}
		if s := formatText(seg.Text, width); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// StripAnswerMarkers removes inline 【정답: ...】 answer markers.
func StripAnswerMarkers(text string) string {
	return answerMarker.ReplaceAllString(text, "")
}

func formatText(text string, width int) string {
	text = strings.TrimSpace(StripAnswerMarkers(text))
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case isTableRow(line):
			j := i
			for j < len(lines) && isTableRow(strings.TrimSpace(lines[j])) {
				j++
			}
			out = append(out, renderTable(lines[i:j]))
			i = j - 1
		case isSectionHeader(line):
			out = append(out, headerStyle.Render(line))
		case strings.HasPrefix(line, "• "):
			out = append(out, Wrap("  "+line, width, bulletStyle))
		case line == "":
			out = append(out, "")
		default:
			out = append(out, Wrap(line, width, textStyle))
		}
	}
	return strings.Join(out, "\n")
}

func isSectionHeader(line string) bool {
	for _, marker := range sectionMarkers {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return false
}

func isTableRow(line string) bool {
	return len(line) > 1 && strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|")
}

func splitRow(line string) []string {
	line = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(line), "|"), "|")
	cells := strings.Split(line, "|")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if c == "" || strings.Trim(c, "-:") != "" {
			return false
		}
	}
	return len(cells) > 0
}

func renderTable(lines []string) string {
	var header []string
	var rows [][]string
	for _, line := range lines {
		cells := splitRow(line)
		if isSeparatorRow(cells) {
			continue
		}
		if header == nil {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(header...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	return t.Render()
}
