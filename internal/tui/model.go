// Package tui provides the Bubble Tea quiz interface.
package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/finquiz/internal/bank"
	"github.com/verte-zerg/finquiz/internal/diagram"
	"github.com/verte-zerg/finquiz/internal/explain"
	"github.com/verte-zerg/finquiz/internal/generator"
	"github.com/verte-zerg/finquiz/internal/model"
	"github.com/verte-zerg/finquiz/internal/quiz"
	"github.com/verte-zerg/finquiz/internal/store"
)

type screen int

const (
	screenMain screen = iota
	screenQuiz
	screenExplanation
	screenResult
	screenConfirm
)

type focusArea int

const (
	focusWeeks focusArea = iota
	focusModes
)

// optionKeys map display positions to keys for multiple-choice answers.
var optionKeys = []string{"a", "s", "d", "f"}

type feedbackDoneMsg struct{ seq int }

type diagramMsg struct {
	seq   int
	index int
	out   string
	err   error
}

// Model implements the Bubble Tea quiz UI.
type Model struct {
	config   model.Config
	bank     *bank.Bank
	store    store.Backend
	session  *quiz.Session
	renderer diagram.Renderer
	logger   *slog.Logger

	width  int
	height int

	screen     screen
	prevScreen screen

	weekKeys   []string
	weekCounts map[string]int
	selected   map[string]bool
	weekCursor int
	modeCursor int
	focus      focusArea

	input    textinput.Model
	viewport viewport.Model

	waiting  bool
	seq      int
	diagrams map[int]string

	notice string
	totals model.Totals
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	textStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	wrongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs the quiz TUI. When cfg names a mode and weeks the
// session starts right away.
func NewModel(cfg model.Config, b *bank.Bank, st store.Backend, gen *generator.Generator, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	input := textinput.New()
	input.Placeholder = "type your answer, enter to submit"
	input.CharLimit = 200

	m := &Model{
		config:     cfg,
		bank:       b,
		store:      st,
		session:    quiz.NewSession(b, st, gen, logger),
		renderer:   diagram.TextRenderer{},
		logger:     logger,
		weekKeys:   b.WeekKeys(),
		weekCounts: b.CountByWeek(),
		selected:   map[string]bool{},
		input:      input,
		viewport:   viewport.New(80, 20),
	}
	for _, w := range cfg.Weeks {
		m.selected[w] = true
	}
	if mode, ok := model.ParseMode(cfg.Mode); ok {
		for i, candidate := range model.Modes {
			if candidate == mode {
				m.modeCursor = i
			}
		}
		if len(cfg.Weeks) > 0 {
			m.start(mode)
		}
	}
	m.totals = st.Totals()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.screen == screenQuiz {
		return m.focusInput()
	}
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.contentWidth()
		m.viewport.Height = max(msg.Height-6, 3)
		m.refreshExplanation()
		return m, nil
	case feedbackDoneMsg:
		if msg.seq != m.seq || !m.waiting {
			return m, nil
		}
		return m, m.showExplanation()
	case diagramMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Warn("diagram render failed", "index", msg.index, "err", msg.err)
		}
		m.diagrams[msg.index] = msg.out
		m.refreshExplanation()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.screen {
		case screenMain:
			return m.updateMain(msg)
		case screenQuiz:
			return m.updateQuiz(msg)
		case screenExplanation:
			return m.updateExplanation(msg)
		case screenResult:
			return m.updateResult(msg)
		case screenConfirm:
			return m.updateConfirm(msg)
		}
	}
	return m, nil
}

func (m *Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "left", "right", "h", "l":
		if m.focus == focusWeeks {
			m.focus = focusModes
		} else {
			m.focus = focusWeeks
		}
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case " ", "space":
		if m.focus == focusWeeks && len(m.weekKeys) > 0 {
			key := m.weekKeys[m.weekCursor]
			m.selected[key] = !m.selected[key]
		}
	case "A":
		all := len(m.selectedWeeks()) < len(m.weekKeys)
		for _, key := range m.weekKeys {
			m.selected[key] = all
		}
	case "enter":
		if m.focus == focusWeeks {
			m.focus = focusModes
			return m, nil
		}
		m.start(model.Modes[m.modeCursor])
		if m.screen == screenQuiz {
			return m, m.focusInput()
		}
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	if m.focus == focusWeeks {
		if n := len(m.weekKeys); n > 0 {
			m.weekCursor = (m.weekCursor + delta + n) % n
		}
		return
	}
	n := len(model.Modes)
	m.modeCursor = (m.modeCursor + delta + n) % n
}

func (m *Model) selectedWeeks() []string {
	var out []string
	for _, key := range m.weekKeys {
		if m.selected[key] {
			out = append(out, key)
		}
	}
	return out
}

func (m *Model) start(mode model.Mode) {
	m.notice = ""
	if err := m.session.Start(mode, m.selectedWeeks()); err != nil {
		m.notice = m.session.Notice()
		m.screen = screenMain
		return
	}
	m.enterQuiz()
}

func (m *Model) enterQuiz() {
	m.screen = screenQuiz
	m.waiting = false
	m.input.SetValue("")
}

func (m *Model) focusInput() tea.Cmd {
	v := m.session.View()
	if v.Question != nil && v.Question.Type == model.FreeText {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

func (m *Model) updateQuiz(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.waiting {
		return m, nil
	}
	if msg.Type == tea.KeyEsc {
		m.prevScreen = screenQuiz
		m.screen = screenConfirm
		return m, nil
	}
	v := m.session.View()
	if v.Question == nil {
		return m, nil
	}
	key := msg.String()
	var in quiz.Input
	switch v.Question.Type {
	case model.FreeText:
		if msg.Type == tea.KeyEnter {
			in = quiz.SubmitText{Value: m.input.Value()}
			break
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	case model.Boolean:
		switch key {
		case "a", "o", "O":
			in = quiz.SelectBoolean{Value: true}
		case "s", "x", "X":
			in = quiz.SelectBoolean{Value: false}
		case " ", "space":
			in = quiz.Skip{}
		}
	default:
		if idx, ok := optionIndex(key, len(v.Options)); ok {
			in = quiz.Select{Index: idx}
		} else if key == " " || key == "space" {
			in = quiz.Skip{}
		}
	}
	if in == nil {
		return m, nil
	}
	return m, m.submit(in)
}

func optionIndex(key string, n int) (int, bool) {
	for i, k := range optionKeys {
		if key == k && i < n {
			return i, true
		}
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		idx := int(key[0] - '1')
		if idx < n {
			return idx, true
		}
	}
	return 0, false
}

func (m *Model) submit(in quiz.Input) tea.Cmd {
	if _, ok := m.session.Submit(in); !ok {
		return nil
	}
	m.input.Blur()
	m.seq++
	if m.config.FeedbackDelay <= 0 {
		return m.showExplanation()
	}
	m.waiting = true
	seq := m.seq
	return tea.Tick(m.config.FeedbackDelay, func(time.Time) tea.Msg {
		return feedbackDoneMsg{seq: seq}
	})
}

// showExplanation switches to the explanation screen and starts one render
// command per diagram.
func (m *Model) showExplanation() tea.Cmd {
	m.waiting = false
	m.screen = screenExplanation
	m.diagrams = map[int]string{}
	m.viewport.GotoTop()
	m.refreshExplanation()

	fb := m.session.Feedback()
	if fb == nil {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(fb.Diagrams))
	for i, src := range fb.Diagrams {
		cmds = append(cmds, renderDiagram(m.renderer, m.seq, i, src))
	}
	return tea.Batch(cmds...)
}

func renderDiagram(r diagram.Renderer, seq, index int, source string) tea.Cmd {
	return func() tea.Msg {
		out, err := diagram.RenderOrPlaceholder(r, source)
		return diagramMsg{seq: seq, index: index, out: out, err: err}
	}
}

func (m *Model) refreshExplanation() {
	if m.screen != screenExplanation {
		return
	}
	m.viewport.SetContent(m.renderFeedback())
}

func (m *Model) updateExplanation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", " ", "space":
		m.seq++
		if m.session.Next() == quiz.Complete {
			m.screen = screenResult
			m.totals = m.store.Totals()
			return m, nil
		}
		m.enterQuiz()
		return m, m.focusInput()
	case "esc":
		m.prevScreen = screenExplanation
		m.screen = screenConfirm
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		if m.session.RetryWrong() {
			m.enterQuiz()
			return m, m.focusInput()
		}
	case "R":
		if err := m.session.RetryAll(); err != nil {
			m.notice = m.session.Notice()
			m.returnToMain()
			return m, nil
		}
		m.enterQuiz()
		return m, m.focusInput()
	case "m", "esc":
		m.returnToMain()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.returnToMain()
		return m, nil
	case "n", "N", "esc":
		m.screen = m.prevScreen
		if m.screen == screenQuiz {
			return m, m.focusInput()
		}
	}
	return m, nil
}

func (m *Model) returnToMain() {
	m.session.ReturnToMain()
	m.seq++
	m.waiting = false
	m.input.Blur()
	m.input.SetValue("")
	m.screen = screenMain
	m.totals = m.store.Totals()
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch m.screen {
	case screenQuiz:
		body = m.renderQuiz()
	case screenExplanation:
		body = m.viewport.View()
	case screenResult:
		body = m.renderResult()
	case screenConfirm:
		body = m.renderConfirm()
	default:
		body = m.renderMain()
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return body + "\n\n" + footer
	}
	content := lipgloss.NewStyle().Width(m.contentWidth()).Render(body)
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	page := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return page + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 80
	}
	return max(int(float64(m.width)*0.70), 20)
}

func (m *Model) renderMain() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Finance quiz"))
	b.WriteString("\n\n")

	b.WriteString(m.sectionTitle("Weeks", m.focus == focusWeeks))
	b.WriteString("\n")
	for i, key := range m.weekKeys {
		week := m.bank.Week(key)
		mark := "[ ]"
		if m.selected[key] {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s (%d)", mark, week.Name, m.weekCounts[key])
		b.WriteString(m.cursorLine(line, m.focus == focusWeeks && i == m.weekCursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.sectionTitle("Mode", m.focus == focusModes))
	b.WriteString("\n")
	for i, mode := range model.Modes {
		b.WriteString(m.cursorLine(mode.Label(), m.focus == focusModes && i == m.modeCursor))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("space toggle week · A all weeks · tab switch · enter start · q quit"))
	return b.String()
}

func (m *Model) sectionTitle(title string, focused bool) string {
	if focused {
		return selectedStyle.Render("▸ " + title)
	}
	return mutedStyle.Render("  " + title)
}

func (m *Model) cursorLine(line string, active bool) string {
	if active {
		return selectedStyle.Render("> " + line)
	}
	return textStyle.Render("  " + line)
}

func (m *Model) renderQuiz() string {
	v := m.session.View()
	if v.Question == nil {
		return ""
	}
	width := m.contentWidth()
	q := v.Question

	var b strings.Builder
	header := fmt.Sprintf("%s · %s · %d/%d", v.Badge, m.bank.Week(q.Week).ShortName, v.Number, v.Total)
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(progressBar(v.Progress, min(width, 40)))
	b.WriteString("\n\n")

	tags := []string{mutedStyle.Render(q.Type.Label())}
	if v.PreviouslyWrong {
		tags = append(tags, warnStyle.Render("previously missed"))
	}
	b.WriteString(strings.Join(tags, "  "))
	b.WriteString("\n")
	b.WriteString(explain.Wrap(q.Text, width, textStyle))
	b.WriteString("\n\n")

	switch q.Type {
	case model.Boolean:
		b.WriteString(textStyle.Render("a) O    s) X"))
	case model.FreeText:
		b.WriteString(m.input.View())
	default:
		for i, opt := range v.Options {
			key := fmt.Sprint(i + 1)
			if i < len(optionKeys) {
				key = optionKeys[i]
			}
			b.WriteString(explain.Wrap(fmt.Sprintf("%s) %s", key, opt), width, textStyle))
			b.WriteString("\n")
		}
	}
	if m.waiting {
		b.WriteString("\n")
		b.WriteString(m.verdictLine())
	}
	return b.String()
}

func progressBar(fraction float64, width int) string {
	width = max(width, 10)
	filled := int(fraction*float64(width) + 0.5)
	filled = min(max(filled, 0), width)
	return selectedStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}

func (m *Model) verdictLine() string {
	fb := m.session.Feedback()
	switch {
	case fb == nil:
		return ""
	case fb.Correct:
		return correctStyle.Render("✓ Correct!")
	case fb.Skipped:
		return warnStyle.Render("→ Skipped")
	default:
		return wrongStyle.Render("✗ Wrong")
	}
}

func (m *Model) renderFeedback() string {
	fb := m.session.Feedback()
	if fb == nil {
		return ""
	}
	width := m.contentWidth()
	var b strings.Builder
	b.WriteString(m.verdictLine())
	b.WriteString("\n\n")
	b.WriteString(explain.Wrap(fb.Question.Text, width, mutedStyle))
	b.WriteString("\n\n")
	b.WriteString(explain.Wrap("Answer: "+fb.CorrectAnswer, width, correctStyle))
	b.WriteString("\n")
	if fb.UserAnswer != "" {
		b.WriteString(explain.Wrap("Your answer: "+fb.UserAnswer, width, wrongStyle))
		b.WriteString("\n")
	}
	if fb.Explanation != "" {
		b.WriteString("\n")
		b.WriteString(explain.Format(fb.Explanation, width, m.diagrams))
		b.WriteString("\n")
	}
	if fb.Tip != "" {
		b.WriteString("\n")
		b.WriteString(explain.Wrap("💡 "+fb.Tip, width, warnStyle))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	next := "enter next question"
	if fb.Last {
		next = "enter see results"
	}
	if m.session.Mode() == model.ModeInfinite {
		next += fmt.Sprintf(" · %d left", fb.Remaining)
	}
	b.WriteString(mutedStyle.Render(next + " · ↑/↓ scroll · esc main"))
	return b.String()
}

func (m *Model) renderResult() string {
	sum := m.session.Summary()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Session complete"))
	b.WriteString("\n\n")
	b.WriteString(textStyle.Render(fmt.Sprintf("%d / %d correct (%d%%)", sum.Correct, sum.Attempted, sum.Percent)))
	b.WriteString("\n")
	if sum.WrongCount > 0 {
		b.WriteString(wrongStyle.Render(fmt.Sprintf("%d missed", sum.WrongCount)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(selectedStyle.Render(sum.Message))
	b.WriteString("\n\n")
	hints := []string{}
	if sum.CanRetryWrong {
		hints = append(hints, "r retry missed")
	}
	hints = append(hints, "R retry all", "m main", "q quit")
	b.WriteString(mutedStyle.Render(strings.Join(hints, " · ")))
	return b.String()
}

func (m *Model) renderConfirm() string {
	return warnStyle.Render("Return to the main menu? Progress in this session is kept in your stats.") +
		"\n\n" + mutedStyle.Render("y yes · n no")
}

func (m *Model) renderFooter() string {
	segments := []string{
		fmt.Sprintf("All-time %d solved · %d%%", m.totals.TotalSolved, m.totals.Accuracy()),
	}
	if m.screen != screenMain {
		segments = append(segments, fmt.Sprintf("Session %d/%d", m.session.CorrectCount(), m.session.SolvedCount()))
	}
	if err := m.session.StoreErr(); err != nil {
		segments = append(segments, "stats not saved")
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
