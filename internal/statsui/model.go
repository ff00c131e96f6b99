// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/finquiz/internal/bank"
	"github.com/verte-zerg/finquiz/internal/model"
	"github.com/verte-zerg/finquiz/internal/stats"
	"github.com/verte-zerg/finquiz/internal/store"
)

const (
	tabOverview = iota
	tabWeeks
	tabMissed
	tabSessions
)

const (
	fieldMode = iota
	fieldSince
	fieldLast
	fieldMissedTop
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store store.Backend
	bank  *bank.Bank
	cfg   model.StatsConfig

	report stats.Report
	errMsg string

	tabs        []string
	activeTab   int
	viewports   map[int]*viewport.Model
	weekTable   table.Model
	missedTable table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a stats UI model.
func NewModel(st store.Backend, b *bank.Bank, cfg model.StatsConfig) *Model {
	m := &Model{
		store: st,
		bank:  b,
		cfg:   cfg,
		tabs:  []string{"Overview", "Weeks", "Missed", "Sessions"},
	}
	m.initInputs()
	m.viewports = map[int]*viewport.Model{}
	for _, tab := range []int{tabOverview, tabSessions} {
		vp := viewport.New(0, 0)
		m.viewports[tab] = &vp
	}
	m.weekTable = newTable()
	m.missedTable = newTable()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h", "shift+tab":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			return m.startFilter()
		case "g", "home":
			if t := m.activeTable(); t != nil {
				t.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if t := m.activeTable(); t != nil {
				t.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if t := m.activeTable(); t != nil {
				*t, cmd = t.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			*vp, cmd = vp.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) activeTable() *table.Model {
	switch m.activeTab {
	case tabWeeks:
		return &m.weekTable
	case tabMissed:
		return &m.missedTable
	default:
		return nil
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Mode (weekly/review/infinite): "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last sessions: "),
		newFilterInput("Missed top: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func newTable() table.Model {
	t := table.New(table.WithFocused(true), table.WithHeight(1))
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[fieldMode].SetValue(m.cfg.Mode)
	if m.cfg.Since != nil {
		m.filterInputs[fieldSince].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[fieldSince].SetValue("")
	}
	m.filterInputs[fieldLast].SetValue(positiveOrEmpty(m.cfg.Last))
	m.filterInputs[fieldMissedTop].SetValue(positiveOrEmpty(m.cfg.MissedTop))
}

func positiveOrEmpty(n int) string {
	if n > 0 {
		return strconv.Itoa(n)
	}
	return ""
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for _, vp := range m.viewports {
		vp.Width = m.width
		vp.Height = bodyHeight
	}
	for _, t := range []*table.Model{&m.weekTable, &m.missedTable} {
		t.SetWidth(m.width)
		t.SetHeight(max(bodyHeight-1, 1))
	}
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	mode := m.cfg.Mode
	if mode == "" {
		mode = "any"
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Settings: mode=%s  since=%s  last=%s  missed-top=%s", mode, since, last, positiveOrAll(m.cfg.MissedTop))
	return headerStyle.Render(truncateLine(summary, m.width))
}

func positiveOrAll(n int) string {
	if n > 0 {
		return strconv.Itoa(n)
	}
	return "all"
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Settings: /  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	switch m.activeTab {
	case tabWeeks:
		return fitLines(tableMutedStyle.Render(m.weekTable.View()), m.width, height)
	case tabMissed:
		if len(m.report.Missed) == 0 {
			return fitLines("No missed questions.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.missedTable.View()), m.width, height)
	default:
		return fitLines(m.viewports[m.activeTab].View(), m.width, height)
	}
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.bank, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for _, vp := range m.viewports {
			vp.SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report

	headers, rows := stats.WeekTable(report.Weeks)
	applyTable(&m.weekTable, headers, rows)
	headers, rows = stats.MissedTable(report.Missed, 48)
	applyTable(&m.missedTable, headers, rows)
	m.renderTabContents()
}

func applyTable(t *table.Model, headers []string, rows [][]string) {
	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		width := runewidth.StringWidth(h)
		for _, row := range rows {
			if i < len(row) {
				width = max(width, runewidth.StringWidth(row[i]))
			}
		}
		cols[i] = table.Column{Title: h, Width: width + 1}
	}
	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}
	t.SetRows(nil)
	t.SetColumns(cols)
	t.SetRows(tableRows)
	t.GotoTop()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, width))
	m.viewports[tabSessions].SetContent(renderSessions(m.report.Sessions))
}

func renderOverview(r stats.Report, width int) string {
	cards := []string{
		metricCard("Answered", strconv.Itoa(r.Totals.TotalSolved)),
		metricCard("Correct", strconv.Itoa(r.Totals.TotalCorrect)),
		metricCard("Accuracy", fmt.Sprintf("%d%%", r.Totals.Accuracy())),
		metricCard("Seen", strconv.Itoa(r.Seen)),
		metricCard("Sessions", strconv.Itoa(len(r.Sessions))),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	if len(r.Sessions) == 0 {
		return summary + "\n\nNo sessions found."
	}
	counts := stats.ModeCounts(r.Sessions)
	modes := make([]string, 0, len(model.Modes))
	for _, mode := range model.Modes {
		modes = append(modes, fmt.Sprintf("%s %d", mode.Badge(), counts[mode]))
	}
	trend := stats.Sparkline(stats.MovingAverage(stats.SessionAccuracies(r.Sessions), stats.TrendWindow))
	lines := []string{
		summary,
		"",
		cardTitleStyle.Render("Sessions by mode: ") + strings.Join(modes, "  "),
		cardTitleStyle.Render("Accuracy trend:   ") + truncateLine(trend, max(width-18, 10)),
	}
	return strings.Join(lines, "\n")
}

func renderSessions(sessions []model.SessionRecord) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}
	var b strings.Builder
	if err := stats.RenderSessions(&b, sessions); err != nil {
		return fmt.Sprintf("Failed to render sessions: %v", err)
	}
	return strings.TrimRight(b.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	mode := strings.TrimSpace(m.filterInputs[fieldMode].Value())
	if mode != "" {
		if _, ok := model.ParseMode(mode); !ok {
			return fmt.Errorf("invalid mode (use weekly, review or infinite)")
		}
	}

	sinceInput := strings.TrimSpace(m.filterInputs[fieldSince].Value())
	var since *time.Time
	if sinceInput != "" {
		parsed, err := time.ParseInLocation("2006-01-02", sinceInput, time.Local)
		if err != nil {
			return fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		since = &parsed
	}

	last, err := parseCount(m.filterInputs[fieldLast].Value())
	if err != nil {
		return fmt.Errorf("invalid last value (use 0 or positive integer)")
	}
	top, err := parseCount(m.filterInputs[fieldMissedTop].Value())
	if err != nil {
		return fmt.Errorf("invalid missed top (use 0 or positive integer)")
	}

	m.cfg = model.StatsConfig{
		Mode:      mode,
		Since:     since,
		Last:      last,
		MissedTop: top,
	}
	return nil
}

func parseCount(input string) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid count %q", input)
	}
	return n, nil
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
