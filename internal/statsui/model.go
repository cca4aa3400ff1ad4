// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/fermata/internal/learner"
	"github.com/verte-zerg/fermata/internal/model"
	"github.com/verte-zerg/fermata/internal/stats"
	"github.com/verte-zerg/fermata/internal/store"
)

const (
	tabOverview = iota
	tabItems
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
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store    *store.Store
	cfg      model.StatsConfig
	universe []string

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	itemTable table.Model

	width  int
	height int
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, cfg model.StatsConfig, universe []string) *Model {
	m := &Model{
		store:    st,
		cfg:      cfg,
		universe: universe,
		tabs:     []string{"Overview", "Items"},
		overview: viewport.New(0, 0),
	}
	m.itemTable = buildItemTable(nil, 0, 1)
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
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			m.renderOverview()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			m.renderOverview()
			return m, nil
		case "g", "home":
			if m.activeTab == tabItems {
				m.itemTable.GotoTop()
			} else {
				m.overview.GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabItems {
				m.itemTable.GotoBottom()
			} else {
				m.overview.GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabItems {
				var cmd tea.Cmd
				m.itemTable, cmd = m.itemTable.Update(msg)
				return m, cmd
			}
			var cmd tea.Cmd
			m.overview, cmd = m.overview.Update(msg)
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
	header := m.renderTabs() + "\n" + headerStyle.Render(m.renderFilterLine())
	var body string
	if m.activeTab == tabItems {
		body = m.itemTable.View()
	} else {
		body = m.overview.View()
	}
	footer := headerStyle.Render("h/l tabs · =/- curve window · q quit")
	if m.errMsg != "" {
		footer = errorStyle.Render(m.errMsg) + "\n" + footer
	}
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg, m.universe)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load stats: %v", err)
		return
	}
	m.errMsg = ""
	m.report = report
	m.itemTable = buildItemTable(report.Items, m.tableWidth(), m.tableHeight())
}

func (m *Model) updateLayout() {
	headerHeight := lipgloss.Height(activeNavStyle.Render("X")) + 1
	bodyHeight := m.height - headerHeight - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.itemTable = buildItemTable(m.report.Items, m.tableWidth(), m.tableHeight())
}

func (m *Model) tableWidth() int {
	if m.width > 0 {
		return m.width
	}
	return 60
}

func (m *Model) tableHeight() int {
	headerHeight := lipgloss.Height(activeNavStyle.Render("X")) + 1
	h := m.height - headerHeight - 2
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	if m.activeTab == tabItems {
		m.itemTable.Focus()
	} else {
		m.itemTable.Blur()
	}
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

func (m *Model) renderFilterLine() string {
	parts := []string{fmt.Sprintf("Mode %s", m.cfg.Mode)}
	if m.cfg.Since != nil {
		parts = append(parts, fmt.Sprintf("Since %s", m.cfg.Since.Format("2006-01-02")))
	}
	if m.cfg.Last > 0 {
		parts = append(parts, fmt.Sprintf("Last %d", m.cfg.Last))
	}
	parts = append(parts, fmt.Sprintf("Window %d", m.cfg.CurveWindow))
	return strings.Join(parts, " · ")
}

func (m *Model) renderOverview() {
	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, m.report.Rounds); err != nil {
		m.errMsg = fmt.Sprintf("failed to render summary: %v", err)
		return
	}
	fluent, practicing := 0, 0
	for _, stat := range m.report.Items {
		switch learner.Classify(stat) {
		case model.ClassFluent:
			fluent++
		case model.ClassPracticing:
			practicing++
		}
	}
	fmt.Fprintf(&buf, "Items: %d fluent, %d practicing, %d new\n\n",
		fluent, practicing, len(m.report.Items)-fluent-practicing)
	if len(m.report.Rounds) > 1 {
		accs := make([]float64, len(m.report.Rounds))
		for i, r := range m.report.Rounds {
			accs[i], _ = stats.RoundMetrics(r.Correct, r.Incorrect, r.DurationMs)
		}
		fmt.Fprintf(&buf, "Accuracy trend: %s\n\n", stats.Sparkline(accs))
	}
	if err := stats.RenderCurvesWithSize(&buf, m.report.Rounds, m.cfg.CurveWindow, m.width, 10); err != nil {
		m.errMsg = fmt.Sprintf("failed to render curves: %v", err)
		return
	}
	m.overview.SetContent(buf.String())
}

func buildItemTable(items []model.ItemStat, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Item", Width: 14},
		{Title: "Automaticity", Width: 12},
		{Title: "Class", Width: 10},
		{Title: "Trials", Width: 6},
	}
	if width > 50 {
		columns[0].Width = width - 36
	}
	rows := make([]table.Row, 0, len(items))
	for _, stat := range sortedByAutomaticity(items) {
		rows = append(rows, table.Row{
			stat.Item,
			fmt.Sprintf("%.2f", stat.Automaticity),
			string(learner.Classify(stat)),
			fmt.Sprintf("%d", stat.TrialCount),
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(height),
	)
	return t
}

func sortedByAutomaticity(items []model.ItemStat) []model.ItemStat {
	sorted := make([]model.ItemStat, len(items))
	copy(sorted, items)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0; j-- {
			a, b := sorted[j-1], sorted[j]
			if a.Automaticity < b.Automaticity || (a.Automaticity == b.Automaticity && a.Item < b.Item) {
				break
			}
			sorted[j-1], sorted[j] = b, a
		}
	}
	return sorted
}

func nextCurveWindow(window int) int {
	switch {
	case window < 5:
		return 5
	case window < 10:
		return 10
	case window < 20:
		return 20
	default:
		return 50
	}
}

func prevCurveWindow(window int) int {
	switch {
	case window > 20:
		return 20
	case window > 10:
		return 10
	case window > 5:
		return 5
	default:
		return 1
	}
}
