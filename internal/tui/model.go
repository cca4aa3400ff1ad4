// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/fermata/internal/model"
	"github.com/verte-zerg/fermata/internal/quiz"
	"github.com/verte-zerg/fermata/internal/recommend"
	"github.com/verte-zerg/fermata/internal/store"
	"github.com/verte-zerg/fermata/internal/theory"
)

const tickInterval = 200 * time.Millisecond

type tickMsg time.Time

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7BC96F"))
	wrongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

// Model implements the Bubble Tea practice UI on top of the quiz engine.
type Model struct {
	mode   *theory.Mode
	engine *quiz.Engine
	st     *store.Store
	cfg    model.Config
	rnd    *rand.Rand

	width  int
	height int

	input textinput.Model

	// Calibration stimulus scheduling: the prompt appears after a
	// random delay so the learner cannot anticipate it.
	stimulusAt      time.Time
	stimulusVisible bool

	rec       *recommend.Result
	statusMsg string
}

// NewModel constructs the practice TUI model.
func NewModel(mode *theory.Mode, engine *quiz.Engine, st *store.Store, cfg model.Config) *Model {
	input := textinput.New()
	input.Placeholder = "answer"
	input.CharLimit = 32
	input.Width = 24
	return &Model{
		mode:   mode,
		engine: engine,
		st:     st,
		cfg:    cfg,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		input:  input,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		m.handleTick()
		return m, tickCmd()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleTick() {
	if err := m.engine.Tick(); err != nil {
		m.statusMsg = err.Error()
	}
	snap := m.engine.State()
	if snap.Phase == quiz.PhaseCalibrating && !m.stimulusVisible && !m.stimulusAt.IsZero() && !time.Now().Before(m.stimulusAt) {
		m.stimulusVisible = true
		m.engine.BeginCalibrationPrompt()
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	switch m.engine.State().Phase {
	case quiz.PhaseIdle:
		return m.handleIdleKey(msg)
	case quiz.PhaseCalibrating:
		return m.handleCalibrationKey(msg)
	case quiz.PhaseActive:
		return m.handleActiveKey(msg)
	case quiz.PhaseRoundComplete:
		return m.handleCompleteKey(msg)
	}
	return m, nil
}

func (m *Model) handleIdleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "enter":
		m.statusMsg = ""
		m.rec = nil
		if err := m.engine.Start(); err != nil {
			m.statusMsg = err.Error()
			return m, nil
		}
		m.prepareForPhase()
		return m, nil
	case "r":
		rec := m.engine.ComputeRecommendation()
		m.rec = &rec
		if rec.Enabled == nil {
			m.statusMsg = fmt.Sprintf("%.0f%% fluent; keep practicing the current groups", rec.FluentRatio*100)
		} else {
			m.statusMsg = rec.Reason + "  (press a to apply)"
		}
		return m, nil
	case "a":
		if m.rec != nil && m.rec.Enabled != nil {
			if err := m.engine.ApplyRecommendation(*m.rec); err != nil {
				m.statusMsg = err.Error()
				return m, nil
			}
			m.saveScope()
			m.statusMsg = fmt.Sprintf("enabled %q", m.rec.NextGroup.Label)
			m.rec = nil
		}
		return m, nil
	default:
		if idx, ok := groupKeyIndex(msg.String()); ok {
			m.toggleGroup(idx)
		}
		return m, nil
	}
}

func groupKeyIndex(key string) (int, bool) {
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return int(key[0] - '1'), true
	}
	return 0, false
}

func (m *Model) toggleGroup(idx int) {
	groups := m.mode.Groups()
	if idx >= len(groups) {
		return
	}
	enabled := m.engine.EnabledGroups()
	next := make([]int, 0, len(enabled)+1)
	found := false
	for _, g := range enabled {
		if g == idx {
			found = true
			continue
		}
		next = append(next, g)
	}
	if !found {
		next = append(next, idx)
	}
	if err := m.engine.SetEnabledGroups(next); err != nil {
		m.statusMsg = err.Error()
	} else {
		m.statusMsg = ""
	}
	m.saveScope()
}

func (m *Model) saveScope() {
	if err := m.st.SaveScope(context.Background(), m.mode.Name, m.engine.EnabledGroups()); err != nil {
		logErrf("failed to save scope: %v\n", err)
	}
}

func (m *Model) handleCalibrationKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.engine.Stop()
		m.statusMsg = "calibration cancelled"
		return m, nil
	case tea.KeySpace:
		if !m.stimulusVisible {
			// False start: reschedule without recording.
			m.scheduleStimulus()
			return m, nil
		}
		if err := m.engine.SubmitAnswer(""); err != nil {
			m.statusMsg = err.Error() + "; press enter to retry"
			return m, nil
		}
		m.prepareForPhase()
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleActiveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.engine.Stop()
		return m, nil
	case tea.KeyEnter:
		answer := strings.TrimSpace(m.input.Value())
		if answer == "" {
			return m, nil
		}
		m.input.Reset()
		if err := m.engine.SubmitAnswer(answer); err != nil {
			m.statusMsg = err.Error()
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleCompleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if err := m.engine.Continue(); err != nil {
			m.statusMsg = err.Error()
			return m, nil
		}
		m.prepareForPhase()
		return m, nil
	case "esc":
		m.engine.Stop()
		return m, nil
	case "q":
		return m, tea.Quit
	default:
		return m, nil
	}
}

// prepareForPhase sets up UI state after an engine phase change.
func (m *Model) prepareForPhase() {
	switch m.engine.State().Phase {
	case quiz.PhaseCalibrating:
		m.scheduleStimulus()
	case quiz.PhaseActive:
		m.input.Reset()
		m.input.Focus()
	}
}

func (m *Model) scheduleStimulus() {
	m.stimulusVisible = false
	delay := 500*time.Millisecond + time.Duration(m.rnd.Intn(1000))*time.Millisecond
	m.stimulusAt = time.Now().Add(delay)
}

// View implements tea.Model.
func (m *Model) View() string {
	snap := m.engine.State()
	var content string
	switch snap.Phase {
	case quiz.PhaseIdle:
		content = m.viewIdle(snap)
	case quiz.PhaseCalibrating:
		content = m.viewCalibrating(snap)
	case quiz.PhaseActive:
		content = m.viewActive(snap)
	case quiz.PhaseRoundComplete:
		content = m.viewComplete(snap)
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) viewIdle(snap quiz.Snapshot) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.mode.Title) + "\n\n")
	enabled := map[int]struct{}{}
	for _, idx := range m.engine.EnabledGroups() {
		enabled[idx] = struct{}{}
	}
	for i, g := range m.mode.Groups() {
		marker := "[ ]"
		if _, ok := enabled[g.Index]; ok {
			marker = accentStyle.Render("[x]")
		}
		b.WriteString(fmt.Sprintf("%d %s %s\n", i+1, marker, g.Label))
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d/%d fluent in scope", snap.MasteredCount, snap.TotalEnabled)) + "\n")
	if m.statusMsg != "" {
		b.WriteString(warnStyle.Render(m.statusMsg) + "\n")
	}
	b.WriteString("\n" + footerStyle.Render("enter start · 1-9 toggle group · r recommend · q quit"))
	return b.String()
}

func (m *Model) viewCalibrating(snap quiz.Snapshot) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Calibration") + "\n\n")
	b.WriteString(mutedStyle.Render("Press space as soon as the signal appears.") + "\n\n")
	if m.stimulusVisible {
		b.WriteString(correctStyle.Render("*** PRESS SPACE ***") + "\n")
	} else {
		b.WriteString(mutedStyle.Render("wait...") + "\n")
	}
	b.WriteString("\n" + footerStyle.Render(fmt.Sprintf("%d/%d · esc cancel", snap.CalibrationDone, snap.CalibrationTotal)))
	return b.String()
}

func (m *Model) viewActive(snap quiz.Snapshot) string {
	var b strings.Builder
	width := 48
	if m.width > 0 {
		width = int(float64(m.width) * 0.7)
		if width < 20 {
			width = 20
		}
	}
	b.WriteString(accentStyle.Render(fmt.Sprintf("%2ds", int(snap.TimeRemaining.Seconds()))) + "\n\n")
	b.WriteString(questionStyle.Render(wrapText(snap.Question, width)) + "\n\n")
	b.WriteString(m.input.View() + "\n\n")
	if fb := snap.LastFeedback; fb != nil {
		if fb.Correct {
			b.WriteString(correctStyle.Render("✓ correct") + "\n")
		} else {
			b.WriteString(wrongStyle.Render(fmt.Sprintf("✗ %s", fb.Expected)) + "\n")
		}
		if fb.Warning != "" {
			b.WriteString(warnStyle.Render("save failed; progress kept in memory") + "\n")
		}
	}
	b.WriteString("\n" + footerStyle.Render(fmt.Sprintf("%d/%d fluent · esc stop", snap.MasteredCount, snap.TotalEnabled)))
	return b.String()
}

func (m *Model) viewComplete(snap quiz.Snapshot) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Round complete") + "\n\n")
	if s := snap.Summary; s != nil {
		total := s.Correct + s.Incorrect
		acc := 0.0
		if total > 0 {
			acc = float64(s.Correct) / float64(total) * 100
		}
		b.WriteString(fmt.Sprintf("Answered: %d  Correct: %d (%.0f%%)\n", total, s.Correct, acc))
		b.WriteString(fmt.Sprintf("Median response: %d ms\n", s.MedianLatencyMs))
		if len(s.NewlyFluent) > 0 {
			b.WriteString(correctStyle.Render("Newly fluent: "+strings.Join(s.NewlyFluent, ", ")) + "\n")
		}
	}
	if weak := m.engine.WeakestItems(3); len(weak) > 0 {
		b.WriteString(mutedStyle.Render("Focus next: "+strings.Join(weak, ", ")) + "\n")
	}
	if m.statusMsg != "" {
		b.WriteString(warnStyle.Render(m.statusMsg) + "\n")
	}
	b.WriteString("\n" + footerStyle.Render("enter next round · esc done · q quit"))
	return b.String()
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
