// Package tui provides the Bubble Tea timer interface.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tomato/internal/clock"
	"github.com/verte-zerg/tomato/internal/model"
	"github.com/verte-zerg/tomato/internal/pomodoro"
)

const (
	workColor  = lipgloss.Color("#E74C3C")
	breakColor = lipgloss.Color("#27AE60")
	todayColor = lipgloss.Color("#3498DB")
	mutedColor = lipgloss.Color("#7F8C8D")

	maxProgressWidth = 48
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	clockStyle  = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 3).
			Border(lipgloss.RoundedBorder(), true)
	cardStyle = lipgloss.NewStyle().
			Width(20).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true)
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

var usageLines = []string{
	"Work for 25 minutes with full focus",
	"Take a 5-minute break",
	"Repeat the cycle",
	"After 4 work sessions, take a longer break (15-30 min)",
}

// tickMsg carries a fired wake into the update loop.
type tickMsg clock.Wake

// Model implements the Bubble Tea timer UI.
type Model struct {
	timer    *pomodoro.Timer
	keys     KeyMap
	help     help.Model
	progress progress.Model

	width  int
	height int

	confirmReset bool
	notice       string
}

// NewModel constructs a timer TUI model.
func NewModel(timer *pomodoro.Timer) *Model {
	return &Model{
		timer:    timer,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithSolidFill(string(workColor)), progress.WithoutPercentage(), progress.WithWidth(maxProgressWidth)),
	}
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
		m.help.Width = msg.Width
		m.progress.Width = minInt(maxProgressWidth, maxInt(10, msg.Width-4))
		return m, nil
	case tickMsg:
		tr, next := m.timer.Tick(clock.Wake(msg))
		if tr != nil {
			m.notice = transitionNotice(*tr)
		}
		return m, waitCmd(next)
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}
	if m.confirmReset {
		m.confirmReset = false
		if strings.EqualFold(msg.String(), "y") {
			m.timer.ResetStats()
			m.notice = "All stats cleared."
		} else {
			m.notice = ""
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Toggle):
		m.notice = ""
		return m, waitCmd(m.timer.Toggle())
	case key.Matches(msg, m.keys.Reset):
		m.notice = ""
		m.timer.Reset()
	case key.Matches(msg, m.keys.Switch):
		m.notice = transitionNotice(m.timer.SwitchPhase())
	case key.Matches(msg, m.keys.ResetStats):
		m.confirmReset = true
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.timer.Stop()
	return m, tea.Quit
}

// View implements tea.Model.
func (m *Model) View() string {
	state := m.timer.State()
	color := phaseColor(state.Phase)

	sections := []string{
		titleStyle.Render("Focus Timer"),
		"",
		lipgloss.NewStyle().Bold(true).Foreground(color).Render(phaseLabel(state.Phase)),
		clockStyle.Foreground(color).BorderForeground(color).Render(formatTime(state.Remaining)),
		m.progress.ViewAs(elapsedFraction(state)),
		mutedStyle.Render(statusLabel(state)),
		"",
		m.renderCards(),
		mutedStyle.Render(currentHint(state.Phase)),
		m.renderNotice(),
		"",
		m.renderUsage(),
		"",
		m.help.View(m.keys),
	}
	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderCards() string {
	counts := m.timer.Counters()
	return lipgloss.JoinHorizontal(lipgloss.Top,
		renderCard("Current Session", counts.CurrentCycle, "Work sessions completed", workColor),
		renderCard("Today", counts.Today, "Sessions today", todayColor),
		renderCard("All Time", counts.AllTime, "Total sessions", breakColor),
	)
}

func renderCard(title string, value int, caption string, accent lipgloss.Color) string {
	body := strings.Join([]string{
		lipgloss.NewStyle().Foreground(accent).Render(title),
		cardValueStyle.Render(strconv.Itoa(value)),
		mutedStyle.Render(caption),
	}, "\n")
	return cardStyle.BorderForeground(accent).Render(body)
}

func (m *Model) renderNotice() string {
	if m.confirmReset {
		return noticeStyle.Render("Reset all stats? This cannot be undone. (y/n)")
	}
	return noticeStyle.Render(m.notice)
}

func (m *Model) renderUsage() string {
	lines := make([]string, 0, len(usageLines)+1)
	lines = append(lines, "How to use Focus Timer:")
	for _, line := range usageLines {
		lines = append(lines, "  - "+line)
	}
	return mutedStyle.Render(strings.Join(lines, "\n"))
}

// waitCmd turns a pending wake into a command that reports it as tickMsg.
func waitCmd(wait clock.Wait) tea.Cmd {
	if wait == nil {
		return nil
	}
	return func() tea.Msg {
		wake, ok := wait()
		if !ok {
			return nil
		}
		return tickMsg(wake)
	}
}

func formatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func elapsedFraction(state model.TimerState) float64 {
	total := state.Phase.Seconds()
	if total <= 0 {
		return 0
	}
	return float64(total-state.Remaining) / float64(total)
}

func phaseLabel(p model.Phase) string {
	if p == model.PhaseBreak {
		return "Break Time"
	}
	return "Work Session"
}

func phaseColor(p model.Phase) lipgloss.Color {
	if p == model.PhaseBreak {
		return breakColor
	}
	return workColor
}

func statusLabel(state model.TimerState) string {
	if state.Running {
		return "running"
	}
	return "paused"
}

func currentHint(p model.Phase) string {
	if p == model.PhaseBreak {
		return "Current: 5 min break"
	}
	return "Current: 25 min work session"
}

func transitionNotice(tr pomodoro.Transition) string {
	switch {
	case tr.Counted && tr.Trigger == model.TriggerExpiry:
		return "Work session complete. Time for a break."
	case tr.Counted:
		return "Work session counted. Enjoy the break."
	case tr.Trigger == model.TriggerExpiry:
		return "Break is over. Back to work."
	default:
		return "Switched to work."
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
