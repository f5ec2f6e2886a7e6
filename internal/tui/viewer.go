// Package tui is an interactive terminal viewer that scrubs through the
// time grid of a set of scenarios.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/triadsim/internal/power"
	"github.com/san-kum/triadsim/internal/triad"
	"github.com/san-kum/triadsim/internal/viz"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

var stateLabels = [triad.StateDim]string{"x1", "x2", "x3", "d"}

type tickMsg time.Time

func tick(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the bubbletea model of the viewer.
type Model struct {
	title    string
	views    []viz.ScenarioView
	samples  int
	index    int
	selected int
	playing  bool
	interval time.Duration

	width  int
	height int
}

// New builds a viewer over views. Views are expected to share one time
// grid; the shortest one bounds the scrub range.
func New(title string, views []viz.ScenarioView) Model {
	samples := 0
	for i, v := range views {
		if i == 0 || len(v.Times) < samples {
			samples = len(v.Times)
		}
	}
	return Model{
		title:    title,
		views:    views,
		samples:  samples,
		interval: 40 * time.Millisecond,
		width:    80,
		height:   24,
	}
}

func (m Model) Index() int    { return m.index }
func (m Model) Selected() int { return m.selected }
func (m Model) Playing() bool { return m.playing }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.playing {
			return m, nil
		}
		if m.index >= m.samples-1 {
			m.playing = false
			return m, nil
		}
		m.index++
		return m, tick(m.interval)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	jump := max(m.samples/10, 1)
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "right", "l":
		m.seek(m.index + 1)
	case "left", "h":
		m.seek(m.index - 1)
	case "pgdown", "L":
		m.seek(m.index + jump)
	case "pgup", "H":
		m.seek(m.index - jump)
	case "home", "g":
		m.seek(0)
	case "end", "G":
		m.seek(m.samples - 1)
	case "down", "j", "tab":
		if len(m.views) > 0 {
			m.selected = (m.selected + 1) % len(m.views)
		}
	case "up", "k", "shift+tab":
		if len(m.views) > 0 {
			m.selected = (m.selected + len(m.views) - 1) % len(m.views)
		}
	case " ":
		m.playing = !m.playing
		if m.playing {
			if m.index >= m.samples-1 {
				m.index = 0
			}
			return m, tick(m.interval)
		}
	}
	return m, nil
}

func (m *Model) seek(i int) {
	if m.samples == 0 {
		m.index = 0
		return
	}
	m.index = min(max(i, 0), m.samples-1)
}

func (m Model) View() string {
	if len(m.views) == 0 || m.samples == 0 {
		return dim.Render("no scenario data") + "\n\n" + dim.Render("q quit") + "\n"
	}

	var b strings.Builder
	t := m.views[0].Times[m.index]
	status := yellow.Render("paused")
	if m.playing {
		status = green.Render("playing")
	}
	fmt.Fprintf(&b, "%s  %s  %s\n\n",
		cyan.Bold(true).Render(m.title),
		white.Render(fmt.Sprintf("t = %7.3f", t)),
		status,
	)

	barWidth := max(min(m.width-50, 30), 10)
	for i, v := range m.views {
		b.WriteString(m.row(i, v, barWidth))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.detail(m.views[m.selected], barWidth))
	b.WriteString("\n")
	b.WriteString(m.timeline(m.views[m.selected]))
	b.WriteString("\n\n")
	b.WriteString(dim.Render("←/→ step  H/L jump  g/G ends  ↑/↓ scenario  space play  q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) row(i int, v viz.ScenarioView, barWidth int) string {
	marker := "  "
	name := white.Render(fmt.Sprintf("%-10s", v.Name))
	if i == m.selected {
		marker = magenta.Render("▶ ")
		name = magenta.Bold(true).Render(fmt.Sprintf("%-10s", v.Name))
	}

	c := at(v.CoherenceCurve, m.index)
	p := at(v.Power, m.index)
	return fmt.Sprintf("%s%s %s %s  %s",
		marker, name,
		bar(c, barWidth),
		cyan.Render(fmt.Sprintf("%5.1f%%", 100*c)),
		white.Render(power.Format(p)),
	)
}

func (m Model) detail(v viz.ScenarioView, barWidth int) string {
	var b strings.Builder
	b.WriteString(dim.Render(v.Name+" state") + "\n")
	if m.index >= len(v.States) {
		return b.String()
	}
	s := v.States[m.index]
	for i, label := range stateLabels {
		if i >= len(s) {
			break
		}
		fmt.Fprintf(&b, "  %-3s %s %s\n", label, bar(s[i], barWidth), white.Render(fmt.Sprintf("%.4f", s[i])))
	}
	return strings.TrimRight(b.String(), "\n")
}

// timeline is the coherence sparkline of v with a cursor under the
// current sample and ticks under nudge starts.
func (m Model) timeline(v viz.ScenarioView) string {
	w := max(min(m.width-4, 72), 10)
	spark := viz.Sparkline(v.CoherenceCurve, w, 0, 1)

	marks := []rune(strings.Repeat(" ", w))
	t0, t1 := v.Times[0], v.Times[len(v.Times)-1]
	col := func(t float64) int {
		if t1 <= t0 {
			return 0
		}
		return min(max(int((t-t0)/(t1-t0)*float64(w-1)+0.5), 0), w-1)
	}
	for _, s := range v.Starts {
		marks[col(s)] = '╵'
	}
	marks[col(v.Times[m.index])] = '▲'

	return "  " + green.Render(spark) + "\n  " + yellow.Render(string(marks))
}

func bar(v float64, width int) string {
	filled := min(max(int(v*float64(width)+0.5), 0), width)
	return green.Render(strings.Repeat("█", filled)) + dim.Render(strings.Repeat("░", width-filled))
}

func at(xs []float64, i int) float64 {
	if i < 0 || i >= len(xs) {
		return 0
	}
	return xs[i]
}

// Run starts the viewer in the alternate screen and blocks until it quits.
func Run(title string, views []viz.ScenarioView) error {
	p := tea.NewProgram(New(title, views), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
