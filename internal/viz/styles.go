package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles is the set of lipgloss styles derived from a Theme.
type Styles struct {
	Panel       lipgloss.Style
	Title       lipgloss.Style
	Header      lipgloss.Style
	Subtle      lipgloss.Style
	MetricLabel lipgloss.Style
	MetricValue lipgloss.Style
	Good        lipgloss.Style
	Warn        lipgloss.Style
	Bad         lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		Subtle:      lipgloss.NewStyle().Foreground(t.Muted),
		MetricLabel: lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		MetricValue: lipgloss.NewStyle().Foreground(t.Secondary).Bold(true),
		Good:        lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Warn:        lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Bad:         lipgloss.NewStyle().Bold(true).Foreground(t.Error),
	}
}

// ProgressBar renders a fraction in [0, 1] as a bar colored by level.
func (s Styles) ProgressBar(fraction float64, width int) string {
	filled := int(fraction*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case fraction > 0.8:
		return s.Good.Render(bar)
	case fraction > 0.4:
		return s.Warn.Render(bar)
	default:
		return s.Bad.Render(bar)
	}
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values resampled to width on a fixed [lo, hi] scale.
func Sparkline(values []float64, width int, lo, hi float64) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	rng := hi - lo
	if rng <= 0 {
		rng = 1
	}

	var sb strings.Builder
	for i := 0; i < width; i++ {
		idx := i * (len(values) - 1) / max(width-1, 1)
		norm := (values[idx] - lo) / rng
		c := int(norm * float64(len(sparkChars)-1))
		c = min(max(c, 0), len(sparkChars)-1)
		sb.WriteRune(sparkChars[c])
	}
	return sb.String()
}

// Separator is a muted horizontal rule with a centered diamond.
func (s Styles) Separator(width int) string {
	if width < 8 {
		return s.Subtle.Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return s.Subtle.Render(left + " ◆ " + right)
}
