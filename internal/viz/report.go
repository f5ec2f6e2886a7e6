package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/triadsim/internal/analysis"
	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/power"
	"github.com/san-kum/triadsim/internal/scenario"
	"github.com/san-kum/triadsim/internal/storage"
	"github.com/san-kum/triadsim/internal/triad"
)

// ScenarioView is what the console report needs to know about one
// scenario, whether it was just run or loaded from disk.
type ScenarioView struct {
	Name            string
	Description     string
	Mode            string
	Starts          []float64
	Final           []float64
	Coherence       float64
	Dwelling        float64
	FinalPower      float64
	Regime          string
	Late            []float64
	TimeToCoherence float64
	Steps           int

	Times          []float64
	States         []dynamo.State
	CoherenceCurve []float64
	DwellingCurve  []float64
	Power          []float64
}

// LateSynergy is the late-stage x2·x3 product, or 0 when unknown.
func (v ScenarioView) LateSynergy() float64 {
	if len(v.Late) < triad.StateDim {
		return 0
	}
	return v.Late[triad.IdxX2] * v.Late[triad.IdxX3]
}

// Trajectory pairs the view's times and states.
func (v ScenarioView) Trajectory() dynamo.Trajectory {
	return dynamo.Trajectory{Times: v.Times, States: v.States}
}

func ViewsFromReport(r *scenario.Report) []ScenarioView {
	views := make([]ScenarioView, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		ttc, ok := o.Metrics["time_to_coherence"]
		if !ok {
			ttc = -1
		}
		sched, _ := o.Scenario.Schedule()
		views = append(views, ScenarioView{
			Name:            o.Name(),
			Description:     o.Scenario.Description,
			Mode:            o.Scenario.Mode.String(),
			Starts:          sched.Starts(),
			Final:           o.Final,
			Coherence:       o.Coherence,
			Dwelling:        o.Dwelling,
			FinalPower:      o.FinalPower,
			Regime:          o.Regime.String(),
			Late:            o.Late,
			TimeToCoherence: ttc,
			Steps:           o.Steps,
			Times:           o.Trajectory.Times,
			States:          o.Trajectory.States,
			CoherenceCurve:  o.CoherenceSeries(),
			DwellingCurve:   o.DwellingSeries(),
			Power:           o.Power,
		})
	}
	return views
}

// ViewsFromRun rebuilds views from stored metadata. series may be missing
// entries, in which case those views carry no curves.
func ViewsFromRun(meta *storage.RunMetadata, series map[string]*storage.Series) []ScenarioView {
	views := make([]ScenarioView, 0, len(meta.Scenarios))
	for _, sc := range meta.Scenarios {
		ttc, ok := sc.Metrics["time_to_coherence"]
		if !ok {
			ttc = -1
		}
		sched, _ := triad.NewSchedule(sc.Nudges...)
		v := ScenarioView{
			Name:            sc.Name,
			Description:     sc.Description,
			Mode:            sc.Power,
			Starts:          sched.Starts(),
			Final:           sc.FinalState,
			Coherence:       sc.FinalCoherence,
			Dwelling:        sc.FinalDwelling,
			FinalPower:      sc.FinalPower,
			Regime:          sc.Regime,
			Late:            sc.Late,
			TimeToCoherence: ttc,
			Steps:           sc.Steps,
		}
		if s, ok := series[sc.Name]; ok && s != nil {
			tr := s.Trajectory()
			v.Times = s.Times
			v.States = s.States
			v.CoherenceCurve = tr.Map(triad.Coherence)
			v.DwellingCurve = tr.Component(triad.IdxDwelling)
			v.Power = s.Power
		}
		views = append(views, v)
	}
	return views
}

// Renderer formats scenario views for the terminal.
type Renderer struct {
	styles Styles
	width  int
}

func NewRenderer(t Theme, width int) *Renderer {
	if width < 40 {
		width = 40
	}
	return &Renderer{styles: NewStyles(t), width: width}
}

// Report renders a title, one panel per scenario, the insights block and
// any failures.
func (r *Renderer) Report(title string, views []ScenarioView, failed []storage.FailedScenario) string {
	s := r.styles
	var b strings.Builder

	b.WriteString(s.Header.Render(title))
	b.WriteString("\n\n")

	for _, v := range views {
		b.WriteString(r.Panel(v))
		b.WriteString("\n")
	}

	if lines := Insights(views); len(lines) > 0 {
		b.WriteString(s.Title.Render("insights"))
		b.WriteString("\n")
		for _, l := range lines {
			b.WriteString("  • " + l + "\n")
		}
	}

	if len(failed) > 0 {
		b.WriteString("\n" + s.Bad.Render("failed") + "\n")
		for _, f := range failed {
			fmt.Fprintf(&b, "  %s: %s\n", f.Name, f.Error)
		}
	}
	return b.String()
}

// Panel renders one scenario's summary box.
func (r *Renderer) Panel(v ScenarioView) string {
	s := r.styles
	inner := r.width - 4
	barWidth := min(30, inner-22)

	var b strings.Builder
	title := s.Title.Render(v.Name)
	if v.Description != "" {
		title += s.Subtle.Render("  " + v.Description)
	}
	b.WriteString(title + "\n")

	row := func(label, value string) {
		b.WriteString(s.MetricLabel.Render(label) + value + "\n")
	}
	row("power", s.MetricValue.Render(power.Format(v.FinalPower))+s.Subtle.Render("  ("+v.Mode+")"))
	row("coherence", s.ProgressBar(v.Coherence, barWidth)+" "+s.MetricValue.Render(fmt.Sprintf("%5.1f%%", 100*v.Coherence)))
	row("dwelling", s.ProgressBar(1-v.Dwelling, barWidth)+" "+s.MetricValue.Render(fmt.Sprintf("%5.1f%%", 100*v.Dwelling)))
	row("regime", r.regime(v.Regime))
	if len(v.Late) >= triad.StateDim {
		row("late avg", fmt.Sprintf("x1 %.3f  x2 %.3f  x3 %.3f  d %.3f",
			v.Late[triad.IdxX1], v.Late[triad.IdxX2], v.Late[triad.IdxX3], v.Late[triad.IdxDwelling]))
	}
	if v.TimeToCoherence >= 0 {
		row("coherent at", fmt.Sprintf("t = %.2f", v.TimeToCoherence))
	}
	if len(v.CoherenceCurve) > 0 {
		row("trajectory", s.Subtle.Render(Sparkline(v.CoherenceCurve, min(inner-14, 60), 0, 1)))
	}

	return s.Panel.Width(r.width).Render(strings.TrimRight(b.String(), "\n"))
}

func (r *Renderer) regime(name string) string {
	switch name {
	case analysis.Coherent.String():
		return r.styles.Good.Render(name)
	case analysis.Stuck.String():
		return r.styles.Bad.Render(name)
	default:
		return r.styles.Warn.Render(name)
	}
}

// Insights summarizes what the scenarios show, in declaration order.
func Insights(views []ScenarioView) []string {
	lines := make([]string, 0, len(views)+2)
	for _, v := range views {
		switch v.Regime {
		case analysis.Stuck.String():
			lines = append(lines, fmt.Sprintf("%s stays in the dwelling trap (coherence %.1f%%, dwelling %.1f%%)",
				v.Name, 100*v.Coherence, 100*v.Dwelling))
		case analysis.Coherent.String():
			lines = append(lines, fmt.Sprintf("%s escapes the trap and reaches %.1f%% coherence at %s",
				v.Name, 100*v.Coherence, power.Format(v.FinalPower)))
		default:
			lines = append(lines, fmt.Sprintf("%s has not settled (coherence %.1f%%, dwelling %.1f%%)",
				v.Name, 100*v.Coherence, 100*v.Dwelling))
		}
	}

	for i := 1; i < len(views); i++ {
		prev, cur := views[i-1], views[i]
		if prev.FinalPower <= 0 || cur.FinalPower <= 0 {
			continue
		}
		line := fmt.Sprintf("%s delivers %.1fx the output of %s", cur.Name, cur.FinalPower/prev.FinalPower, prev.Name)
		if cur.Mode == power.Synergy.String() && cur.LateSynergy() > 0 {
			line += fmt.Sprintf(" (late x2·x3 = %.3f)", cur.LateSynergy())
		}
		lines = append(lines, line)
	}
	return lines
}

// Table renders views as aligned columns without borders.
func (r *Renderer) Table(views []ScenarioView) string {
	s := r.styles
	header := fmt.Sprintf("%-12s %-9s %12s %10s %10s %-13s", "SCENARIO", "POWER", "OUTPUT", "COHERENCE", "DWELLING", "REGIME")
	rows := []string{s.Subtle.Render(header)}
	for _, v := range views {
		rows = append(rows, fmt.Sprintf("%-12s %-9s %12s %9.1f%% %9.1f%% %-13s",
			v.Name, v.Mode, power.Format(v.FinalPower), 100*v.Coherence, 100*v.Dwelling, v.Regime))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
