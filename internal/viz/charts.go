package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Red,
	asciigraph.Yellow,
	asciigraph.Green,
	asciigraph.Cyan,
	asciigraph.Magenta,
	asciigraph.Blue,
}

// CoherenceChart overlays every scenario's coherence curve.
func CoherenceChart(views []ScenarioView, width, height int) string {
	return overlay(views, width, height, "coherence vs time", func(v ScenarioView) []float64 {
		return v.CoherenceCurve
	})
}

// DwellingChart overlays every scenario's dwelling curve.
func DwellingChart(views []ScenarioView, width, height int) string {
	return overlay(views, width, height, "dwelling vs time", func(v ScenarioView) []float64 {
		return v.DwellingCurve
	})
}

func overlay(views []ScenarioView, width, height int, caption string, pick func(ScenarioView) []float64) string {
	data := make([][]float64, 0, len(views))
	colors := make([]asciigraph.AnsiColor, 0, len(views))
	legend := make([]string, 0, len(views))
	for i, v := range views {
		curve := pick(v)
		if len(curve) == 0 {
			continue
		}
		c := seriesColors[i%len(seriesColors)]
		data = append(data, curve)
		colors = append(colors, c)
		legend = append(legend, c.String()+"■"+asciigraph.Default.String()+" "+v.Name)
	}
	if len(data) == 0 {
		return ""
	}

	chart := asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(1),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption+tEnd(views)),
	)
	return chart + "\n" + strings.Join(legend, "   ") + "\n"
}

// PowerChart plots one scenario's power output in the unit of its final
// value.
func PowerChart(v ScenarioView, width, height int) string {
	if len(v.Power) == 0 {
		return ""
	}
	scale, unit := powerUnit(v.FinalPower)
	scaled := make([]float64, len(v.Power))
	for i, p := range v.Power {
		scaled[i] = p / scale
	}
	return asciigraph.Plot(scaled,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.Caption(fmt.Sprintf("%s power (%s)%s", v.Name, unit, tEnd([]ScenarioView{v}))),
	)
}

func powerUnit(watts float64) (float64, string) {
	switch {
	case watts >= 1e9:
		return 1e9, "GW"
	case watts >= 1e6:
		return 1e6, "MW"
	case watts >= 1e3:
		return 1e3, "kW"
	default:
		return 1, "W"
	}
}

func tEnd(views []ScenarioView) string {
	for _, v := range views {
		if n := len(v.Times); n > 1 {
			return fmt.Sprintf(", t = %g..%g", v.Times[0], v.Times[n-1])
		}
	}
	return ""
}
