// Package figure renders the scenario comparison figure with gonum/plot:
// coherence, dwelling and power overlays on the first row, then one
// subsystem panel per scenario.
package figure

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/san-kum/triadsim/internal/triad"
	"github.com/san-kum/triadsim/internal/viz"
)

const cols = 3

var (
	ErrNoData            = errors.New("figure: no scenario data")
	ErrUnsupportedFormat = errors.New("figure: unsupported format")
)

var (
	scenarioColors = []color.Color{
		rgb(0xdc, 0x26, 0x26),
		rgb(0xf5, 0x9e, 0x0b),
		rgb(0x10, 0xb9, 0x81),
		rgb(0x0e, 0xa5, 0xe9),
		rgb(0x64, 0x74, 0x8b),
	}
	subsystemColors = [triad.NumSubsystems]color.Color{
		rgb(0x3b, 0x82, 0xf6),
		rgb(0x8b, 0x5c, 0xf6),
		rgb(0xec, 0x48, 0x99),
	}
	markerColor = rgb(0xb4, 0x8a, 0x00)
)

func rgb(r, g, b uint8) color.Color { return color.RGBA{R: r, G: g, B: b, A: 255} }

// Options sizes the figure. Width and Height are per panel.
type Options struct {
	PanelWidth  vg.Length
	PanelHeight vg.Length
	DPI         int
}

func DefaultOptions() Options {
	return Options{PanelWidth: 5 * vg.Inch, PanelHeight: 4 * vg.Inch, DPI: 150}
}

// Figure is a laid-out grid of panels ready to be drawn.
type Figure struct {
	Panels [][]*plot.Plot
	opts   Options
}

// Build lays out the comparison for views. Every view must carry its
// time series.
func Build(views []viz.ScenarioView, opts Options) (*Figure, error) {
	if len(views) == 0 {
		return nil, ErrNoData
	}
	for _, v := range views {
		if len(v.Times) == 0 || len(v.States) != len(v.Times) {
			return nil, fmt.Errorf("%w: scenario %s has no time series", ErrNoData, v.Name)
		}
	}

	coherence, err := overlay(views, "Progress to coherence", "coherence", func(v viz.ScenarioView) []float64 { return v.CoherenceCurve })
	if err != nil {
		return nil, err
	}
	dwelling, err := overlay(views, "Incoherence-driven coupling", "dwelling", func(v viz.ScenarioView) []float64 { return v.DwellingCurve })
	if err != nil {
		return nil, err
	}
	pw, err := powerPanel(views)
	if err != nil {
		return nil, err
	}

	rows := [][]*plot.Plot{{coherence, dwelling, pw}}
	var row []*plot.Plot
	for _, v := range views {
		p, err := subsystemPanel(v)
		if err != nil {
			return nil, err
		}
		row = append(row, p)
		if len(row) == cols {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		for len(row) < cols {
			blank := plot.New()
			blank.HideAxes()
			row = append(row, blank)
		}
		rows = append(rows, row)
	}

	return &Figure{Panels: rows, opts: opts}, nil
}

func (f *Figure) size() (vg.Length, vg.Length) {
	return f.opts.PanelWidth * cols, f.opts.PanelHeight * vg.Length(len(f.Panels))
}

func (f *Figure) draw(dc draw.Canvas) {
	tiles := draw.Tiles{
		Rows:      len(f.Panels),
		Cols:      cols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(f.Panels, tiles, dc)
	for j := range f.Panels {
		for i, p := range f.Panels[j] {
			p.Draw(canvases[j][i])
		}
	}
}

// Format is an output encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpg"
	SVG  Format = "svg"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "svg":
		return SVG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Encode writes the figure to w in the given format.
func (f *Figure) Encode(w io.Writer, format Format) error {
	width, height := f.size()
	switch format {
	case SVG:
		c := vgsvg.New(width, height)
		f.draw(draw.New(c))
		_, err := c.WriteTo(w)
		return err
	case PNG, JPEG:
		c := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(f.opts.DPI))
		dc := draw.New(c)
		f.draw(dc)
		var wt io.WriterTo = vgimg.PngCanvas{Canvas: c}
		if format == JPEG {
			wt = vgimg.JpegCanvas{Canvas: c}
		}
		_, err := wt.WriteTo(w)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Save writes the figure to path, choosing the format from its extension.
func (f *Figure) Save(path string) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create figure dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create figure: %w", err)
	}
	bw := bufio.NewWriter(file)
	if err := f.Encode(bw, format); err != nil {
		file.Close()
		return fmt.Errorf("encode figure: %w", err)
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Render builds and saves the figure in one call.
func Render(views []viz.ScenarioView, path string) error {
	f, err := Build(views, DefaultOptions())
	if err != nil {
		return err
	}
	return f.Save(path)
}

func newPanel(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(13)
	p.Title.Padding = vg.Points(6)
	p.X.Label.Text = "time"
	p.Y.Label.Text = ylabel
	p.Legend.Top = true
	p.Legend.TextStyle.Font.Size = vg.Points(8)
	p.Add(plotter.NewGrid())
	return p
}

func xys(times, values []float64) plotter.XYs {
	n := min(len(times), len(values))
	pts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		pts[i].X = times[i]
		pts[i].Y = values[i]
	}
	return pts
}

func addLine(p *plot.Plot, pts plotter.XYs, c color.Color, width vg.Length, label string) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = width
	p.Add(line)
	if label != "" {
		p.Legend.Add(label, line)
	}
	return nil
}

// addMarkers draws a dashed vertical line at every time in starts, spanning
// [lo, hi] on the y axis.
func addMarkers(p *plot.Plot, starts []float64, lo, hi float64) error {
	for _, s := range starts {
		line, err := plotter.NewLine(plotter.XYs{{X: s, Y: lo}, {X: s, Y: hi}})
		if err != nil {
			return err
		}
		line.LineStyle.Color = markerColor
		line.LineStyle.Width = vg.Points(1)
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(line)
	}
	return nil
}

func allStarts(views []viz.ScenarioView) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, v := range views {
		for _, s := range v.Starts {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

func overlay(views []viz.ScenarioView, title, ylabel string, pick func(viz.ScenarioView) []float64) (*plot.Plot, error) {
	p := newPanel(title, ylabel)
	p.Y.Min, p.Y.Max = 0, 1
	for i, v := range views {
		if err := addLine(p, xys(v.Times, pick(v)), scenarioColors[i%len(scenarioColors)], vg.Points(2), v.Name); err != nil {
			return nil, fmt.Errorf("%s %s: %w", ylabel, v.Name, err)
		}
	}
	if err := addMarkers(p, allStarts(views), 0, 1); err != nil {
		return nil, err
	}
	return p, nil
}

// powerPanel plots every scenario with output on a log axis, each in the
// unit of its own final power. Non-positive samples are left out.
func powerPanel(views []viz.ScenarioView) (*plot.Plot, error) {
	p := newPanel("Emergent power scaling (log)", "power")
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range views {
		scale, unit := unitFor(v.FinalPower)
		var pts plotter.XYs
		for k, m := 0, min(len(v.Times), len(v.Power)); k < m; k++ {
			if y := v.Power[k] / scale; y > 0 && !math.IsInf(y, 0) {
				pts = append(pts, plotter.XY{X: v.Times[k], Y: y})
				lo, hi = math.Min(lo, y), math.Max(hi, y)
			}
		}
		if len(pts) == 0 {
			continue
		}
		label := fmt.Sprintf("%s (%s)", v.Name, unit)
		if err := addLine(p, pts, scenarioColors[i%len(scenarioColors)], vg.Points(2), label); err != nil {
			return nil, fmt.Errorf("power %s: %w", v.Name, err)
		}
	}
	if lo > hi {
		p.Y.Scale = plot.LinearScale{}
		p.Y.Tick.Marker = plot.DefaultTicks{}
		p.Y.Min, p.Y.Max = 0, 1
		return p, nil
	}
	if err := addMarkers(p, allStarts(views), lo, hi); err != nil {
		return nil, err
	}
	return p, nil
}

func subsystemPanel(v viz.ScenarioView) (*plot.Plot, error) {
	title := v.Name
	if v.Regime != "" {
		title = fmt.Sprintf("%s (%s)", v.Name, v.Regime)
	}
	p := newPanel(title, "subsystem state")
	p.Y.Min, p.Y.Max = 0, 1
	for i := 0; i < triad.NumSubsystems; i++ {
		sub := triad.Subsystem(i)
		values := make([]float64, len(v.States))
		for k, s := range v.States {
			values[k] = s[i]
		}
		label := fmt.Sprintf("%s: %s", sub, sub.Label())
		if err := addLine(p, xys(v.Times, values), subsystemColors[i], vg.Points(1.5), label); err != nil {
			return nil, fmt.Errorf("%s %s: %w", v.Name, sub, err)
		}
	}
	if err := addMarkers(p, v.Starts, 0, 1); err != nil {
		return nil, err
	}
	return p, nil
}

func unitFor(watts float64) (float64, string) {
	switch abs := math.Abs(watts); {
	case abs >= 1e9:
		return 1e9, "GW"
	case abs >= 1e6:
		return 1e6, "MW"
	case abs >= 1e3:
		return 1e3, "kW"
	default:
		return 1, "W"
	}
}
