package analysis

import (
	"strings"

	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/triad"
)

type Point struct{ X, Y float64 }

// Portrait is a trajectory projected onto two derived coordinates.
type Portrait struct {
	XLabel, YLabel string
	Points         []Point
}

// NewPortrait projects tr onto (coherence, dwelling), the plane in which
// the two attractors separate.
func NewPortrait(tr dynamo.Trajectory) *Portrait {
	p := &Portrait{
		XLabel: "coherence",
		YLabel: "dwelling",
		Points: make([]Point, 0, tr.Len()),
	}
	for _, s := range tr.States {
		p.Points = append(p.Points, Point{X: triad.Coherence(s), Y: triad.Dwelling(s)})
	}
	return p
}

// PortraitToASCII draws the portrait on a fixed [0, 1] x [0, 1] canvas so
// portraits of different scenarios line up.
func PortraitToASCII(p *Portrait, width, height int) string {
	if p == nil || len(p.Points) == 0 || width <= 1 || height <= 1 {
		return ""
	}

	canvas := newCanvas(width, height)
	for i, pt := range p.Points {
		col := clampIndex(int(pt.X*float64(width-1)+0.5), width)
		row := height - 1 - clampIndex(int(pt.Y*float64(height-1)+0.5), height)
		mark := '•'
		switch i {
		case 0:
			mark = 'o'
		case len(p.Points) - 1:
			mark = '*'
		}
		canvas[row][col] = mark
	}
	return render(canvas)
}

// SweepToASCII plots final coherence against the swept parameter. Stuck
// points are drawn as 'x', coherent as '•' and anything else as '+'.
func SweepToASCII(points []SweepPoint, width, height int) string {
	if len(points) == 0 || width <= 0 || height <= 1 {
		return ""
	}

	canvas := newCanvas(width, height)
	for i, p := range points {
		if p.Err != nil {
			continue
		}
		col := i * width / len(points)
		if col >= width {
			col = width - 1
		}
		row := height - 1 - clampIndex(int(p.Coherence*float64(height-1)+0.5), height)
		mark := '+'
		switch p.Regime {
		case Stuck:
			mark = 'x'
		case Coherent:
			mark = '•'
		}
		canvas[row][col] = mark
	}
	return render(canvas)
}

func newCanvas(width, height int) [][]rune {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}
	return canvas
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func render(canvas [][]rune) string {
	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
