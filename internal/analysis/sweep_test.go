package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/triad"
)

func sweepConfig(values ...float64) SweepConfig {
	return SweepConfig{
		Param:   "base_decay",
		Values:  values,
		Base:    triad.DefaultParams(),
		Initial: triad.DefaultInitialState(),
		Times:   dynamo.Linspace(0, 150, 301),
		Method:  "rk45",
		Sim:     dynamo.DefaultConfig(),
	}
}

func TestSweepSeparatesRegimes(t *testing.T) {
	points, err := Sweep(context.Background(), sweepConfig(0.05, 0.22))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, 0.05, points[0].Param)
	assert.NoError(t, points[0].Err)
	assert.Equal(t, Coherent, points[0].Regime, "weak decay should let the triad self-organize, got c=%.3f d=%.3f", points[0].Coherence, points[0].Dwelling)

	assert.Equal(t, 0.22, points[1].Param)
	assert.NoError(t, points[1].Err)
	assert.Equal(t, Stuck, points[1].Regime, "default decay should trap the triad, got c=%.3f d=%.3f", points[1].Coherence, points[1].Dwelling)
}

func TestSweepRecordsInvalidValues(t *testing.T) {
	points, err := Sweep(context.Background(), sweepConfig(-1, 0.22))
	require.NoError(t, err)
	assert.ErrorIs(t, points[0].Err, dynamo.ErrInvalidParameter)
	assert.NoError(t, points[1].Err)
}

func TestSweepRejectsBadSetup(t *testing.T) {
	cfg := sweepConfig(0.1)
	cfg.Param = "no_such_param"
	_, err := Sweep(context.Background(), cfg)
	assert.ErrorIs(t, err, dynamo.ErrInvalidParameter)

	cfg = sweepConfig()
	_, err = Sweep(context.Background(), cfg)
	assert.ErrorIs(t, err, dynamo.ErrInvalidParameter)

	cfg = sweepConfig(0.1)
	cfg.Method = "leapfrog"
	_, err = Sweep(context.Background(), cfg)
	assert.Error(t, err)
}

func TestSweepCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	points, err := Sweep(ctx, sweepConfig(0.05, 0.1, 0.22))
	assert.True(t, errors.Is(err, context.Canceled))
	for _, p := range points {
		assert.ErrorIs(t, p.Err, context.Canceled)
	}
}

func TestSweepToASCII(t *testing.T) {
	points := []SweepPoint{
		{Param: 0.05, Coherence: 0.98, Regime: Coherent},
		{Param: 0.22, Coherence: 0.0, Regime: Stuck},
		{Param: 0.30, Err: dynamo.ErrInvalidParameter},
	}
	out := SweepToASCII(points, 6, 5)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, '•', []rune(lines[0])[0])
	assert.Equal(t, 'x', []rune(lines[4])[2])
	assert.Empty(t, SweepToASCII(nil, 10, 10))
}

func TestPortrait(t *testing.T) {
	tr := dynamo.Trajectory{
		Times:  []float64{0, 1},
		States: []dynamo.State{{0, 0, 0, 1}, {1, 1, 1, 0}},
	}
	p := NewPortrait(tr)
	require.Len(t, p.Points, 2)
	assert.Equal(t, Point{X: 0, Y: 1}, p.Points[0])
	assert.Equal(t, Point{X: 1, Y: 0}, p.Points[1])

	out := PortraitToASCII(p, 5, 3)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, 'o', []rune(lines[0])[0], "start at top-left (c=0, d=1)")
	assert.Equal(t, '*', []rune(lines[2])[4], "end at bottom-right (c=1, d=0)")
	assert.Empty(t, PortraitToASCII(nil, 5, 3))
}
