package analysis

import (
	"context"
	"fmt"

	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/integrators"
	"github.com/san-kum/triadsim/internal/triad"
)

// SweepConfig describes a one-parameter scan. Every value runs the same
// schedule from the same initial state.
type SweepConfig struct {
	Param    string
	Values   []float64
	Base     triad.Params
	Schedule triad.Schedule
	Initial  dynamo.State
	Times    []float64
	Method   string
	Sim      dynamo.Config
}

// SweepPoint is the settled outcome for one parameter value.
type SweepPoint struct {
	Param     float64
	Coherence float64
	Dwelling  float64
	Final     dynamo.State
	Regime    Regime
	Err       error
}

// Sweep runs one simulation per value on up to GOMAXPROCS goroutines.
// Points come back in the order of cfg.Values. A point whose run fails
// carries the error in Err; Sweep itself fails only on invalid setup or
// cancellation.
func Sweep(ctx context.Context, cfg SweepConfig) ([]SweepPoint, error) {
	if len(cfg.Values) == 0 {
		return nil, fmt.Errorf("%w: sweep over %q has no values", dynamo.ErrInvalidParameter, cfg.Param)
	}
	if _, err := cfg.Base.With(cfg.Param, cfg.Base.Values()[cfg.Param]); err != nil {
		return nil, err
	}
	if _, err := integrators.New(cfg.Method); err != nil {
		return nil, err
	}

	points := make([]SweepPoint, len(cfg.Values))
	dynamo.ParallelFor(len(cfg.Values), 1, func(start, end int) {
		for i := start; i < end; i++ {
			points[i] = sweepOne(ctx, cfg, cfg.Values[i])
		}
	})

	if err := ctx.Err(); err != nil {
		return points, err
	}
	return points, nil
}

func sweepOne(ctx context.Context, cfg SweepConfig, v float64) SweepPoint {
	pt := SweepPoint{Param: v}

	params, err := cfg.Base.With(cfg.Param, v)
	if err != nil {
		pt.Err = err
		return pt
	}
	integ, err := integrators.New(cfg.Method)
	if err != nil {
		pt.Err = err
		return pt
	}

	sim := dynamo.New(triad.NewModel(params, cfg.Schedule), integ, cfg.Sim)
	res, err := sim.Run(ctx, cfg.Initial, cfg.Times)
	if err != nil {
		pt.Err = err
		return pt
	}

	pt.Final = res.Final()
	pt.Coherence = triad.Coherence(pt.Final)
	pt.Dwelling = triad.Dwelling(pt.Final)
	pt.Regime = Classify(pt.Final)
	return pt
}
