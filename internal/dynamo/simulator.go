package dynamo

import (
	"context"
	"fmt"
	"math"
	"sort"
)

type Simulator struct {
	dyn        System
	integrator Integrator
	cfg        Config
	metrics    []Metric
	observers  []Observer
}

func New(dyn System, integrator Integrator, cfg Config) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		cfg:        cfg,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run integrates from x0 at times[0] and records the state at every entry
// of times. Adaptive integrators pick internal steps freely but land exactly
// on each output time; fixed-step integrators use cfg.Dt, shortened where an
// output time falls inside a step.
func (s *Simulator) Run(ctx context.Context, x0 State, times []float64) (*Result, error) {
	if err := s.validateConfig(); err != nil {
		return nil, err
	}
	if err := ValidateGrid(times); err != nil {
		return nil, err
	}
	if err := s.validateInitial(x0); err != nil {
		return nil, err
	}

	result := &Result{
		Trajectory: Trajectory{
			Times:  make([]float64, 0, len(times)),
			States: make([]State, 0, len(times)),
		},
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := times[0]
	s.record(result, x, t)

	adaptive, isAdaptive := s.integrator.(AdaptiveIntegrator)
	dt := s.cfg.Dt
	if isAdaptive && len(times) > 1 {
		dt = math.Min(s.cfg.Dt, times[1]-times[0])
	}

	breaks := s.breakpoints(times[0], times[len(times)-1])
	bi := 0

	for _, target := range times[1:] {
		for t < target {
			for bi < len(breaks) && breaks[bi] <= t {
				bi++
			}
			stop := target
			if bi < len(breaks) && breaks[bi] < stop {
				stop = breaks[bi]
			}

			select {
			case <-ctx.Done():
				return result, ctx.Err()
			default:
			}

			if result.StepsTaken+result.Rejected >= s.cfg.MaxSteps {
				return result, &SimulationError{Step: result.StepsTaken, Time: t, State: x.Clone(), Wrapped: ErrStepLimit}
			}

			remaining := stop - t
			h := dt
			last := false
			if h >= remaining || remaining-h <= 1e-12*math.Max(1, math.Abs(stop)) {
				h = remaining
				last = true
			}

			var newX State
			if isAdaptive {
				var next float64
				var accepted bool
				var err error
				newX, next, accepted, err = adaptive.StepAdaptive(s.dyn, x, t, h, s.cfg.Tolerance)
				if err != nil {
					return result, &SimulationError{Step: result.StepsTaken, Time: t, State: x.Clone(), Wrapped: err}
				}
				next = math.Min(next, s.cfg.MaxDt)
				if !accepted {
					result.Rejected++
					if next < s.cfg.MinDt {
						return result, &SimulationError{Step: result.StepsTaken, Time: t, State: x.Clone(), Wrapped: ErrStepTooSmall}
					}
					dt = next
					continue
				}
				// A step shortened to hit the grid says little about the
				// natural step size, so keep the larger of the two.
				if last {
					dt = math.Max(dt, next)
				} else {
					dt = next
				}
			} else {
				newX = s.integrator.Step(s.dyn, x, t, h)
			}

			if !newX.IsValid() {
				return result, &SimulationError{Step: result.StepsTaken, Time: t, State: x.Clone(), Wrapped: ErrNumericalDivergence}
			}

			x = newX
			if last {
				t = stop
			} else {
				t += h
			}
			result.StepsTaken++
		}

		s.record(result, x, t)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// breakpoints returns the sorted, distinct discontinuities strictly inside
// (start, end).
func (s *Simulator) breakpoints(start, end float64) []float64 {
	bp, ok := s.dyn.(Breakpointer)
	if !ok {
		return nil
	}
	out := make([]float64, 0)
	for _, b := range bp.Breakpoints() {
		if b > start && b < end {
			out = append(out, b)
		}
	}
	sort.Float64s(out)
	return out
}

func (s *Simulator) record(result *Result, x State, t float64) {
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnSample(x, t)
	}
}

func (s *Simulator) validateConfig() error {
	cfg := s.cfg
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.MaxSteps <= 0 {
		return fmt.Errorf("max steps must be positive, got %d", cfg.MaxSteps)
	}
	if _, ok := s.integrator.(AdaptiveIntegrator); ok {
		if cfg.Tolerance.Abs <= 0 && cfg.Tolerance.Rel <= 0 {
			return fmt.Errorf("tolerance must be positive for adaptive stepping")
		}
		if cfg.MaxDt <= 0 || cfg.MinDt < 0 || cfg.MinDt >= cfg.MaxDt {
			return fmt.Errorf("invalid step bounds: min %g, max %g", cfg.MinDt, cfg.MaxDt)
		}
	}
	return nil
}

func (s *Simulator) validateInitial(x0 State) error {
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("%w: %w: got %d components, want %d",
			ErrInvalidInitialState, ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	if !x0.IsValid() {
		return fmt.Errorf("%w: non-finite component in %v", ErrInvalidInitialState, x0)
	}
	if v, ok := s.dyn.(StateValidator); ok {
		return v.ValidateState(x0)
	}
	return nil
}
