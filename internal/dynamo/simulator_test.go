package dynamo

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

type decay struct{}

func (d *decay) Derive(x State, t float64) State { return State{-x[0]} }
func (d *decay) StateDim() int                   { return 1 }

type blowup struct{ at float64 }

func (b *blowup) Derive(x State, t float64) State {
	if t >= b.at {
		return State{math.Inf(1)}
	}
	return State{0}
}
func (b *blowup) StateDim() int { return 1 }

type positiveOnly struct{ decay }

func (p *positiveOnly) ValidateState(x State) error {
	if x[0] < 0 {
		return ErrInvalidInitialState
	}
	return nil
}

type testEuler struct{}

func (e *testEuler) Step(dyn System, x State, t, dt float64) State {
	dx := dyn.Derive(x, t)
	return State{x[0] + dt*dx[0]}
}

// testAdaptive takes exact exponential-decay steps but rejects anything
// larger than maxAccept, halving the proposal.
type testAdaptive struct {
	maxAccept float64
	calls     int
	rejected  int
}

func (a *testAdaptive) Step(dyn System, x State, t, dt float64) State {
	return State{x[0] * math.Exp(-dt)}
}

func (a *testAdaptive) StepAdaptive(dyn System, x State, t, dt float64, tol Tolerance) (State, float64, bool, error) {
	a.calls++
	if !dyn.Derive(x, t).IsValid() {
		return nil, 0, false, ErrNumericalDivergence
	}
	if dt > a.maxAccept {
		a.rejected++
		return nil, dt / 2, false, nil
	}
	return a.Step(dyn, x, t, dt), dt * 2, true, nil
}

func TestSimulatorRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dt = 0.001
	sim := New(&decay{}, &testEuler{}, cfg)

	times := Linspace(0, 1, 11)
	result, err := sim.Run(context.Background(), State{1.0}, times)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	for i, tm := range result.Times {
		if tm != times[i] {
			t.Errorf("sample %d at t=%v, want %v", i, tm, times[i])
		}
	}

	finalState := result.Final()[0]
	expected := math.Exp(-1.0)
	if math.Abs(finalState-expected) > 1e-3 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, finalState)
	}
}

func TestSimulatorAdaptiveLandsOnGrid(t *testing.T) {
	stepper := &testAdaptive{maxAccept: 0.03}
	cfg := DefaultConfig()
	cfg.Dt = 0.2
	sim := New(&decay{}, stepper, cfg)

	times := []float64{0, 0.1, 0.35, 1.0}
	result, err := sim.Run(context.Background(), State{1.0}, times)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for i, tm := range result.Times {
		if tm != times[i] {
			t.Errorf("sample %d at t=%v, want %v", i, tm, times[i])
		}
		if want := math.Exp(-tm); math.Abs(result.States[i][0]-want) > 1e-12 {
			t.Errorf("x(%v) = %v, want %v", tm, result.States[i][0], want)
		}
	}
	if stepper.rejected == 0 || result.Rejected != stepper.rejected {
		t.Errorf("rejections: stepper %d, result %d", stepper.rejected, result.Rejected)
	}
}

func TestSimulatorDivergence(t *testing.T) {
	sim := New(&blowup{at: 0.5}, &testAdaptive{maxAccept: 1}, DefaultConfig())

	_, err := sim.Run(context.Background(), State{1.0}, Linspace(0, 1, 5))
	if !errors.Is(err, ErrNumericalDivergence) {
		t.Fatalf("expected ErrNumericalDivergence, got %v", err)
	}

	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %T", err)
	}
	if simErr.Time < 0.5 {
		t.Errorf("divergence reported at t=%v, before the blowup", simErr.Time)
	}
}

func TestSimulatorFixedStepDivergence(t *testing.T) {
	cfg := DefaultConfig()
	sim := New(&blowup{at: 0.2}, &testEuler{}, cfg)

	_, err := sim.Run(context.Background(), State{1.0}, Linspace(0, 1, 3))
	if !errors.Is(err, ErrNumericalDivergence) {
		t.Fatalf("expected ErrNumericalDivergence, got %v", err)
	}
}

func TestSimulatorStepLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 10
	sim := New(&decay{}, &testAdaptive{maxAccept: 0.01}, cfg)
	_, err := sim.Run(context.Background(), State{1.0}, []float64{0, 1})
	if !errors.Is(err, ErrStepLimit) {
		t.Errorf("expected ErrStepLimit, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.MinDt = 0.01
	sim = New(&decay{}, &testAdaptive{maxAccept: 0.001}, cfg)
	_, err = sim.Run(context.Background(), State{1.0}, []float64{0, 1})
	if !errors.Is(err, ErrStepTooSmall) {
		t.Errorf("expected ErrStepTooSmall, got %v", err)
	}
}

func TestSimulatorInvalidInputs(t *testing.T) {
	tests := []struct {
		name   string
		dyn    System
		cfg    func(*Config)
		x0     State
		times  []float64
		target error
	}{
		{"zero dt", &decay{}, func(c *Config) { c.Dt = 0 }, State{1}, []float64{0, 1}, nil},
		{"empty grid", &decay{}, nil, State{1}, nil, ErrInvalidGrid},
		{"unordered grid", &decay{}, nil, State{1}, []float64{1, 0}, ErrInvalidGrid},
		{"wrong dimension", &decay{}, nil, State{1, 2}, []float64{0, 1}, ErrInvalidInitialState},
		{"wrong dimension detail", &decay{}, nil, State{1, 2}, []float64{0, 1}, ErrDimensionMismatch},
		{"nan state", &decay{}, nil, State{math.NaN()}, []float64{0, 1}, ErrInvalidInitialState},
		{"rejected by system", &positiveOnly{}, nil, State{-1}, []float64{0, 1}, ErrInvalidInitialState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			sim := New(tt.dyn, &testEuler{}, cfg)
			_, err := sim.Run(context.Background(), tt.x0, tt.times)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := New(&decay{}, &testEuler{}, DefaultConfig())
	_, err := sim.Run(ctx, State{1.0}, []float64{0, 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(x State, time float64) {
	t.count++
	t.sum += x[0]
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

type countingObserver struct{ n atomic.Int32 }

func (c *countingObserver) OnSample(x State, t float64) { c.n.Add(1) }

func TestSimulatorMetricsAndObservers(t *testing.T) {
	sim := New(&decay{}, &testEuler{}, DefaultConfig())

	metric := &testMetric{}
	obs := &countingObserver{}
	sim.AddMetric(metric)
	sim.AddObserver(obs)

	result, err := sim.Run(context.Background(), State{1.0}, Linspace(0, 1, 11))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 11 {
		t.Errorf("expected 11 observations, got %d", metric.count)
	}
	if obs.n.Load() != 11 {
		t.Errorf("expected 11 observer calls, got %d", obs.n.Load())
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		seen := make([]int32, n)
		ParallelFor(n, 4, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, v := range seen {
			if v != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, v)
			}
		}
	}
}

type switched struct{ edges []float64 }

func (s *switched) Derive(x State, t float64) State { return State{0} }
func (s *switched) StateDim() int                   { return 1 }
func (s *switched) Breakpoints() []float64          { return s.edges }

type recordingEuler struct{ starts []float64 }

func (r *recordingEuler) Step(dyn System, x State, t, dt float64) State {
	r.starts = append(r.starts, t)
	return x.Clone()
}

func TestSimulatorStopsOnBreakpoints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dt = 0.1
	stepper := &recordingEuler{}
	sim := New(&switched{edges: []float64{0.55, 2.0, -1}}, stepper, cfg)

	if _, err := sim.Run(context.Background(), State{1}, Linspace(0, 1, 3)); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	found := false
	for _, s := range stepper.starts {
		if s == 0.55 {
			found = true
		}
	}
	if !found {
		t.Errorf("no step started at the breakpoint, starts: %v", stepper.starts)
	}
}
