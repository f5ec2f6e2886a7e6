package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an autonomous or time-dependent ODE right-hand side.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// StateValidator is implemented by systems that restrict admissible
// initial conditions beyond finiteness and dimension.
type StateValidator interface {
	ValidateState(x State) error
}

// Breakpointer is implemented by systems whose right-hand side jumps at
// known times. The simulator never steps across a breakpoint.
type Breakpointer interface {
	Breakpoints() []float64
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

// Tolerance bounds the local error of an adaptive step per component:
// |err_i| <= Abs + Rel*max(|x_i|, |x_i'|).
type Tolerance struct {
	Abs float64
	Rel float64
}

type AdaptiveIntegrator interface {
	Integrator
	// StepAdaptive attempts a step of size dt. accepted reports whether the
	// local error met tol, next is the size to try for the following step.
	// A non-finite stage derivative returns ErrNumericalDivergence.
	StepAdaptive(dyn System, x State, t, dt float64, tol Tolerance) (xNew State, next float64, accepted bool, err error)
}

// Metric observes every output sample of a run.
type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnSample(x State, t float64)
}

type Config struct {
	Dt        float64
	Tolerance Tolerance
	MaxDt     float64
	MinDt     float64
	MaxSteps  int
}

func DefaultConfig() Config {
	return Config{
		Dt:        0.01,
		Tolerance: Tolerance{Abs: 1e-9, Rel: 1e-7},
		MaxDt:     0.5,
		MinDt:     1e-12,
		MaxSteps:  1_000_000,
	}
}

// Trajectory is the ordered (time, state) sequence produced by one run.
type Trajectory struct {
	Times  []float64
	States []State
}

func (tr Trajectory) Len() int { return len(tr.Times) }

// Final returns the last sample, or nil for an empty trajectory.
func (tr Trajectory) Final() State {
	if len(tr.States) == 0 {
		return nil
	}
	return tr.States[len(tr.States)-1]
}

// Component extracts the i-th state variable over time.
func (tr Trajectory) Component(i int) []float64 {
	out := make([]float64, len(tr.States))
	for k, s := range tr.States {
		if i < len(s) {
			out[k] = s[i]
		}
	}
	return out
}

// Map applies fn to every state, in order.
func (tr Trajectory) Map(fn func(State) float64) []float64 {
	out := make([]float64, len(tr.States))
	for k, s := range tr.States {
		out[k] = fn(s)
	}
	return out
}

type Result struct {
	Trajectory
	Metrics    map[string]float64
	StepsTaken int
	Rejected   int
}

// Linspace returns n evenly spaced samples over [start, end], inclusive.
func Linspace(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (end - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = end
	return out
}

// ValidateGrid checks that times is non-empty, finite and strictly increasing.
func ValidateGrid(times []float64) error {
	if len(times) == 0 {
		return fmt.Errorf("%w: no sample times", ErrInvalidGrid)
	}
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: non-finite time at index %d", ErrInvalidGrid, i)
		}
		if i > 0 && t <= times[i-1] {
			return fmt.Errorf("%w: times not strictly increasing at index %d (%g <= %g)", ErrInvalidGrid, i, t, times[i-1])
		}
	}
	return nil
}
