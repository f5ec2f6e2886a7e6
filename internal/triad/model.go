package triad

import (
	"fmt"
	"math"

	"github.com/san-kum/triadsim/internal/dynamo"
)

// Model is the triadic ODE system. It holds only immutable values, so one
// Model may be shared by concurrent simulators.
type Model struct {
	params   Params
	schedule Schedule
}

func NewModel(p Params, s Schedule) *Model {
	return &Model{params: p, schedule: s}
}

func (m *Model) StateDim() int { return StateDim }

func (m *Model) Params() Params     { return m.params }
func (m *Model) Schedule() Schedule { return m.schedule }

// Derive returns d/dt of [x1, x2, x3, d] at time t. A state of the wrong
// size yields an all-NaN derivative, which integrators report as
// divergence.
func (m *Model) Derive(s dynamo.State, t float64) dynamo.State {
	if len(s) != StateDim {
		nan := make(dynamo.State, StateDim)
		for i := range nan {
			nan[i] = math.NaN()
		}
		return nan
	}
	p := &m.params
	x := [NumSubsystems]float64{s[IdxX1], s[IdxX2], s[IdxX3]}
	d := s[IdxDwelling]

	c := (x[0] + x[1] + x[2]) / 3

	dd := p.DwellingRise*(1-c)*(1-d) - p.DwellingFade*c*d

	k := 1 + p.CouplingBoost*d
	decay := p.BaseDecay * (1 - p.DecayRelief*d)

	var h [NumSubsystems]float64
	for i := range x {
		h[i] = Hill(x[i], p.Hill[i])
	}

	dx := make(dynamo.State, StateDim)
	for i := range x {
		j, l := (i+1)%NumSubsystems, (i+2)%NumSubsystems
		drive := k * (h[j] + h[l]) / 2 * (1 - x[i])
		dx[i] = drive - decay*p.DecayMultiplier[i]*x[i] + m.schedule.Boost(t, Subsystem(i))
	}
	dx[IdxDwelling] = dd

	return dx
}

// Breakpoints reports the nudge window edges so steppers stop on them.
func (m *Model) Breakpoints() []float64 { return m.schedule.Edges() }

// ValidateState rejects negative or wrong-sized initial conditions.
func (m *Model) ValidateState(s dynamo.State) error {
	if len(s) != StateDim {
		return fmt.Errorf("%w: expected %d components, got %d", dynamo.ErrInvalidInitialState, StateDim, len(s))
	}
	for i, v := range s {
		if !finite(v) || v < 0 {
			return fmt.Errorf("%w: component %d is %g", dynamo.ErrInvalidInitialState, i, v)
		}
	}
	return nil
}

// Coherence is the mean maturity of the three subsystems in s.
func Coherence(s dynamo.State) float64 {
	if len(s) < NumSubsystems {
		return 0
	}
	return (s[IdxX1] + s[IdxX2] + s[IdxX3]) / 3
}

// Dwelling is the dwelling component of s.
func Dwelling(s dynamo.State) float64 {
	if len(s) <= IdxDwelling {
		return 0
	}
	return s[IdxDwelling]
}

// DefaultInitialState is the documented starting point: partially matured
// subsystems under moderate dwelling.
func DefaultInitialState() dynamo.State {
	return dynamo.State{0.2, 0.1, 0.15, 0.6}
}

// NewState builds a validated initial state.
func NewState(x1, x2, x3, d float64) (dynamo.State, error) {
	s := dynamo.State{x1, x2, x3, d}
	if err := (&Model{}).ValidateState(s); err != nil {
		return nil, err
	}
	return s, nil
}
