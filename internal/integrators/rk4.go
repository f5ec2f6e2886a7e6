package integrators

import "github.com/san-kum/triadsim/internal/dynamo"

// Tableau is the Butcher tableau of an explicit Runge-Kutta method. A is
// strictly lower triangular; row i holds the weights of stages 0..i-1.
type Tableau struct {
	A [][]float64
	B []float64
	C []float64
}

var (
	classicRK4 = Tableau{
		A: [][]float64{{}, {0.5}, {0, 0.5}, {0, 0, 1}},
		B: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
		C: []float64{0, 0.5, 0.5, 1},
	}
	midpoint = Tableau{
		A: [][]float64{{}, {0.5}},
		B: []float64{0, 1},
		C: []float64{0, 0.5},
	}
)

// ExplicitRK is a fixed-step stepper for any explicit tableau. It keeps
// stage buffers between steps and so must not be shared across goroutines.
type ExplicitRK struct {
	tab   Tableau
	k     []dynamo.State
	stage dynamo.State
}

func NewExplicitRK(tab Tableau) *ExplicitRK {
	return &ExplicitRK{tab: tab}
}

// NewRK4 is the classic fourth-order method.
func NewRK4() *ExplicitRK { return NewExplicitRK(classicRK4) }

// NewMidpoint is the second-order explicit midpoint method.
func NewMidpoint() *ExplicitRK { return NewExplicitRK(midpoint) }

func (r *ExplicitRK) Stages() int { return len(r.tab.B) }

func (r *ExplicitRK) buffers(n int) {
	if len(r.stage) == n && len(r.k) == r.Stages() {
		return
	}
	r.k = make([]dynamo.State, r.Stages())
	for s := range r.k {
		r.k[s] = make(dynamo.State, n)
	}
	r.stage = make(dynamo.State, n)
}

func (r *ExplicitRK) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	r.buffers(n)

	for s, row := range r.tab.A {
		copy(r.stage, x)
		for j, a := range row {
			if a == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				r.stage[i] += dt * a * r.k[j][i]
			}
		}
		copy(r.k[s], dyn.Derive(r.stage, t+r.tab.C[s]*dt))
	}

	next := x.Clone()
	for s, b := range r.tab.B {
		if b == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			next[i] += dt * b * r.k[s][i]
		}
	}
	return next
}
