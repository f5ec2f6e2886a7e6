package integrators

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/triadsim/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int { return 2 }

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

type logistic struct{ r float64 }

func (l *logistic) StateDim() int { return 1 }
func (l *logistic) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{l.r * x[0] * (1 - x[0])}
}

type poisoned struct{}

func (p *poisoned) StateDim() int { return 1 }
func (p *poisoned) Derive(x dynamo.State, t float64) dynamo.State {
	if x[0] > 1.05 {
		return dynamo.State{math.NaN()}
	}
	return dynamo.State{1}
}

func TestRK45_Step(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x := dynamo.State{1.0, 0.0}
	dt := 0.01

	for i := 0; i < 1000; i++ {
		x = integrator.Step(dyn, x, float64(i)*dt, dt)
	}

	if !x.IsValid() {
		t.Error("RK45 produced invalid state")
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	initialEnergy := dyn.Energy(x0)
	x := x0.Clone()
	dt := 0.01

	for i := 0; i < 10000; i++ {
		x = integrator.Step(dyn, x, float64(i)*dt, dt)
	}

	drift := math.Abs(dyn.Energy(x)-initialEnergy) / initialEnergy
	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}
	tol := dynamo.Tolerance{Abs: 1e-10, Rel: 1e-10}

	_, next, accepted, err := integrator.StepAdaptive(dyn, x0, 0, 1.0, tol)
	if err != nil {
		t.Fatalf("StepAdaptive returned error: %v", err)
	}
	if accepted {
		t.Error("a unit step should not meet a 1e-10 tolerance")
	}
	if next <= 0 || next >= 1.0 {
		t.Errorf("rejected step should shrink, got next=%v", next)
	}

	x, grown, accepted, err := integrator.StepAdaptive(dyn, x0, 0, 1e-3, dynamo.Tolerance{Abs: 1e-6, Rel: 1e-6})
	if err != nil || !accepted {
		t.Fatalf("small step should be accepted: accepted=%v err=%v", accepted, err)
	}
	if !x.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}
	if grown <= 1e-3 {
		t.Errorf("accepted easy step should grow, got next=%v", grown)
	}
}

type quartet struct{}

func (q *quartet) StateDim() int { return 4 }
func (q *quartet) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0], -3 * x[2], x[2] * x[3]}
}

func TestRK45_RejectedStepKeepsState(t *testing.T) {
	integrator := NewRK45()
	dyn := &quartet{}
	x0 := dynamo.State{1, 0, 0.5, 0.2}
	tight := dynamo.Tolerance{Abs: 1e-12, Rel: 1e-12}

	x, _, accepted, err := integrator.StepAdaptive(dyn, x0, 0, 5.0, tight)
	if err != nil {
		t.Fatalf("StepAdaptive returned error: %v", err)
	}
	if accepted {
		t.Fatal("a step of 5 should not meet a 1e-12 tolerance")
	}
	if len(x) != dyn.StateDim() {
		t.Fatalf("rejected step returned %d components, want %d", len(x), dyn.StateDim())
	}

	stepped := integrator.Step(dyn, x0, 0, 5.0)
	if len(stepped) != dyn.StateDim() {
		t.Fatalf("Step returned %d components, want %d", len(stepped), dyn.StateDim())
	}
	if !stepped.IsValid() {
		t.Errorf("Step produced invalid state %v", stepped)
	}
}

func TestRK45_DivergenceIsReported(t *testing.T) {
	integrator := NewRK45()
	_, _, _, err := integrator.StepAdaptive(&poisoned{}, dynamo.State{1.0}, 0, 0.2, defaultTolerance)
	if !errors.Is(err, dynamo.ErrNumericalDivergence) {
		t.Errorf("expected ErrNumericalDivergence, got %v", err)
	}

	x := integrator.Step(&poisoned{}, dynamo.State{1.0}, 0, 0.2)
	if x.IsValid() {
		t.Errorf("fixed step through a NaN derivative should be invalid, got %v", x)
	}
}

func TestRK45_SimulatorMatchesClosedForm(t *testing.T) {
	dyn := &logistic{r: 1.5}
	x0 := 0.01
	exact := func(tm float64) float64 {
		return 1 / (1 + (1/x0-1)*math.Exp(-dyn.r*tm))
	}

	sim := dynamo.New(dyn, NewRK45(), dynamo.DefaultConfig())
	times := dynamo.Linspace(0, 20, 201)
	result, err := sim.Run(context.Background(), dynamo.State{x0}, times)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for i, tm := range result.Times {
		if tm != times[i] {
			t.Fatalf("sample %d at t=%v, want %v", i, tm, times[i])
		}
		if diff := math.Abs(result.States[i][0] - exact(tm)); diff > 1e-5 {
			t.Errorf("x(%.1f) off by %e", tm, diff)
		}
	}
}

func TestRK45_VsRK4_Accuracy(t *testing.T) {
	rk4 := NewRK4()
	rk45 := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x4 := x0.Clone()
	x45 := x0.Clone()
	dt := 0.1

	for i := 0; i < 100; i++ {
		x4 = rk4.Step(dyn, x4, float64(i)*dt, dt)
		x45 = rk45.Step(dyn, x45, float64(i)*dt, dt)
	}

	t.Logf("RK4 final: [%.6f, %.6f]", x4[0], x4[1])
	t.Logf("RK45 final: [%.6f, %.6f]", x45[0], x45[1])

	e4 := dyn.Energy(x4)
	e45 := dyn.Energy(x45)

	if math.Abs(e45-0.5) > math.Abs(e4-0.5) {
		t.Log("Warning: RK45 not more accurate than RK4 for this case")
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &harmonicOscillator{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK45(b *testing.B) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}
