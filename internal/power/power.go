// Package power maps triad trajectories to power output.
//
// Baseline power is linear in subsystem-1 maturity:
//
//	P_base = Density * Volume * x1
//
// The synergy factor rewards joint maturity of subsystems 2 and 3:
//
//	synergy = 1 + K * (x2*x3)^e
//
// With the defaults (K = 99, e = 2) full maturity multiplies baseline
// output by 100.
package power

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/triadsim/internal/dynamo"
)

// Mode selects which scaling law a scenario reports.
type Mode int

const (
	// Off reports zero output: nothing is deployed.
	Off Mode = iota
	// Baseline reports P_base only.
	Baseline
	// Synergy reports P_base times the synergy factor.
	Synergy
)

func (m Mode) String() string {
	switch m {
	case Off:
		return "off"
	case Baseline:
		return "baseline"
	case Synergy:
		return "synergy"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return Off, nil
	case "baseline", "base", "linear":
		return Baseline, nil
	case "synergy", "full":
		return Synergy, nil
	default:
		return Off, fmt.Errorf("unknown power mode: %q", s)
	}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Scaling holds the physical constants of the power law.
type Scaling struct {
	Density     float64 // W/cm³
	Volume      float64 // cm³
	Coefficient float64 // K
	Exponent    float64 // e
}

// DefaultScaling is a 1 m³ compact reactor at 10 W/cm³.
func DefaultScaling() Scaling {
	return Scaling{
		Density:     10.0,
		Volume:      1e6,
		Coefficient: 99.0,
		Exponent:    2.0,
	}
}

func (s Scaling) Validate() error {
	if !(s.Density > 0) || math.IsInf(s.Density, 0) {
		return fmt.Errorf("%w: power density must be positive, got %g", dynamo.ErrInvalidParameter, s.Density)
	}
	if !(s.Volume > 0) || math.IsInf(s.Volume, 0) {
		return fmt.Errorf("%w: volume must be positive, got %g", dynamo.ErrInvalidParameter, s.Volume)
	}
	if !(s.Coefficient >= 0) || math.IsInf(s.Coefficient, 0) {
		return fmt.Errorf("%w: synergy coefficient must be non-negative, got %g", dynamo.ErrInvalidParameter, s.Coefficient)
	}
	if !(s.Exponent > 0) || math.IsInf(s.Exponent, 0) {
		return fmt.Errorf("%w: synergy exponent must be positive, got %g", dynamo.ErrInvalidParameter, s.Exponent)
	}
	return nil
}

// Base is the baseline output for subsystem-1 maturity x1.
func (s Scaling) Base(x1 float64) float64 {
	return s.Density * s.Volume * x1
}

// Factor is the synergy multiplier. A negative product, which only occurs
// through integrator overshoot, counts as no synergy.
func (s Scaling) Factor(x2, x3 float64) float64 {
	return 1 + s.Coefficient*math.Pow(math.Max(x2*x3, 0), s.Exponent)
}

// At evaluates the power law for a single [x1, x2, x3, ...] state.
func (s Scaling) At(x dynamo.State, mode Mode) float64 {
	if len(x) < 3 {
		return 0
	}
	switch mode {
	case Baseline:
		return s.Base(x[0])
	case Synergy:
		return s.Base(x[0]) * s.Factor(x[1], x[2])
	default:
		return 0
	}
}

// Transform returns one power value per trajectory sample, in order.
// The trajectory is read, never modified.
func Transform(traj dynamo.Trajectory, s Scaling, mode Mode) []float64 {
	return traj.Map(func(x dynamo.State) float64 { return s.At(x, mode) })
}

// Format renders watts with a W, kW, MW or GW suffix.
func Format(watts float64) string {
	abs := math.Abs(watts)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.3f GW", watts/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.3f MW", watts/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.3f kW", watts/1e3)
	default:
		return fmt.Sprintf("%.3f W", watts)
	}
}
