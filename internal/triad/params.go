package triad

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/power"
)

// Subsystem identifies one of the three maturity variables.
type Subsystem int

const (
	Baseline    Subsystem = iota // x1: baseline reactor technology
	Quantum                      // x2: quantum stability enhancement
	Integration                  // x3: GW-scale integration
)

// NumSubsystems is the number of maturity variables in the state.
const NumSubsystems = 3

// State indices.
const (
	IdxX1 = iota
	IdxX2
	IdxX3
	IdxDwelling
	StateDim
)

func (s Subsystem) Valid() bool { return s >= Baseline && s <= Integration }

func (s Subsystem) String() string {
	switch s {
	case Baseline:
		return "x1"
	case Quantum:
		return "x2"
	case Integration:
		return "x3"
	default:
		return fmt.Sprintf("subsystem(%d)", int(s))
	}
}

// Label is the human-readable name used in reports and plots.
func (s Subsystem) Label() string {
	switch s {
	case Baseline:
		return "baseline tech"
	case Quantum:
		return "quantum layer"
	case Integration:
		return "GW integration"
	default:
		return s.String()
	}
}

func ParseSubsystem(s string) (Subsystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x1", "1", "baseline":
		return Baseline, nil
	case "x2", "2", "quantum":
		return Quantum, nil
	case "x3", "3", "integration":
		return Integration, nil
	default:
		return 0, fmt.Errorf("unknown subsystem: %q", s)
	}
}

func (s Subsystem) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Subsystem) UnmarshalText(b []byte) error {
	parsed, err := ParseSubsystem(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Params is the immutable configuration of one model run. Build it with
// [NewParams] (or [DefaultParams]) and pass it by value.
type Params struct {
	DwellingRise  float64 // r_r: dwelling growth while incoherent
	DwellingFade  float64 // r_f: dwelling decay while coherent
	CouplingBoost float64 // b: coupling gain per unit dwelling
	BaseDecay     float64 // δ_b
	DecayRelief   float64 // ρ: fraction of decay removed at full dwelling

	Hill            [NumSubsystems]HillParams
	DecayMultiplier [NumSubsystems]float64

	Power power.Scaling
}

func DefaultParams() Params {
	return Params{
		DwellingRise:    0.35,
		DwellingFade:    0.45,
		CouplingBoost:   0.8,
		BaseDecay:       0.22,
		DecayRelief:     0.6,
		Hill:            [NumSubsystems]HillParams{DefaultHill(), DefaultHill(), DefaultHill()},
		DecayMultiplier: [NumSubsystems]float64{1.0, 1.2, 1.5},
		Power:           power.DefaultScaling(),
	}
}

// NewParams validates p and returns it.
func NewParams(p Params) (Params, error) {
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

func (p Params) Validate() error {
	rates := []struct {
		name string
		v    float64
	}{
		{"dwelling_rise", p.DwellingRise},
		{"dwelling_fade", p.DwellingFade},
		{"coupling_boost", p.CouplingBoost},
		{"base_decay", p.BaseDecay},
	}
	for _, r := range rates {
		if !finite(r.v) || r.v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number, got %g", dynamo.ErrInvalidParameter, r.name, r.v)
		}
	}
	if !finite(p.DecayRelief) || p.DecayRelief < 0 || p.DecayRelief > 1 {
		return fmt.Errorf("%w: decay_relief must be in [0, 1], got %g", dynamo.ErrInvalidParameter, p.DecayRelief)
	}

	for i, h := range p.Hill {
		sub := Subsystem(i)
		if !finite(h.Threshold) || h.Threshold <= 0 {
			return fmt.Errorf("%w: %s hill threshold must be positive, got %g", dynamo.ErrInvalidParameter, sub, h.Threshold)
		}
		if !finite(h.Steepness) || h.Steepness <= 0 {
			return fmt.Errorf("%w: %s hill steepness must be positive, got %g", dynamo.ErrInvalidParameter, sub, h.Steepness)
		}
		if !finite(h.Gain) || h.Gain <= 0 {
			return fmt.Errorf("%w: %s hill gain must be positive, got %g", dynamo.ErrInvalidParameter, sub, h.Gain)
		}
		if m := p.DecayMultiplier[i]; !finite(m) || m < 0 {
			return fmt.Errorf("%w: %s decay multiplier must be non-negative, got %g", dynamo.ErrInvalidParameter, sub, m)
		}
	}

	return p.Power.Validate()
}

// Values flattens the scalar parameters into a name/value map.
func (p Params) Values() map[string]float64 {
	values := map[string]float64{
		"dwelling_rise":       p.DwellingRise,
		"dwelling_fade":       p.DwellingFade,
		"coupling_boost":      p.CouplingBoost,
		"base_decay":          p.BaseDecay,
		"decay_relief":        p.DecayRelief,
		"decay_x1":            p.DecayMultiplier[0],
		"decay_x2":            p.DecayMultiplier[1],
		"decay_x3":            p.DecayMultiplier[2],
		"hill_gain":           p.Hill[0].Gain,
		"hill_threshold":      p.Hill[0].Threshold,
		"hill_steepness":      p.Hill[0].Steepness,
		"power_density":       p.Power.Density,
		"volume":              p.Power.Volume,
		"synergy_coefficient": p.Power.Coefficient,
		"synergy_exponent":    p.Power.Exponent,
	}
	for i, h := range p.Hill {
		sub := Subsystem(i)
		values["hill_gain_"+sub.String()] = h.Gain
		values["hill_threshold_"+sub.String()] = h.Threshold
		values["hill_steepness_"+sub.String()] = h.Steepness
	}
	return values
}

// SplitHillName parses a per-subsystem Hill name such as hill_gain_x2 into
// its field ("gain") and subsystem.
func SplitHillName(name string) (string, Subsystem, bool) {
	rest, ok := strings.CutPrefix(name, "hill_")
	if !ok {
		return "", 0, false
	}
	i := strings.LastIndex(rest, "_x")
	if i < 0 {
		return "", 0, false
	}
	sub, err := ParseSubsystem(rest[i+1:])
	if err != nil {
		return "", 0, false
	}
	field := rest[:i]
	var h HillParams
	if !h.Set(field, 0) {
		return "", 0, false
	}
	return field, sub, true
}

// ParamNames lists the names accepted by [Params.With].
func ParamNames() []string {
	names := make([]string, 0, 16)
	for name := range DefaultParams().Values() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// With returns a validated copy of p with one named parameter replaced.
// hill_gain, hill_threshold and hill_steepness set that field for all
// three subsystems; the _x1/_x2/_x3 forms set one.
func (p Params) With(name string, v float64) (Params, error) {
	q := p
	if field, sub, ok := SplitHillName(name); ok {
		q.Hill[sub].Set(field, v)
		return NewParams(q)
	}
	switch name {
	case "dwelling_rise":
		q.DwellingRise = v
	case "dwelling_fade":
		q.DwellingFade = v
	case "coupling_boost":
		q.CouplingBoost = v
	case "base_decay":
		q.BaseDecay = v
	case "decay_relief":
		q.DecayRelief = v
	case "decay_x1":
		q.DecayMultiplier[0] = v
	case "decay_x2":
		q.DecayMultiplier[1] = v
	case "decay_x3":
		q.DecayMultiplier[2] = v
	case "hill_gain":
		for i := range q.Hill {
			q.Hill[i].Gain = v
		}
	case "hill_threshold":
		for i := range q.Hill {
			q.Hill[i].Threshold = v
		}
	case "hill_steepness":
		for i := range q.Hill {
			q.Hill[i].Steepness = v
		}
	case "power_density":
		q.Power.Density = v
	case "volume":
		q.Power.Volume = v
	case "synergy_coefficient":
		q.Power.Coefficient = v
	case "synergy_exponent":
		q.Power.Exponent = v
	default:
		return p, fmt.Errorf("%w: unknown parameter %q", dynamo.ErrInvalidParameter, name)
	}
	return NewParams(q)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
