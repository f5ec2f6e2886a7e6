package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/triadsim/internal/analysis"
	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/power"
	"github.com/san-kum/triadsim/internal/scenario"
	"github.com/san-kum/triadsim/internal/triad"
)

const (
	DefaultStart   = 0.0
	DefaultEnd     = 50.0
	DefaultSamples = 500
	DefaultMethod  = "rk45"
)

type Config struct {
	Params     ParamsConfig        `yaml:"params"`
	Initial    InitialConfig       `yaml:"initial"`
	Grid       GridConfig          `yaml:"grid"`
	Solver     SolverConfig        `yaml:"solver"`
	LateWindow int                 `yaml:"late_window"`
	Scenarios  []scenario.Scenario `yaml:"scenarios"`
}

type ParamsConfig struct {
	DwellingRise     float64          `yaml:"dwelling_rise"`
	DwellingFade     float64          `yaml:"dwelling_fade"`
	CouplingBoost    float64          `yaml:"coupling_boost"`
	BaseDecay        float64          `yaml:"base_decay"`
	DecayRelief      float64          `yaml:"decay_relief"`
	DecayMultipliers []float64        `yaml:"decay_multipliers,flow"`
	Hill             triad.HillParams `yaml:"hill"`
	// HillPerSubsystem, when set, overrides Hill with one entry per
	// subsystem in x1, x2, x3 order.
	HillPerSubsystem []triad.HillParams `yaml:"hill_per_subsystem,omitempty"`
	Power            PowerConfig        `yaml:"power"`
}

type PowerConfig struct {
	Density            float64 `yaml:"density"`
	Volume             float64 `yaml:"volume"`
	SynergyCoefficient float64 `yaml:"synergy_coefficient"`
	SynergyExponent    float64 `yaml:"synergy_exponent"`
}

type InitialConfig struct {
	X1       float64 `yaml:"x1"`
	X2       float64 `yaml:"x2"`
	X3       float64 `yaml:"x3"`
	Dwelling float64 `yaml:"d"`
}

type GridConfig struct {
	Start   float64 `yaml:"start"`
	End     float64 `yaml:"end"`
	Samples int     `yaml:"samples"`
}

type SolverConfig struct {
	Method   string  `yaml:"method"`
	Dt       float64 `yaml:"dt"`
	MaxDt    float64 `yaml:"max_dt"`
	MinDt    float64 `yaml:"min_dt"`
	Atol     float64 `yaml:"atol"`
	Rtol     float64 `yaml:"rtol"`
	MaxSteps int     `yaml:"max_steps"`
}

func DefaultConfig() *Config {
	p := triad.DefaultParams()
	x0 := triad.DefaultInitialState()
	sim := dynamo.DefaultConfig()
	return &Config{
		Params: ParamsConfig{
			DwellingRise:     p.DwellingRise,
			DwellingFade:     p.DwellingFade,
			CouplingBoost:    p.CouplingBoost,
			BaseDecay:        p.BaseDecay,
			DecayRelief:      p.DecayRelief,
			DecayMultipliers: p.DecayMultiplier[:],
			Hill:             p.Hill[0],
			Power: PowerConfig{
				Density:            p.Power.Density,
				Volume:             p.Power.Volume,
				SynergyCoefficient: p.Power.Coefficient,
				SynergyExponent:    p.Power.Exponent,
			},
		},
		Initial: InitialConfig{
			X1:       x0[triad.IdxX1],
			X2:       x0[triad.IdxX2],
			X3:       x0[triad.IdxX3],
			Dwelling: x0[triad.IdxDwelling],
		},
		Grid: GridConfig{
			Start:   DefaultStart,
			End:     DefaultEnd,
			Samples: DefaultSamples,
		},
		Solver: SolverConfig{
			Method:   DefaultMethod,
			Dt:       sim.Dt,
			MaxDt:    sim.MaxDt,
			MinDt:    sim.MinDt,
			Atol:     sim.Tolerance.Abs,
			Rtol:     sim.Tolerance.Rel,
			MaxSteps: sim.MaxSteps,
		},
		LateWindow: analysis.DefaultLateWindow,
		Scenarios:  scenario.Defaults(),
	}
}

// Load reads a YAML file over the defaults, so a file only needs the
// fields it changes. A scenarios list, when present, replaces the defaults
// entirely.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first problem Build would hit.
func (c *Config) Validate() error {
	_, _, err := c.Build()
	return err
}

// Build converts the file representation into a validated run setup and
// scenario list.
func (c *Config) Build() (scenario.Setup, []scenario.Scenario, error) {
	params, err := c.params()
	if err != nil {
		return scenario.Setup{}, nil, err
	}

	if c.Grid.Samples < 2 {
		return scenario.Setup{}, nil, fmt.Errorf("%w: grid needs at least 2 samples, got %d", dynamo.ErrInvalidGrid, c.Grid.Samples)
	}
	if c.Grid.End <= c.Grid.Start {
		return scenario.Setup{}, nil, fmt.Errorf("%w: grid end %g is not after start %g", dynamo.ErrInvalidGrid, c.Grid.End, c.Grid.Start)
	}

	setup := scenario.Setup{
		Params:  params,
		Initial: dynamo.State{c.Initial.X1, c.Initial.X2, c.Initial.X3, c.Initial.Dwelling},
		Times:   dynamo.Linspace(c.Grid.Start, c.Grid.End, c.Grid.Samples),
		Method:  c.Solver.Method,
		Sim: dynamo.Config{
			Dt:        c.Solver.Dt,
			Tolerance: dynamo.Tolerance{Abs: c.Solver.Atol, Rel: c.Solver.Rtol},
			MaxDt:     c.Solver.MaxDt,
			MinDt:     c.Solver.MinDt,
			MaxSteps:  c.Solver.MaxSteps,
		},
		LateWindow: c.LateWindow,
	}
	if err := setup.Validate(); err != nil {
		return scenario.Setup{}, nil, err
	}

	if len(c.Scenarios) == 0 {
		return scenario.Setup{}, nil, fmt.Errorf("%w: no scenarios configured", dynamo.ErrInvalidParameter)
	}
	seen := make(map[string]bool, len(c.Scenarios))
	for _, s := range c.Scenarios {
		if err := s.Validate(); err != nil {
			return scenario.Setup{}, nil, err
		}
		if seen[s.Name] {
			return scenario.Setup{}, nil, fmt.Errorf("%w: duplicate scenario %q", dynamo.ErrInvalidParameter, s.Name)
		}
		seen[s.Name] = true
	}

	scenarios := make([]scenario.Scenario, len(c.Scenarios))
	copy(scenarios, c.Scenarios)
	return setup, scenarios, nil
}

func (c *Config) params() (triad.Params, error) {
	pc := c.Params
	if len(pc.DecayMultipliers) != triad.NumSubsystems {
		return triad.Params{}, fmt.Errorf("%w: decay_multipliers needs %d entries, got %d",
			dynamo.ErrInvalidParameter, triad.NumSubsystems, len(pc.DecayMultipliers))
	}
	if n := len(pc.HillPerSubsystem); n != 0 && n != triad.NumSubsystems {
		return triad.Params{}, fmt.Errorf("%w: hill_per_subsystem needs %d entries, got %d",
			dynamo.ErrInvalidParameter, triad.NumSubsystems, n)
	}

	p := triad.Params{
		DwellingRise:  pc.DwellingRise,
		DwellingFade:  pc.DwellingFade,
		CouplingBoost: pc.CouplingBoost,
		BaseDecay:     pc.BaseDecay,
		DecayRelief:   pc.DecayRelief,
		Power: power.Scaling{
			Density:     pc.Power.Density,
			Volume:      pc.Power.Volume,
			Coefficient: pc.Power.SynergyCoefficient,
			Exponent:    pc.Power.SynergyExponent,
		},
	}
	for i := range p.Hill {
		p.Hill[i] = pc.Hill
		if len(pc.HillPerSubsystem) == triad.NumSubsystems {
			p.Hill[i] = pc.HillPerSubsystem[i]
		}
		p.DecayMultiplier[i] = pc.DecayMultipliers[i]
	}
	return triad.NewParams(p)
}

// Set applies a named model parameter override, using the names accepted
// by triad.Params.With.
func (c *Config) Set(name string, v float64) error {
	pc := &c.Params
	if field, sub, ok := triad.SplitHillName(name); ok {
		hills := pc.hills()
		if len(hills) != triad.NumSubsystems {
			return fmt.Errorf("%w: hill_per_subsystem needs %d entries", dynamo.ErrInvalidParameter, triad.NumSubsystems)
		}
		hills[sub].Set(field, v)
		pc.HillPerSubsystem = hills
		return nil
	}
	switch name {
	case "dwelling_rise":
		pc.DwellingRise = v
	case "dwelling_fade":
		pc.DwellingFade = v
	case "coupling_boost":
		pc.CouplingBoost = v
	case "base_decay":
		pc.BaseDecay = v
	case "decay_relief":
		pc.DecayRelief = v
	case "decay_x1", "decay_x2", "decay_x3":
		if len(pc.DecayMultipliers) != triad.NumSubsystems {
			return fmt.Errorf("%w: decay_multipliers needs %d entries", dynamo.ErrInvalidParameter, triad.NumSubsystems)
		}
		m := append([]float64(nil), pc.DecayMultipliers...)
		m[name[len(name)-1]-'1'] = v
		pc.DecayMultipliers = m
	case "hill_gain", "hill_threshold", "hill_steepness":
		field := strings.TrimPrefix(name, "hill_")
		pc.Hill.Set(field, v)
		if len(pc.HillPerSubsystem) != 0 {
			hills := pc.hills()
			for i := range hills {
				hills[i].Set(field, v)
			}
			pc.HillPerSubsystem = hills
		}
	case "power_density":
		pc.Power.Density = v
	case "volume":
		pc.Power.Volume = v
	case "synergy_coefficient":
		pc.Power.SynergyCoefficient = v
	case "synergy_exponent":
		pc.Power.SynergyExponent = v
	default:
		return fmt.Errorf("%w: unknown parameter %q", dynamo.ErrInvalidParameter, name)
	}
	return nil
}

// hills returns a copy of the per-subsystem Hill list, seeded from the
// shared block when none is configured.
func (pc *ParamsConfig) hills() []triad.HillParams {
	if len(pc.HillPerSubsystem) == 0 {
		return []triad.HillParams{pc.Hill, pc.Hill, pc.Hill}
	}
	return append([]triad.HillParams(nil), pc.HillPerSubsystem...)
}
