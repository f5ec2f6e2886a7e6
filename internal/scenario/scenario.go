// Package scenario runs named intervention scenarios against the triad model
// and collects their outcomes into a [Report].
package scenario

import (
	"fmt"
	"regexp"

	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/power"
	"github.com/san-kum/triadsim/internal/triad"
)

// Scenario names a nudge schedule and the power law applied to its
// trajectory.
type Scenario struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Mode        power.Mode    `yaml:"power" json:"power"`
	Nudges      []triad.Nudge `yaml:"nudges,omitempty" json:"nudges,omitempty"`
}

// Schedule validates the nudges and returns them as an immutable schedule.
func (s Scenario) Schedule() (triad.Schedule, error) {
	sched, err := triad.NewSchedule(s.Nudges...)
	if err != nil {
		return triad.Schedule{}, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return sched, nil
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// CheckName reports whether name can label a scenario. Names become file
// names in saved runs, so only letters, digits, '_' and '-' are allowed.
func CheckName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: scenario without a name", dynamo.ErrInvalidParameter)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: scenario name %q may only contain letters, digits, '_' and '-'",
			dynamo.ErrInvalidParameter, name)
	}
	return nil
}

func (s Scenario) Validate() error {
	if err := CheckName(s.Name); err != nil {
		return err
	}
	_, err := s.Schedule()
	return err
}

const (
	None   = "none"
	Phase1 = "phase1"
	Both   = "both"
)

// Defaults returns the three reference scenarios: no intervention, a
// baseline-tech push at t=10, and that push plus a quantum-layer push at
// t=25 with synergy-scaled power.
func Defaults() []Scenario {
	phase1 := triad.Nudge{Target: triad.Baseline, Start: 10, End: 12, Magnitude: 0.5}
	phase2 := triad.Nudge{Target: triad.Quantum, Start: 25, End: 27, Magnitude: 0.5}
	return []Scenario{
		{
			Name:        None,
			Description: "no intervention",
			Mode:        power.Off,
		},
		{
			Name:        Phase1,
			Description: "baseline tech push",
			Mode:        power.Baseline,
			Nudges:      []triad.Nudge{phase1},
		},
		{
			Name:        Both,
			Description: "baseline push then quantum push",
			Mode:        power.Synergy,
			Nudges:      []triad.Nudge{phase1, phase2},
		},
	}
}

// Find returns the scenario called name.
func Find(scenarios []Scenario, name string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// Names lists scenario names in declaration order.
func Names(scenarios []Scenario) []string {
	out := make([]string, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.Name
	}
	return out
}
