package triad

import (
	"fmt"

	"github.com/san-kum/triadsim/internal/dynamo"
)

// Nudge adds Magnitude to the Target subsystem's growth rate for every
// t in [Start, End).
type Nudge struct {
	Target    Subsystem `yaml:"target" json:"target"`
	Start     float64   `yaml:"start" json:"start"`
	End       float64   `yaml:"end" json:"end"`
	Magnitude float64   `yaml:"magnitude" json:"magnitude"`
}

func (n Nudge) Active(t float64) bool {
	return t >= n.Start && t < n.End
}

func (n Nudge) validate() error {
	if !n.Target.Valid() {
		return fmt.Errorf("%w: nudge target %s", dynamo.ErrInvalidParameter, n.Target)
	}
	if !finite(n.Start) || !finite(n.End) || !finite(n.Magnitude) {
		return fmt.Errorf("%w: nudge on %s has non-finite fields", dynamo.ErrInvalidParameter, n.Target)
	}
	if n.End <= n.Start {
		return fmt.Errorf("%w: nudge on %s ends at %g, not after its start %g", dynamo.ErrInvalidParameter, n.Target, n.End, n.Start)
	}
	return nil
}

// Schedule is an immutable set of nudges. The zero value has no nudges.
type Schedule struct {
	entries []Nudge
}

// NewSchedule validates and copies the given nudges.
func NewSchedule(nudges ...Nudge) (Schedule, error) {
	entries := make([]Nudge, 0, len(nudges))
	for _, n := range nudges {
		if err := n.validate(); err != nil {
			return Schedule{}, err
		}
		entries = append(entries, n)
	}
	return Schedule{entries: entries}, nil
}

// Boost is the summed magnitude of every nudge on target active at t.
// Overlapping nudges stack without a cap.
func (s Schedule) Boost(t float64, target Subsystem) float64 {
	total := 0.0
	for _, n := range s.entries {
		if n.Target == target && n.Active(t) {
			total += n.Magnitude
		}
	}
	return total
}

func (s Schedule) Len() int { return len(s.entries) }

// Entries returns a copy of the nudges in declaration order.
func (s Schedule) Entries() []Nudge {
	out := make([]Nudge, len(s.entries))
	copy(out, s.entries)
	return out
}

// Starts returns the distinct nudge start times in declaration order.
func (s Schedule) Starts() []float64 {
	seen := make(map[float64]bool, len(s.entries))
	out := make([]float64, 0, len(s.entries))
	for _, n := range s.entries {
		if !seen[n.Start] {
			seen[n.Start] = true
			out = append(out, n.Start)
		}
	}
	return out
}

// Edges returns every nudge start and end time, where the boost jumps.
func (s Schedule) Edges() []float64 {
	out := make([]float64, 0, 2*len(s.entries))
	for _, n := range s.entries {
		out = append(out, n.Start, n.End)
	}
	return out
}
