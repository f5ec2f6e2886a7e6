package analysis

import (
	"fmt"

	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/triad"
)

// DefaultLateWindow is the number of trailing samples averaged for the
// late-stage readout.
const DefaultLateWindow = 100

// LateAverage returns the per-component mean of the last n states of tr.
// n larger than the trajectory averages all of it. An empty trajectory or
// n <= 0 yields nil.
func LateAverage(tr dynamo.Trajectory, n int) dynamo.State {
	if n <= 0 || tr.Len() == 0 {
		return nil
	}
	if n > tr.Len() {
		n = tr.Len()
	}
	tail := tr.States[tr.Len()-n:]
	avg := make(dynamo.State, len(tail[0]))
	for _, s := range tail {
		for i := range avg {
			if i < len(s) {
				avg[i] += s[i]
			}
		}
	}
	for i := range avg {
		avg[i] /= float64(n)
	}
	return avg
}

// Drift is the Euclidean distance between the final state and the late
// average. A run that has settled drifts little. A nil late average yields 0.
func Drift(final, late dynamo.State) float64 {
	if len(late) == 0 {
		return 0
	}
	return final.Sub(late).Norm()
}

type Regime int

const (
	Transitional Regime = iota
	Stuck
	Coherent
)

func (r Regime) String() string {
	switch r {
	case Stuck:
		return "stuck"
	case Coherent:
		return "coherent"
	case Transitional:
		return "transitional"
	default:
		return fmt.Sprintf("regime(%d)", int(r))
	}
}

func (r Regime) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Classify labels a state by where it sits relative to the two attractors.
func Classify(s dynamo.State) Regime {
	c, d := triad.Coherence(s), triad.Dwelling(s)
	switch {
	case c < 0.05 && d > 0.9:
		return Stuck
	case c > 0.9 && d < 0.1:
		return Coherent
	default:
		return Transitional
	}
}
