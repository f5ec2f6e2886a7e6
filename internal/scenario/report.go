package scenario

import (
	"time"

	"github.com/san-kum/triadsim/internal/analysis"
	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/triad"
)

// Outcome is the result of one scenario run.
type Outcome struct {
	Scenario   Scenario
	Trajectory dynamo.Trajectory
	Power      []float64

	Final      dynamo.State
	Coherence  float64
	Dwelling   float64
	FinalPower float64

	Late    dynamo.State
	Drift   float64
	Regime  analysis.Regime
	Metrics map[string]float64

	Steps    int
	Rejected int
	Elapsed  time.Duration
}

func (o *Outcome) Name() string { return o.Scenario.Name }

// CoherenceSeries is the coherence at every sample.
func (o *Outcome) CoherenceSeries() []float64 {
	return o.Trajectory.Map(triad.Coherence)
}

// DwellingSeries is the dwelling at every sample.
func (o *Outcome) DwellingSeries() []float64 {
	return o.Trajectory.Component(triad.IdxDwelling)
}

// LateSynergy is the late-stage x2·x3 product that drives the synergy
// factor.
func (o *Outcome) LateSynergy() float64 {
	if len(o.Late) < triad.StateDim {
		return 0
	}
	return o.Late[triad.IdxX2] * o.Late[triad.IdxX3]
}

// Failure records a scenario that did not complete.
type Failure struct {
	Scenario string
	Err      error
}

// Report holds outcomes in scenario declaration order. Failed scenarios are
// listed in Failed and absent from Outcomes.
type Report struct {
	Setup    Setup
	Outcomes []*Outcome
	Failed   []Failure
}

func (r *Report) Outcome(name string) (*Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Name() == name {
			return o, true
		}
	}
	return nil, false
}

// BoostFactor is the ratio of final power between two scenarios, typically
// both over phase1. It reports false when either is missing or the
// denominator produced no power.
func (r *Report) BoostFactor(numerator, denominator string) (float64, bool) {
	num, ok := r.Outcome(numerator)
	if !ok {
		return 0, false
	}
	den, ok := r.Outcome(denominator)
	if !ok || den.FinalPower == 0 {
		return 0, false
	}
	return num.FinalPower / den.FinalPower, true
}
