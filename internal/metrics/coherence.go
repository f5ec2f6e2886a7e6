package metrics

import (
	"math"

	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/triad"
)

// DefaultCoherenceThreshold is the coherence level counted as "reached".
const DefaultCoherenceThreshold = 0.9

type CoherencePeak struct {
	name string
	peak float64
	seen bool
}

func NewCoherencePeak() *CoherencePeak {
	return &CoherencePeak{name: "coherence_peak"}
}

func (c *CoherencePeak) Name() string { return c.name }

func (c *CoherencePeak) Observe(x dynamo.State, t float64) {
	v := triad.Coherence(x)
	if !c.seen || v > c.peak {
		c.peak = v
		c.seen = true
	}
}

func (c *CoherencePeak) Value() float64 { return c.peak }

func (c *CoherencePeak) Reset() {
	c.peak = 0
	c.seen = false
}

type DwellingPeak struct {
	name string
	peak float64
	seen bool
}

func NewDwellingPeak() *DwellingPeak {
	return &DwellingPeak{name: "dwelling_peak"}
}

func (d *DwellingPeak) Name() string { return d.name }

func (d *DwellingPeak) Observe(x dynamo.State, t float64) {
	v := triad.Dwelling(x)
	if !d.seen || v > d.peak {
		d.peak = v
		d.seen = true
	}
}

func (d *DwellingPeak) Value() float64 { return d.peak }

func (d *DwellingPeak) Reset() {
	d.peak = 0
	d.seen = false
}

// TimeToCoherence records the first sample time at which coherence reaches
// the threshold. Value is -1 until that happens.
type TimeToCoherence struct {
	name      string
	threshold float64
	at        float64
}

func NewTimeToCoherence(threshold float64) *TimeToCoherence {
	return &TimeToCoherence{
		name:      "time_to_coherence",
		threshold: threshold,
		at:        -1,
	}
}

func (c *TimeToCoherence) Name() string { return c.name }

func (c *TimeToCoherence) Observe(x dynamo.State, t float64) {
	if c.at < 0 && triad.Coherence(x) >= c.threshold {
		c.at = t
	}
}

func (c *TimeToCoherence) Value() float64 { return c.at }

func (c *TimeToCoherence) Reset() { c.at = -1 }

// MeanCoherence is the time-weighted (trapezoidal) mean coherence over the
// samples seen so far. A single sample yields its own coherence.
type MeanCoherence struct {
	name     string
	integral float64
	first    float64
	lastT    float64
	lastC    float64
	samples  int
}

func NewMeanCoherence() *MeanCoherence {
	return &MeanCoherence{name: "mean_coherence"}
}

func (m *MeanCoherence) Name() string { return m.name }

func (m *MeanCoherence) Observe(x dynamo.State, t float64) {
	c := triad.Coherence(x)
	if m.samples == 0 {
		m.first = t
	} else {
		m.integral += 0.5 * (c + m.lastC) * (t - m.lastT)
	}
	m.lastT, m.lastC = t, c
	m.samples++
}

func (m *MeanCoherence) Value() float64 {
	switch {
	case m.samples == 0:
		return 0
	case m.samples == 1:
		return m.lastC
	}
	span := m.lastT - m.first
	if span <= 0 || math.IsNaN(m.integral) {
		return m.lastC
	}
	return m.integral / span
}

func (m *MeanCoherence) Reset() {
	m.integral = 0
	m.first = 0
	m.lastT = 0
	m.lastC = 0
	m.samples = 0
}

// Standard returns a fresh set of the metrics reported for every scenario.
func Standard() []dynamo.Metric {
	return []dynamo.Metric{
		NewCoherencePeak(),
		NewDwellingPeak(),
		NewTimeToCoherence(DefaultCoherenceThreshold),
		NewMeanCoherence(),
	}
}
