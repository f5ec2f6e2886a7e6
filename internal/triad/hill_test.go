package triad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHillZero(t *testing.T) {
	assert.Zero(t, Hill(0, DefaultHill()))
	assert.Zero(t, Hill(-0.3, DefaultHill()), "negative maturity produces no activation")
}

func TestHillAtThresholdIsHalfGain(t *testing.T) {
	h := HillParams{Gain: 4, Threshold: 0.3, Steepness: 2.5}
	assert.InDelta(t, 2.0, Hill(0.3, h), 1e-12)
}

func TestHillBoundedAndIncreasing(t *testing.T) {
	shapes := []HillParams{
		DefaultHill(),
		{Gain: 1, Threshold: 0.2, Steepness: 1},
		{Gain: 3.5, Threshold: 0.8, Steepness: 2.5},
	}
	for _, h := range shapes {
		prev := -1.0
		for x := 0.0; x <= 3.0; x += 0.01 {
			v := Hill(x, h)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, h.Gain, "hill must stay below its gain at x=%.2f", x)
			if x > 0 {
				assert.Greater(t, v, prev, "hill %+v not increasing at x=%.2f", h, x)
			}
			prev = v
		}
	}
}

func TestHillSaturates(t *testing.T) {
	h := DefaultHill()
	assert.InDelta(t, h.Gain, Hill(50, h), 1e-6)
	assert.False(t, math.IsNaN(Hill(1e10, h)))
}
