package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/san-kum/triadsim/internal/dynamo"
)

func TestLateAverage(t *testing.T) {
	tr := dynamo.Trajectory{
		Times: []float64{0, 1, 2, 3},
		States: []dynamo.State{
			{0, 0, 0, 1},
			{1, 1, 1, 1},
			{2, 2, 2, 0},
			{4, 4, 4, 0},
		},
	}

	assert.Equal(t, dynamo.State{3, 3, 3, 0}, LateAverage(tr, 2))
	assert.Equal(t, dynamo.State{1.75, 1.75, 1.75, 0.5}, LateAverage(tr, 10), "window larger than trajectory averages everything")
	assert.Nil(t, LateAverage(tr, 0))
	assert.Nil(t, LateAverage(dynamo.Trajectory{}, 5))
}

func TestLateAverageDoesNotAlias(t *testing.T) {
	tr := dynamo.Trajectory{Times: []float64{0}, States: []dynamo.State{{1, 2, 3, 4}}}
	avg := LateAverage(tr, 1)
	avg[0] = 99
	assert.Equal(t, 1.0, tr.States[0][0])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		state dynamo.State
		want  Regime
	}{
		{"trap", dynamo.State{0.01, 0.01, 0.01, 0.99}, Stuck},
		{"coherent", dynamo.State{0.97, 0.96, 0.95, 0.02}, Coherent},
		{"initial", dynamo.State{0.2, 0.1, 0.15, 0.6}, Transitional},
		{"low maturity low dwelling", dynamo.State{0.01, 0.01, 0.01, 0.5}, Transitional},
		{"high maturity high dwelling", dynamo.State{0.95, 0.95, 0.95, 0.5}, Transitional},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.state))
		})
	}
}

func TestRegimeString(t *testing.T) {
	assert.Equal(t, "stuck", Stuck.String())
	assert.Equal(t, "coherent", Coherent.String())
	assert.Equal(t, "transitional", Transitional.String())
	b, err := Coherent.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "coherent", string(b))
}

func TestDrift(t *testing.T) {
	assert.InDelta(t, 5.0, Drift(dynamo.State{3, 4, 1, 0}, dynamo.State{0, 0, 1, 0}), 1e-12)
	assert.Zero(t, Drift(dynamo.State{0.5, 0.5, 0.5, 0.1}, dynamo.State{0.5, 0.5, 0.5, 0.1}))
	assert.Zero(t, Drift(dynamo.State{1, 1, 1, 1}, nil))
}
