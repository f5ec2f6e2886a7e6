package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/power"
	"github.com/san-kum/triadsim/internal/scenario"
	"github.com/san-kum/triadsim/internal/triad"
)

func TestDefaultConfigBuildsDefaultSetup(t *testing.T) {
	setup, scenarios, err := DefaultConfig().Build()
	require.NoError(t, err)

	if diff := cmp.Diff(scenario.DefaultSetup(), setup); diff != "" {
		t.Errorf("setup mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(scenario.Defaults(), scenarios, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("scenarios mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triad.yaml")
	cfg := GetPreset("fragile")
	require.NotNil(t, cfg)

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)

	if diff := cmp.Diff(cfg, loaded, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	doc := `
params:
  base_decay: 0.1
grid:
  end: 80
scenarios:
  - name: quantum-only
    power: synergy
    nudges:
      - {target: x2, start: 5, end: 9, magnitude: 0.4}
      - {target: 3, start: 5, end: 9, magnitude: 0.2}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.1, cfg.Params.BaseDecay)
	assert.Equal(t, 0.35, cfg.Params.DwellingRise, "unset fields keep defaults")
	assert.Equal(t, 80.0, cfg.Grid.End)
	assert.Equal(t, DefaultSamples, cfg.Grid.Samples)

	require.Len(t, cfg.Scenarios, 1)
	sc := cfg.Scenarios[0]
	assert.Equal(t, "quantum-only", sc.Name)
	assert.Equal(t, power.Synergy, sc.Mode)
	require.Len(t, sc.Nudges, 2)
	assert.Equal(t, triad.Quantum, sc.Nudges[0].Target)
	assert.Equal(t, triad.Integration, sc.Nudges[1].Target)

	setup, _, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, 80.0, setup.Times[len(setup.Times)-1])
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenarios:\n  - name: x\n    power: turbo\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"negative rate", func(c *Config) { c.Params.DwellingFade = -0.1 }, dynamo.ErrInvalidParameter},
		{"zero threshold", func(c *Config) { c.Params.Hill.Threshold = 0 }, dynamo.ErrInvalidParameter},
		{"zero volume", func(c *Config) { c.Params.Power.Volume = 0 }, dynamo.ErrInvalidParameter},
		{"two multipliers", func(c *Config) { c.Params.DecayMultipliers = []float64{1, 1} }, dynamo.ErrInvalidParameter},
		{"two hill entries", func(c *Config) {
			c.Params.HillPerSubsystem = []triad.HillParams{triad.DefaultHill(), triad.DefaultHill()}
		}, dynamo.ErrInvalidParameter},
		{"negative initial", func(c *Config) { c.Initial.X2 = -0.5 }, dynamo.ErrInvalidInitialState},
		{"one sample", func(c *Config) { c.Grid.Samples = 1 }, dynamo.ErrInvalidGrid},
		{"reversed grid", func(c *Config) { c.Grid.End = -1 }, dynamo.ErrInvalidGrid},
		{"no scenarios", func(c *Config) { c.Scenarios = nil }, dynamo.ErrInvalidParameter},
		{"duplicate scenario", func(c *Config) { c.Scenarios = append(c.Scenarios, c.Scenarios[0]) }, dynamo.ErrInvalidParameter},
		{"empty window", func(c *Config) {
			c.Scenarios[1].Nudges = []triad.Nudge{{Target: triad.Baseline, Start: 12, End: 10, Magnitude: 0.5}}
		}, dynamo.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}

	cfg := DefaultConfig()
	cfg.Solver.Method = "leapfrog"
	assert.Error(t, cfg.Validate())

	assert.NoError(t, DefaultConfig().Validate())
}

func TestSet(t *testing.T) {
	cfg := DefaultConfig()
	for _, name := range triad.ParamNames() {
		require.NoError(t, cfg.Set(name, 0.42), name)
	}

	setup, _, err := cfg.Build()
	require.NoError(t, err)
	for name, v := range setup.Params.Values() {
		assert.Equal(t, 0.42, v, name)
	}

	assert.ErrorIs(t, cfg.Set("warp_factor", 9), dynamo.ErrInvalidParameter)
}

func TestPerSubsystemHill(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hill.yaml")
	doc := `
params:
  hill_per_subsystem:
    - {gain: 8, threshold: 0.4, steepness: 5}
    - {gain: 12, threshold: 0.6, steepness: 7}
    - {gain: 10, threshold: 0.5, steepness: 6}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)

	setup, _, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, triad.HillParams{Gain: 8, Threshold: 0.4, Steepness: 5}, setup.Params.Hill[triad.Baseline])
	assert.Equal(t, triad.HillParams{Gain: 12, Threshold: 0.6, Steepness: 7}, setup.Params.Hill[triad.Quantum])
	assert.Equal(t, triad.DefaultHill(), setup.Params.Hill[triad.Integration])
}

func TestSetPerSubsystemHill(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Set("hill_gain_x2", 15))
	require.Len(t, cfg.Params.HillPerSubsystem, triad.NumSubsystems)

	setup, _, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, triad.DefaultHill(), setup.Params.Hill[triad.Baseline])
	assert.Equal(t, 15.0, setup.Params.Hill[triad.Quantum].Gain)
	assert.Equal(t, triad.DefaultHill(), setup.Params.Hill[triad.Integration])

	require.NoError(t, cfg.Set("hill_threshold", 0.3))
	setup, _, err = cfg.Build()
	require.NoError(t, err)
	for _, h := range setup.Params.Hill {
		assert.Equal(t, 0.3, h.Threshold)
	}
	assert.Equal(t, 15.0, setup.Params.Hill[triad.Quantum].Gain, "shared names keep per-subsystem overrides")
}

func TestSetDoesNotAliasDefaults(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	require.NoError(t, a.Set("decay_x2", 3))
	assert.Equal(t, 1.2, b.Params.DecayMultipliers[1])
	assert.Equal(t, 3.0, a.Params.DecayMultipliers[1])
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("resilient")
	require.NotNil(t, cfg)
	assert.Equal(t, 0.08, cfg.Params.BaseDecay)
	assert.NoError(t, cfg.Validate())

	cfg.Params.BaseDecay = 1
	assert.Equal(t, 0.08, GetPreset("resilient").Params.BaseDecay, "presets are fresh copies")

	assert.Nil(t, GetPreset("nonexistent"))
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	assert.Equal(t, []string{"baseline", "fragile", "long", "resilient"}, names)
	for _, name := range names {
		assert.NoError(t, GetPreset(name).Validate(), name)
		assert.NotEmpty(t, Presets[name].Description)
	}
}
