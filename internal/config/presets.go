package config

import "sort"

// Preset is a named variation on the default configuration.
type Preset struct {
	Description string
	apply       func(*Config)
}

var Presets = map[string]Preset{
	"baseline": {
		Description: "reference parameters and the none/phase1/both scenarios",
		apply:       func(c *Config) {},
	},
	"resilient": {
		Description: "weak decay (base_decay 0.08); the triad can self-organize",
		apply: func(c *Config) {
			c.Params.BaseDecay = 0.08
		},
	},
	"fragile": {
		Description: "strong decay (base_decay 0.3) and faster dwelling rise (0.5)",
		apply: func(c *Config) {
			c.Params.BaseDecay = 0.3
			c.Params.DwellingRise = 0.5
		},
	},
	"long": {
		Description: "reference parameters over t in [0, 150]",
		apply: func(c *Config) {
			c.Grid.End = 150
			c.Grid.Samples = 1500
			c.LateWindow = 300
		},
	},
}

// GetPreset returns a fresh configuration for the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
