package triad

import "math"

// HillParams shapes one subsystem's activation curve.
type HillParams struct {
	Gain      float64 `yaml:"gain" json:"gain"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Steepness float64 `yaml:"steepness" json:"steepness"`
}

// Set assigns one field by its config name: gain, threshold or steepness.
func (h *HillParams) Set(field string, v float64) bool {
	switch field {
	case "gain":
		h.Gain = v
	case "threshold":
		h.Threshold = v
	case "steepness":
		h.Steepness = v
	default:
		return false
	}
	return true
}

func DefaultHill() HillParams {
	return HillParams{Gain: 10.0, Threshold: 0.5, Steepness: 6}
}

// Hill returns Gain·xˢ/(θˢ+xˢ). Non-positive maturity produces no
// activation.
func Hill(x float64, h HillParams) float64 {
	if x <= 0 {
		return 0
	}
	xs := math.Pow(x, h.Steepness)
	return h.Gain * xs / (math.Pow(h.Threshold, h.Steepness) + xs)
}
