package scenario

import (
	"go.uber.org/zap"

	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/triad"
)

// crossingLogger logs the first recorded sample whose coherence reaches
// threshold. One logger serves one simulation.
type crossingLogger struct {
	log       *zap.Logger
	threshold float64
	crossed   bool
}

func newCrossingLogger(log *zap.Logger, threshold float64) *crossingLogger {
	return &crossingLogger{log: log, threshold: threshold}
}

func (c *crossingLogger) OnSample(x dynamo.State, t float64) {
	if c.crossed || triad.Coherence(x) < c.threshold {
		return
	}
	c.crossed = true
	c.log.Debug("coherence threshold crossed",
		zap.Float64("time", t),
		zap.Float64("threshold", c.threshold),
		zap.Float64("dwelling", triad.Dwelling(x)),
	)
}
