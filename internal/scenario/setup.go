package scenario

import (
	"fmt"

	"github.com/san-kum/triadsim/internal/analysis"
	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/integrators"
	"github.com/san-kum/triadsim/internal/triad"
)

// Setup is everything scenarios share: parameters, initial state, output
// grid and solver settings.
type Setup struct {
	Params     triad.Params
	Initial    dynamo.State
	Times      []float64
	Method     string
	Sim        dynamo.Config
	LateWindow int
}

func DefaultSetup() Setup {
	return Setup{
		Params:     triad.DefaultParams(),
		Initial:    triad.DefaultInitialState(),
		Times:      dynamo.Linspace(0, 50, 500),
		Method:     "rk45",
		Sim:        dynamo.DefaultConfig(),
		LateWindow: analysis.DefaultLateWindow,
	}
}

func (s Setup) Validate() error {
	if err := s.Params.Validate(); err != nil {
		return err
	}
	if err := (&triad.Model{}).ValidateState(s.Initial); err != nil {
		return err
	}
	if err := dynamo.ValidateGrid(s.Times); err != nil {
		return err
	}
	if _, err := integrators.New(s.Method); err != nil {
		return err
	}
	if s.LateWindow < 0 {
		return fmt.Errorf("%w: late window must be non-negative, got %d", dynamo.ErrInvalidParameter, s.LateWindow)
	}
	return nil
}
