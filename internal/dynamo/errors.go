package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidParameter indicates a model parameter outside its valid range.
	ErrInvalidParameter = errors.New("dynamo: invalid parameter")

	// ErrInvalidInitialState indicates an initial state the system rejects.
	ErrInvalidInitialState = errors.New("dynamo: invalid initial state")

	// ErrNumericalDivergence indicates a non-finite derivative or state.
	ErrNumericalDivergence = errors.New("dynamo: numerical divergence (NaN or Inf detected)")

	// ErrInvalidGrid indicates an empty, non-finite or non-increasing time grid.
	ErrInvalidGrid = errors.New("dynamo: invalid time grid")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrStepLimit indicates the run exhausted its step budget.
	ErrStepLimit = errors.New("dynamo: step budget exhausted")

	// ErrDimensionMismatch indicates a state of the wrong length for the system.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
