// Package analysis characterizes triad trajectories after a run.
//
//   - [LateAverage]: per-component mean over the tail of a trajectory
//   - [Classify]: stuck / coherent / transitional equilibrium label
//   - [Sweep]: one-parameter scan exposing the bistable switch
//   - [NewPortrait]: coherence-dwelling phase portrait
//
// # Bistability
//
// Without intervention the model settles into a trap with high dwelling and
// near-zero maturity. A sweep over base_decay shows where that trap stops
// existing:
//
//	points, err := analysis.Sweep(ctx, analysis.SweepConfig{
//	    Param:  "base_decay",
//	    Values: dynamo.Linspace(0.02, 0.3, 15),
//	    ...
//	})
//	fmt.Print(analysis.SweepToASCII(points, 60, 15))
package analysis
