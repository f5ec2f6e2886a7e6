// Package triad implements the triadic technology-maturity model.
//
// The state is [x1, x2, x3, d]: the maturity of three coupled subsystems
// (baseline technology, quantum stability enhancement, GW-scale
// integration) and a dwelling level d that models stagnation traps.
// Coherence is the mean of x1, x2 and x3 and is always recomputed from
// the state it describes.
//
// Each subsystem grows in response to the Hill activations of the other
// two, scaled by a coupling factor that rises with dwelling, and decays at
// a rate that dwelling relieves. Dwelling itself rises while coherence is
// low and fades once coherence is high, which gives the system two stable
// regimes: stuck (low coherence, high dwelling) and coherent.
//
// Interventions are expressed as a [Schedule] of time-windowed [Nudge]
// entries that add directly to a subsystem's growth rate while active.
//
// # Example
//
//	params := triad.DefaultParams()
//	sched, _ := triad.NewSchedule(triad.Nudge{Target: triad.Baseline, Start: 10, End: 12, Magnitude: 0.5})
//	model := triad.NewModel(params, sched)
//	dx := model.Derive(triad.DefaultInitialState(), 11)
package triad
