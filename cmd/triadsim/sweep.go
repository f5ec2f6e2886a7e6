package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/triadsim/internal/analysis"
	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/scenario"
	"github.com/san-kum/triadsim/internal/triad"
)

var (
	sweepParam    string
	sweepValues   []float64
	sweepFrom     float64
	sweepTo       float64
	sweepSteps    int
	sweepSchedule string
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "scan one model parameter and classify where each value settles",
		Long: "Runs one scenario's nudge schedule once per parameter value and reports the final\n" +
			"coherence, dwelling and regime. Parameters: " + strings.Join(triad.ParamNames(), ", "),
		Args: cobra.NoArgs,
		RunE: runSweep,
	}
	addSetupFlags(cmd)
	cmd.Flags().StringVar(&sweepParam, "param", "base_decay", "parameter to vary")
	cmd.Flags().Float64SliceVar(&sweepValues, "values", nil, "explicit values (overrides --from/--to/--steps)")
	cmd.Flags().Float64Var(&sweepFrom, "from", 0.02, "first value")
	cmd.Flags().Float64Var(&sweepTo, "to", 0.3, "last value")
	cmd.Flags().IntVar(&sweepSteps, "steps", 15, "number of values")
	cmd.Flags().StringVar(&sweepSchedule, "schedule", scenario.None, "scenario whose nudges apply during the sweep")
	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setup, list, err := cfg.Build()
	if err != nil {
		return err
	}

	sc, ok := scenario.Find(list, sweepSchedule)
	if !ok {
		return fmt.Errorf("unknown scenario: %s (available: %v)", sweepSchedule, scenario.Names(list))
	}
	sched, err := sc.Schedule()
	if err != nil {
		return err
	}

	values := sweepValues
	if len(values) == 0 {
		if sweepSteps < 1 {
			return fmt.Errorf("%w: --steps must be positive, got %d", dynamo.ErrInvalidParameter, sweepSteps)
		}
		values = dynamo.Linspace(sweepFrom, sweepTo, sweepSteps)
	}

	points, err := analysis.Sweep(cmd.Context(), analysis.SweepConfig{
		Param:    sweepParam,
		Values:   values,
		Base:     setup.Params,
		Schedule: sched,
		Initial:  setup.Initial,
		Times:    setup.Times,
		Method:   setup.Method,
		Sim:      setup.Sim,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "sweep %s over %d values, scenario %s, t = %g..%g\n\n",
		sweepParam, len(values), sc.Name, setup.Times[0], setup.Times[len(setup.Times)-1])

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tCOHERENCE\tDWELLING\tREGIME\n", strings.ToUpper(sweepParam))
	failed := 0
	for _, p := range points {
		if p.Err != nil {
			failed++
			fmt.Fprintf(w, "%g\t-\t-\terror: %v\n", p.Param, p.Err)
			continue
		}
		fmt.Fprintf(w, "%g\t%.4f\t%.4f\t%s\n", p.Param, p.Coherence, p.Dwelling, p.Regime)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nfinal coherence vs %s\n", sweepParam)
	fmt.Fprintln(out, analysis.SweepToASCII(points, 60, 12))

	if failed == len(points) {
		return fmt.Errorf("all %d sweep points failed", failed)
	}
	return nil
}
