package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/triadsim/internal/config"
	"github.com/san-kum/triadsim/internal/figure"
	"github.com/san-kum/triadsim/internal/integrators"
	"github.com/san-kum/triadsim/internal/scenario"
	"github.com/san-kum/triadsim/internal/storage"
	"github.com/san-kum/triadsim/internal/tui"
	"github.com/san-kum/triadsim/internal/viz"
)

// Flags shared by commands that build a run configuration.
var (
	configFile string
	preset     string
	sets       []string
	method     string
	endTime    float64
	samples    int
	scenarios  []string
)

// Flags of run.
var (
	save       bool
	label      string
	themeName  string
	width      int
	showCharts bool
	figurePath string
	workers    int
	interact   bool
)

func addSetupFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "start from a named preset")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "override a model parameter, name=value (repeatable)")
	cmd.Flags().StringVar(&method, "method", config.DefaultMethod, "integrator ("+strings.Join(integrators.Names(), ", ")+")")
	cmd.Flags().Float64Var(&endTime, "end", config.DefaultEnd, "end of the time grid")
	cmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "number of output samples")
	cmd.Flags().StringSliceVar(&scenarios, "scenario", nil, "only run the named scenarios")
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run the intervention scenarios and print the comparison",
		Args:  cobra.NoArgs,
		RunE:  runScenarios,
	}
	addSetupFlags(cmd)
	cmd.Flags().BoolVar(&save, "save", true, "store the run in the data directory")
	cmd.Flags().StringVar(&label, "label", "", "label stored with the run")
	cmd.Flags().StringVar(&themeName, "theme", "default", "report theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	cmd.Flags().IntVar(&width, "width", 72, "report width")
	cmd.Flags().BoolVar(&showCharts, "charts", false, "print coherence, dwelling and power charts")
	cmd.Flags().StringVar(&figurePath, "figure", "", "write the comparison figure (png, jpg or svg)")
	cmd.Flags().IntVar(&workers, "workers", 0, "scenarios run concurrently (0 = one per CPU)")
	cmd.Flags().BoolVar(&interact, "view", false, "open the interactive viewer after the run")
	return cmd
}

// loadConfig resolves the preset, then the config file, then flags that
// were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("method") {
		cfg.Solver.Method = method
	}
	if cmd.Flags().Changed("end") {
		cfg.Grid.End = endTime
	}
	if cmd.Flags().Changed("samples") {
		cfg.Grid.Samples = samples
	}
	for _, kv := range sets {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: expected name=value", kv)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("--set %s: %w", name, err)
		}
		if err := cfg.Set(strings.TrimSpace(name), v); err != nil {
			return nil, err
		}
	}
	if len(scenarios) > 0 {
		picked := make([]scenario.Scenario, 0, len(scenarios))
		for _, name := range scenarios {
			s, ok := scenario.Find(cfg.Scenarios, name)
			if !ok {
				return nil, fmt.Errorf("unknown scenario: %s (available: %v)", name, scenario.Names(cfg.Scenarios))
			}
			picked = append(picked, s)
		}
		cfg.Scenarios = picked
	}
	return cfg, nil
}

func runScenarios(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setup, list, err := cfg.Build()
	if err != nil {
		return err
	}

	runner, err := scenario.NewRunner(setup, scenario.WithLogger(logger), scenario.WithWorkers(workers))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "running %d scenarios with %s over t = %g..%g\n\n",
		len(list), setup.Method, setup.Times[0], setup.Times[len(setup.Times)-1])

	report, err := runner.Run(ctx, list)
	if err != nil {
		return err
	}

	theme, _ := viz.GetTheme(themeName)
	views := viz.ViewsFromReport(report)
	failed := failures(report)
	fmt.Fprintln(out, viz.NewRenderer(theme, width).Report("triadic coherence", views, failed))

	if showCharts {
		printCharts(cmd, views)
	}

	if save {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		runID, err := st.Save(ctx, label, report)
		if err != nil {
			return err
		}
		logger.Info("run saved", zap.String("run_id", runID), zap.String("dir", st.Dir()))
		fmt.Fprintf(out, "run id: %s\n", runID)
	}

	if figurePath != "" {
		if err := figure.Render(views, figurePath); err != nil {
			return err
		}
		fmt.Fprintf(out, "figure: %s\n", figurePath)
	}

	if interact {
		if err := tui.Run("triadic coherence", views); err != nil {
			return err
		}
	}

	if len(report.Outcomes) == 0 {
		return fmt.Errorf("all %d scenarios failed", len(report.Failed))
	}
	return nil
}

func failures(r *scenario.Report) []storage.FailedScenario {
	out := make([]storage.FailedScenario, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, storage.FailedScenario{Name: f.Scenario, Error: f.Err.Error()})
	}
	return out
}

func printCharts(cmd *cobra.Command, views []viz.ScenarioView) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.CoherenceChart(views, 70, 12))
	fmt.Fprintln(out)
	fmt.Fprintln(out, viz.DwellingChart(views, 70, 12))
	fmt.Fprintln(out)
	for _, v := range views {
		if v.FinalPower <= 0 {
			continue
		}
		fmt.Fprintln(out, viz.PowerChart(v, 70, 10))
		fmt.Fprintln(out)
	}
}
