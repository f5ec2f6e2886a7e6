package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/triadsim/internal/analysis"
	"github.com/san-kum/triadsim/internal/config"
	"github.com/san-kum/triadsim/internal/figure"
	"github.com/san-kum/triadsim/internal/power"
	"github.com/san-kum/triadsim/internal/storage"
	"github.com/san-kum/triadsim/internal/tui"
	"github.com/san-kum/triadsim/internal/viz"
)

var (
	exportOut    string
	plotPortrait bool
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print the report of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	cmd.Flags().StringVar(&themeName, "theme", "default", "report theme")
	cmd.Flags().IntVar(&width, "width", 72, "report width")
	cmd.Flags().BoolVar(&showCharts, "charts", false, "print coherence, dwelling and power charts")
	cmd.Flags().StringVar(&figurePath, "figure", "", "write the comparison figure (png, jpg or svg)")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run with its time series as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	cmd.Flags().StringVarP(&exportOut, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	cmd.Flags().BoolVar(&plotPortrait, "portrait", false, "also draw each scenario's coherence/dwelling portrait")
	return cmd
}

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view [run_id]",
		Short: "scrub through a saved run interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, views, err := loadRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return tui.Run(runTitle(meta), views)
		},
	}
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [run_id]...",
		Short: "delete saved runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			for _, id := range args {
				if err := st.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			}
			return nil
		},
	}
}

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "rebuild the run index from the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d runs\n", n)
			return nil
		},
	}
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, config.Presets[name].Description)
			}
			return w.Flush()
		},
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tTIME\tMETHOD\tSAMPLES\tSCENARIOS\tFAILED")
	for _, run := range runs {
		names := make([]string, 0, len(run.Outcomes))
		for _, o := range run.Outcomes {
			names = append(names, fmt.Sprintf("%s=%s", o.Scenario, power.Format(o.Power)))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%d\n",
			shortID(run.ID),
			run.Label,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Method,
			run.Samples,
			strings.Join(names, " "),
			run.Failed,
		)
	}
	return w.Flush()
}

// loadRun reads a run's metadata and the series of every scenario it
// completed.
func loadRun(ctx context.Context, id string) (*storage.RunMetadata, []viz.ScenarioView, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	meta, err := st.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	series := make(map[string]*storage.Series, len(meta.Scenarios))
	for _, sc := range meta.Scenarios {
		s, err := st.LoadSeries(ctx, meta.ID, sc.Name)
		if err != nil {
			return nil, nil, err
		}
		series[sc.Name] = s
	}
	return meta, viz.ViewsFromRun(meta, series), nil
}

func runTitle(meta *storage.RunMetadata) string {
	title := "run " + shortID(meta.ID)
	if meta.Label != "" {
		title += " · " + meta.Label
	}
	return title
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, views, err := loadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	theme, _ := viz.GetTheme(themeName)
	r := viz.NewRenderer(theme, width)
	fmt.Fprintln(out, r.Report(runTitle(meta), views, meta.Failed))
	fmt.Fprintln(out, r.Table(views))
	fmt.Fprintf(out, "\nmethod %s, t = %g..%g, %d samples, saved %s\n",
		meta.Method, meta.Grid.Start, meta.Grid.End, meta.Grid.Samples, meta.Timestamp.Local().Format("2006-01-02 15:04:05"))

	if showCharts {
		printCharts(cmd, views)
	}
	if figurePath != "" {
		if err := figure.Render(views, figurePath); err != nil {
			return err
		}
		fmt.Fprintf(out, "figure: %s\n", figurePath)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	data, err := st.Export(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if exportOut == "-" {
		return storage.WriteJSON(cmd.OutOrStdout(), data)
	}
	if err := storage.ExportJSON(exportOut, data); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported %s to %s\n", data.ID, exportOut)
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, views, err := loadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "samples: %d\n\n", meta.Grid.Samples)

	printCharts(cmd, views)

	for _, v := range views {
		if len(v.States) == 0 {
			continue
		}
		fmt.Fprintln(out, asciigraph.PlotMany(subsystemSeries(v),
			asciigraph.Height(8),
			asciigraph.Width(70),
			asciigraph.LowerBound(0),
			asciigraph.UpperBound(1),
			asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Magenta, asciigraph.Red),
			asciigraph.Caption(fmt.Sprintf("%s: x1 (blue), x2 (magenta), x3 (red)", v.Name)),
		))
		fmt.Fprintln(out)

		if plotPortrait {
			portrait := analysis.NewPortrait(v.Trajectory())
			fmt.Fprintf(out, "%s: dwelling (up) vs coherence (right)\n", v.Name)
			fmt.Fprintln(out, analysis.PortraitToASCII(portrait, 50, 16))
			fmt.Fprintln(out)
		}
	}
	return nil
}

func subsystemSeries(v viz.ScenarioView) [][]float64 {
	series := make([][]float64, 3)
	for _, s := range v.States {
		for i := range series {
			series[i] = append(series[i], s[i])
		}
	}
	return series
}
