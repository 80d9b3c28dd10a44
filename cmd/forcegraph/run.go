package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/forcegraph/internal/dataset"
	"github.com/san-kum/forcegraph/internal/experiment"
	"github.com/san-kum/forcegraph/internal/export"
	"github.com/san-kum/forcegraph/internal/storage"
)

var (
	title = color.New(color.FgCyan, color.Bold)
	good  = color.New(color.FgGreen)
	warn  = color.New(color.FgYellow)
)

func newRunCmd() *cobra.Command {
	var (
		ticks   int
		svgPath string
		outPath string
		noSave  bool
	)
	cmd := &cobra.Command{
		Use:   "run [dataset]",
		Short: "settle a layout headlessly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ticks") {
				cfg.Simulation.MaxTicks = ticks
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			g, err := dataset.Load(cmd.Context(), source)
			if err != nil {
				return err
			}

			exp := experiment.New(experiment.Config{Name: source, Preset: preset, Layout: cfg})
			if err := exp.Setup(g); err != nil {
				return err
			}

			fmt.Printf("settling %s (%d nodes, %d links)...\n", source, len(g.Nodes), len(g.Links))
			result, err := exp.Run(cmd.Context())
			if err != nil {
				return err
			}
			printResult(result)

			frame := export.NewFrame(result.Final, result.Links)
			if svgPath != "" {
				opts := export.DefaultSVGOptions(int(cfg.Viewport.Width), int(cfg.Viewport.Height))
				if err := os.WriteFile(svgPath, []byte(export.LayoutSVG(frame, opts)), 0644); err != nil {
					return err
				}
				fmt.Printf("svg: %s\n", svgPath)
			}
			if outPath != "" {
				if err := writeFrame(outPath, frame); err != nil {
					return err
				}
				fmt.Printf("json: %s\n", outPath)
			}

			if noSave {
				return nil
			}
			st := storage.New(dataDir)
			if err := st.Init(); err != nil {
				return err
			}
			runID, err := st.Save(source, result)
			if err != nil {
				return err
			}
			fmt.Printf("run id: %s\n", runID)
			return nil
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 0, "stop after this many ticks (0 runs until settled)")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write the settled layout as SVG")
	cmd.Flags().StringVar(&outPath, "json", "", "write the settled frame as JSON")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the run")
	return cmd
}

func printResult(r *experiment.Result) {
	status := good.Sprint("settled")
	if !r.Settled() {
		status = warn.Sprint("still running")
	}
	fmt.Printf("%s after %d ticks in %v (alpha %.5f)\n", status, r.Ticks, r.Elapsed, r.Final.Alpha)

	if len(r.Alphas) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(r.Alphas,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("alpha"),
		))
	}

	fmt.Println()
	title.Println("metrics:")
	for name, val := range r.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}
}

func writeFrame(path string, frame export.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(frame); err != nil {
		return err
	}
	return f.Close()
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATASET\tPRESET\tTIME\tNODES\tTICKS\tSETTLED")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%t\n",
					run.ID,
					run.Dataset,
					run.Preset,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Nodes,
					run.Ticks,
					run.Settled,
				)
			}
			return w.Flush()
		},
	}
}

func newPlotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot how a saved run cooled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			history, err := st.LoadHistory(args[0])
			if err != nil {
				return err
			}
			if len(history) == 0 {
				return fmt.Errorf("no data to plot")
			}

			alphas := make([]float64, len(history))
			energy := make([]float64, len(history))
			for i, row := range history {
				alphas[i] = row.Alpha
				energy[i] = row.KineticEnergy
			}

			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("dataset: %s\n", meta.Dataset)
			fmt.Printf("ticks: %d\n\n", len(history))
			for _, series := range []struct {
				caption string
				data    []float64
			}{
				{"alpha", alphas},
				{"kinetic energy", energy},
			} {
				fmt.Println(asciigraph.Plot(series.data,
					asciigraph.Height(10),
					asciigraph.Width(80),
					asciigraph.Caption(series.caption),
				))
				fmt.Println()
			}
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := storage.New(dataDir).Load(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(meta)
		},
	}
}

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare [dataset] [preset1] [preset2] ...",
		Short: "settle a dataset under several presets",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := dataset.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			results, err := experiment.Compare(cmd.Context(), args[0], g, args[1:])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tTICKS\tSETTLED\tENERGY\tLAST MOVE\tTIME")
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%d\t%t\t%.4f\t%.3f\t%v\n",
					r.Preset,
					r.Ticks,
					r.Settled(),
					r.Metrics["kinetic_energy"],
					r.Metrics["max_displacement"],
					r.Elapsed,
				)
			}
			return w.Flush()
		},
	}
}
