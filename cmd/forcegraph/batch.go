package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/forcegraph/internal/automation"
	"github.com/san-kum/forcegraph/internal/dataset"
	"github.com/san-kum/forcegraph/internal/experiment"
	"github.com/san-kum/forcegraph/internal/optim"
	"github.com/san-kum/forcegraph/internal/storage"
)

func newScenarioCmd() *cobra.Command {
	var noSave bool
	cmd := &cobra.Command{
		Use:   "scenario [file.yaml]",
		Short: "run a scripted sequence of layouts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(os.Stderr)
			if err != nil {
				return err
			}
			scenario, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			title.Printf("scenario %s\n", scenario.Name)
			if scenario.Description != "" {
				fmt.Println(scenario.Description)
			}

			results, err := automation.RunScenario(cmd.Context(), scenario, logger)
			if err != nil {
				return err
			}

			st := storage.New(dataDir)
			if !noSave {
				if err := st.Init(); err != nil {
					return err
				}
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tDATASET\tPRESET\tTICKS\tSETTLED\tRUN")
			for i, r := range results {
				runID := "-"
				if !noSave {
					if runID, err = st.Save(r.Name, r); err != nil {
						return err
					}
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%t\t%s\n", i+1, r.Name, r.Preset, r.Ticks, r.Settled(), runID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the runs")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var (
		param  string
		lo, hi float64
		steps  int
	)
	cmd := &cobra.Command{
		Use:   "sweep [dataset]",
		Short: "settle a dataset across a range of one force parameter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(os.Stderr)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			g, err := dataset.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			sweep := &automation.ParameterSweep{Param: param, Min: lo, Max: hi, NumSteps: steps, Base: cfg}
			results, err := automation.RunSweep(cmd.Context(), g, sweep, logger)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\tTICKS\tSETTLED\tENERGY\n", strings.ToUpper(param))
			for _, r := range results {
				fmt.Fprintf(w, "%.4g\t%d\t%t\t%.6f\n", r.ParamValue, r.Ticks, r.Settled, r.KineticEnergy)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&param, "param", "charge.strength", "force field to sweep (force.field)")
	cmd.Flags().Float64Var(&lo, "min", -100, "first value")
	cmd.Flags().Float64Var(&hi, "max", -10, "last value")
	cmd.Flags().IntVar(&steps, "steps", 10, "number of values")
	return cmd
}

func newMonteCarloCmd() *cobra.Command {
	var (
		trials int
		seed   int64
	)
	cmd := &cobra.Command{
		Use:   "montecarlo [dataset]",
		Short: "settle a dataset from random starting positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(os.Stderr)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			g, err := dataset.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			mc := &automation.MonteCarloConfig{NumTrials: trials, Seed: seed, Layout: cfg}
			results, err := automation.RunMonteCarlo(cmd.Context(), g, mc, logger)
			if err != nil {
				return err
			}

			stable, unstable := automation.MonteCarloStats(results)
			ticks := 0
			for _, r := range results {
				ticks += r.Ticks
			}
			fmt.Printf("trials: %d\n", len(results))
			good.Printf("settled: %d\n", stable)
			if unstable > 0 {
				warn.Printf("hit tick limit: %d\n", unstable)
			}
			if len(results) > 0 {
				fmt.Printf("mean ticks: %.1f\n", float64(ticks)/float64(len(results)))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	return cmd
}

func newTuneCmd() *cobra.Command {
	var (
		grid   []string
		metric string
	)
	cmd := &cobra.Command{
		Use:   "tune [dataset]",
		Short: "grid-search force parameters",
		Long: "Grid-search force parameters, e.g.\n\n" +
			"  forcegraph tune graph.json --grid charge.strength=-60,-30,-10 --grid link.distance=20,40",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			names, ranges, err := parseGrid(grid)
			if err != nil {
				return err
			}
			search, err := optim.NewGridSearch(names, ranges)
			if err != nil {
				return err
			}
			g, err := dataset.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			build := func(params map[string]float64) (*experiment.Experiment, error) {
				layout := *cfg
				for path, v := range params {
					forces, err := layout.Forces.Set(path, v)
					if err != nil {
						return nil, err
					}
					layout.Forces = forces
				}
				if err := layout.Validate(); err != nil {
					return nil, err
				}
				exp := experiment.New(experiment.Config{Name: args[0], Layout: &layout})
				return exp, exp.Setup(g)
			}

			fmt.Printf("searching %d combinations for the lowest %s...\n", search.Size(), metric)
			best, value, err := search.Search(cmd.Context(), build, metric)
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(best))
			for k := range best {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			title.Println("best:")
			for _, k := range keys {
				fmt.Printf("  %s: %g\n", k, best[k])
			}
			fmt.Printf("%s: %.6g\n", metric, value)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&grid, "grid", nil, "parameter values as force.field=v1,v2,...")
	cmd.Flags().StringVar(&metric, "metric", "kinetic_energy", "metric to minimize (kinetic_energy, max_displacement, tick_ms, ticks)")
	return cmd
}

func parseGrid(entries []string) ([]string, [][]float64, error) {
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("at least one --grid is required")
	}
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, entry := range entries {
		name, list, ok := strings.Cut(entry, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("grid %q: want force.field=v1,v2", entry)
		}
		var values []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %q: %w", entry, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}
