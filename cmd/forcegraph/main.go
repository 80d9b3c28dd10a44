package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/forcegraph/internal/config"
	"github.com/san-kum/forcegraph/internal/control"
	"github.com/san-kum/forcegraph/internal/dataset"
	"github.com/san-kum/forcegraph/internal/metrics"
	"github.com/san-kum/forcegraph/internal/sim"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFormat  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "forcegraph",
		Short:         "force-directed graph layout",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".forcegraph", "data directory for saved runs")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "force preset applied over the config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(
		newRunCmd(),
		newListCmd(),
		newPlotCmd(),
		newShowCmd(),
		newCompareCmd(),
		newScenarioCmd(),
		newSweepCmd(),
		newMonteCarloCmd(),
		newTuneCmd(),
		newLiveCmd(),
		newServeCmd(),
		newPresetsCmd(),
		newConfigCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", logLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(logFormat) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format: %s", logFormat)
}

// loadConfig reads --config over the defaults, then applies --preset.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if preset != "" {
		apply, ok := config.Presets[preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		apply(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newLayout loads a dataset into a simulator with an interaction
// controller in front of it.
func newLayout(ctx context.Context, source string, cfg *config.Config, logger *slog.Logger) (*sim.Simulator, *control.Controller, error) {
	g, err := dataset.Load(ctx, source)
	if err != nil {
		return nil, nil, err
	}

	s, err := sim.New(cfg.Simulation, cfg.Forces)
	if err != nil {
		return nil, nil, err
	}
	s.AddMetric(metrics.NewKineticEnergy())
	s.AddMetric(metrics.NewDisplacement())

	nodes, edges := g.Dataset()
	if err := s.Initialize(nodes, edges, cfg.Viewport); err != nil {
		s.Close()
		return nil, nil, err
	}

	ctrl, err := control.New(s, cfg.Interaction, logger)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	logger.Info("layout ready", "source", source, "nodes", len(g.Nodes), "links", len(g.Links), "viewport", cfg.Viewport)
	return s, ctrl, nil
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list available force presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "presets:")
			for _, p := range config.ListPresets() {
				fmt.Fprintf(out, "  %s\n", p)
			}
		},
	}
}

func newConfigCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return config.Encode(cmd.OutOrStdout(), cfg, config.Format(format))
		},
	}
	cmd.Flags().StringVar(&format, "format", string(config.YAML), "output format (yaml, toml)")
	return cmd
}
