package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/forcegraph/internal/config"
	"github.com/san-kum/forcegraph/internal/metrics"
	"github.com/san-kum/forcegraph/internal/server"
	"github.com/san-kum/forcegraph/internal/viz"
)

func newLiveCmd() *cobra.Command {
	var (
		theme   string
		fps     int
		logPath string
	)
	cmd := &cobra.Command{
		Use:   "live [dataset]",
		Short: "interactive terminal layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// the terminal belongs to the UI
			var out io.Writer = io.Discard
			if logPath != "" {
				f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			logger, err := newLogger(out)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, ctrl, err := newLayout(cmd.Context(), args[0], cfg, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			if !cmd.Flags().Changed("fps") {
				fps = cfg.Simulation.FPS
			}
			m := viz.NewModel(s, ctrl, args[0], fps).WithTheme(theme)
			return viz.Run(m)
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "category", "color theme")
	cmd.Flags().IntVar(&fps, "fps", 30, "frame rate")
	cmd.Flags().StringVar(&logPath, "log-file", "", "write logs to this file")
	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve [dataset]",
		Short: "stream the layout to WebSocket clients",
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
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			s, ctrl, err := newLayout(cmd.Context(), args[0], cfg, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			srv := server.New(s, ctrl, metrics.NewRecorder(), logger)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return srv.Serve(ctx, cfg.Server.Addr)
			})
			if watch && configFile != "" {
				g.Go(func() error {
					err := config.Watch(ctx, configFile, logger, func(next *config.Config) {
						if preset != "" {
							config.Presets[preset](next)
						}
						if err := ctrl.OnConfigChange(next.Forces); err != nil {
							logger.Warn("config reload rejected", "error", err)
							return
						}
						logger.Info("config reloaded", "path", configFile)
					})
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				})
			} else if watch {
				logger.Warn("--watch needs --config")
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload forces when the config file changes")
	return cmd
}
