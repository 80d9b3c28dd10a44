package experiment

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/forcegraph/internal/config"
	"github.com/san-kum/forcegraph/internal/dataset"
)

// Compare settles the same graph under each named preset in parallel.
// Results keep the order of presets.
func Compare(ctx context.Context, name string, g *dataset.Graph, presets []string) ([]*Result, error) {
	layouts := make([]*config.Config, len(presets))
	for i, p := range presets {
		layouts[i] = config.GetPreset(p)
		if layouts[i] == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", p, config.ListPresets())
		}
	}

	results := make([]*Result, len(presets))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range presets {
		eg.Go(func() error {
			exp := New(Config{Name: name, Preset: p, Layout: layouts[i]})
			if err := exp.Setup(g); err != nil {
				return fmt.Errorf("preset %s: %w", p, err)
			}
			r, err := exp.Run(ctx)
			if err != nil {
				return fmt.Errorf("preset %s: %w", p, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
