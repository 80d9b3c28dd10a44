package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/forcegraph/internal/config"
	"github.com/san-kum/forcegraph/internal/dataset"
	"github.com/san-kum/forcegraph/internal/experiment"
)

func pair() *dataset.Graph {
	return &dataset.Graph{
		Nodes: []dataset.Node{{ID: "a"}, {ID: "b"}},
		Links: []dataset.Link{{Source: "a", Target: "b", Value: 1}},
	}
}

func builder(t *testing.T, maxTicks int) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		layout := config.DefaultConfig()
		layout.Simulation.MaxTicks = maxTicks
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
		exp := experiment.New(experiment.Config{Name: "pair", Layout: layout})
		if err := exp.Setup(pair()); err != nil {
			return nil, err
		}
		return exp, nil
	}
}

func TestGridSearchPicksLowestMetric(t *testing.T) {
	g, err := NewGridSearch(
		[]string{"link.distance", "charge.strength"},
		[][]float64{{20, 40}, {-30, -10}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if g.Size() != 4 {
		t.Errorf("expected 4 combinations, got %d", g.Size())
	}

	seen := 0
	build := builder(t, 50)
	counting := func(p map[string]float64) (*experiment.Experiment, error) {
		seen++
		return build(p)
	}

	params, best, err := g.Search(context.Background(), counting, "kinetic_energy")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if seen != 4 {
		t.Errorf("expected 4 runs, got %d", seen)
	}
	if len(params) != 2 {
		t.Errorf("expected 2 params in best set, got %v", params)
	}
	if best < 0 {
		t.Errorf("kinetic energy cannot be negative: %v", best)
	}
}

func TestGridSearchTicks(t *testing.T) {
	g, err := NewGridSearch([]string{"collide.strength"}, [][]float64{{0.2, 5, 0.7}})
	if err != nil {
		t.Fatal(err)
	}
	params, best, err := g.Search(context.Background(), builder(t, 0), TicksMetric)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if best <= 0 {
		t.Errorf("expected positive tick count, got %v", best)
	}
	if params["collide.strength"] == 5 {
		t.Error("invalid combination should be skipped")
	}
}

func TestGridSearchErrors(t *testing.T) {
	if _, err := NewGridSearch([]string{"a"}, nil); err == nil {
		t.Error("expected mismatch error")
	}
	if _, err := NewGridSearch([]string{"a"}, [][]float64{{}}); err == nil {
		t.Error("expected empty range error")
	}

	g, _ := NewGridSearch([]string{"collide.strength"}, [][]float64{{3, 4}})
	if _, _, err := g.Search(context.Background(), builder(t, 0), TicksMetric); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g, _ = NewGridSearch([]string{"link.distance"}, [][]float64{{10}})
	if _, _, err := g.Search(ctx, builder(t, 0), TicksMetric); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
