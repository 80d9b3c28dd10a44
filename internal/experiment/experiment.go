// Package experiment settles a dataset headlessly and records how the
// layout cooled.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/forcegraph/internal/config"
	"github.com/san-kum/forcegraph/internal/dataset"
	"github.com/san-kum/forcegraph/internal/dynamo"
	"github.com/san-kum/forcegraph/internal/metrics"
	"github.com/san-kum/forcegraph/internal/sim"
)

type Config struct {
	Name   string
	Preset string
	Layout *config.Config
}

// Result is one settled layout.
type Result struct {
	Name    string
	Preset  string
	Seed    int64
	Layout  *config.Config
	Ticks   int
	Final   sim.TickResult
	Links   []dynamo.Link
	Alphas  []float64
	Energy  []float64
	Metrics map[string]float64
	Elapsed time.Duration
}

// Settled reports whether the run stopped on its own rather than hitting
// the tick limit.
func (r *Result) Settled() bool {
	return r.Final.State == sim.Stopped
}

type Experiment struct {
	cfg       Config
	simulator *sim.Simulator
	alphas    []float64
	energy    []float64
}

func New(cfg Config) *Experiment {
	if cfg.Layout == nil {
		cfg.Layout = config.DefaultConfig()
	}
	return &Experiment{cfg: cfg}
}

// Setup builds the simulator and places the graph.
func (e *Experiment) Setup(g *dataset.Graph, extra ...sim.Metric) error {
	layout := e.cfg.Layout
	s, err := sim.New(layout.Simulation, layout.Forces)
	if err != nil {
		return err
	}

	s.AddMetric(metrics.NewKineticEnergy())
	s.AddMetric(metrics.NewDisplacement())
	s.AddMetric(metrics.NewTickTime())
	for _, m := range extra {
		s.AddMetric(m)
	}
	s.AddObserver(sim.ObserverFunc(func(r sim.TickResult) {
		e.alphas = append(e.alphas, r.Alpha)
		e.energy = append(e.energy, metrics.Kinetic(r))
	}))

	nodes, edges := g.Dataset()
	if err := s.Initialize(nodes, edges, layout.Viewport); err != nil {
		s.Close()
		return err
	}
	e.simulator = s
	return nil
}

// Run settles the layout and closes the simulator.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.simulator == nil {
		return nil, errors.New("experiment not setup")
	}
	defer e.simulator.Close()

	start := time.Now()
	final, err := e.simulator.Settle(ctx)
	if err != nil {
		return nil, fmt.Errorf("settle %s: %w", e.cfg.Name, err)
	}

	return &Result{
		Name:    e.cfg.Name,
		Preset:  e.cfg.Preset,
		Seed:    e.cfg.Layout.Simulation.Seed,
		Layout:  e.cfg.Layout,
		Ticks:   final.Tick,
		Final:   final,
		Links:   e.simulator.Links(),
		Alphas:  e.alphas,
		Energy:  e.energy,
		Metrics: e.simulator.Metrics(),
		Elapsed: time.Since(start),
	}, nil
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
