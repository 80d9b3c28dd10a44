// Package automation runs batches of headless layouts: scripted
// scenarios, single-parameter sweeps and randomized-start trials.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/forcegraph/internal/config"
	"github.com/san-kum/forcegraph/internal/dataset"
	"github.com/san-kum/forcegraph/internal/experiment"
)

// Scenario defines a scripted sequence of layouts
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single layout in a scenario. Params are force fields
// addressed as "force.field" and applied over the preset.
type ScenarioStep struct {
	Dataset  string             `yaml:"dataset"`
	Preset   string             `yaml:"preset"`
	MaxTicks int                `yaml:"max_ticks"`
	Params   map[string]float64 `yaml:"params"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	return &scenario, nil
}

// Layout resolves the step's configuration.
func (s ScenarioStep) Layout() (*config.Config, error) {
	name := s.Preset
	if name == "" {
		name = "default"
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}
	for path, v := range s.Params {
		forces, err := cfg.Forces.Set(path, v)
		if err != nil {
			return nil, err
		}
		cfg.Forces = forces
	}
	if s.MaxTicks > 0 {
		cfg.Simulation.MaxTicks = s.MaxTicks
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes all steps in a scenario
func RunScenario(ctx context.Context, scenario *Scenario, logger *slog.Logger) ([]*experiment.Result, error) {
	results := make([]*experiment.Result, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		logger.Info("running step", "step", i+1, "of", len(scenario.Steps), "dataset", step.Dataset, "preset", step.Preset)

		layout, err := step.Layout()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		g, err := dataset.Load(ctx, step.Dataset)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(experiment.Config{Name: step.Dataset, Preset: step.Preset, Layout: layout})
		if err := exp.Setup(g); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, result)
	}

	return results, nil
}

// ParameterSweep settles one graph across a range of values of a single
// force field.
type ParameterSweep struct {
	Param    string
	Min      float64
	Max      float64
	NumSteps int
	Base     *config.Config
}

// SweepResult holds one point of a parameter sweep
type SweepResult struct {
	ParamValue    float64
	Ticks         int
	Settled       bool
	KineticEnergy float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, g *dataset.Graph, sweep *ParameterSweep, logger *slog.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	base := sweep.Base
	if base == nil {
		base = config.DefaultConfig()
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.Max - sweep.Min) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.Min + float64(i)*paramStep

		layout := *base
		forces, err := layout.Forces.Set(sweep.Param, paramVal)
		if err != nil {
			return nil, err
		}
		layout.Forces = forces
		if err := layout.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Param, paramVal, err)
		}

		exp := experiment.New(experiment.Config{Name: sweep.Param, Layout: &layout})
		if err := exp.Setup(g); err != nil {
			return nil, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			ParamValue:    paramVal,
			Ticks:         result.Ticks,
			Settled:       result.Settled(),
			KineticEnergy: result.Metrics["kinetic_energy"],
		})

		logger.Debug("sweep point", "step", i+1, "of", sweep.NumSteps, sweep.Param, paramVal, "ticks", result.Ticks)
	}

	return results, nil
}

// MonteCarloConfig defines randomized-start trial parameters
type MonteCarloConfig struct {
	NumTrials int
	Seed      int64
	Layout    *config.Config
}

// MonteCarloResult holds the outcome of one trial
type MonteCarloResult struct {
	TrialID       int
	Seed          int64
	Ticks         int
	KineticEnergy float64
	Stable        bool // settled before the tick limit
}

// RunMonteCarlo settles the graph from uniformly random starting positions
// inside the viewport. Positions given by the dataset are replaced.
func RunMonteCarlo(ctx context.Context, g *dataset.Graph, cfg *MonteCarloConfig, logger *slog.Logger) ([]MonteCarloResult, error) {
	base := cfg.Layout
	if base == nil {
		base = config.DefaultConfig()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	for trial := 0; trial < cfg.NumTrials; trial++ {
		trialGraph := &dataset.Graph{Nodes: make([]dataset.Node, len(g.Nodes)), Links: g.Links}
		for i, n := range g.Nodes {
			x := rng.Float64() * base.Viewport.Width
			y := rng.Float64() * base.Viewport.Height
			n.X, n.Y = &x, &y
			trialGraph.Nodes[i] = n
		}

		layout := *base
		layout.Simulation.Seed = rng.Int63()

		exp := experiment.New(experiment.Config{Name: fmt.Sprintf("trial-%d", trial), Layout: &layout})
		if err := exp.Setup(trialGraph); err != nil {
			return nil, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		results = append(results, MonteCarloResult{
			TrialID:       trial,
			Seed:          layout.Simulation.Seed,
			Ticks:         result.Ticks,
			KineticEnergy: result.Metrics["kinetic_energy"],
			Stable:        result.Settled(),
		})

		if (trial+1)%10 == 0 {
			logger.Info("monte carlo progress", "done", trial+1, "of", cfg.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
