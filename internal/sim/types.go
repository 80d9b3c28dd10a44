package sim

import (
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/san-kum/forcegraph/internal/dynamo"
	"github.com/san-kum/forcegraph/internal/integrators"
)

const (
	DefaultAlphaMin    = 0.001
	DefaultAlphaTarget = 0.0
	DefaultFPS         = 60
	DefaultSeed        = 1

	// steps from alpha 1 to DefaultAlphaMin at the default decay
	convergeSteps = 300
)

// DefaultAlphaDecay reaches DefaultAlphaMin from 1 in 300 ticks (~0.0228).
var DefaultAlphaDecay = 1 - math.Pow(DefaultAlphaMin, 1.0/convergeSteps)

var validate = validator.New()

// State is the run state of the simulation.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Options tunes the cooling schedule and integrator.
type Options struct {
	AlphaMin      float64 `json:"alphaMin" yaml:"alphaMin" toml:"alphaMin" validate:"gt=0,lt=1"`
	AlphaDecay    float64 `json:"alphaDecay" yaml:"alphaDecay" toml:"alphaDecay" validate:"gt=0,lte=1"`
	AlphaTarget   float64 `json:"alphaTarget" yaml:"alphaTarget" toml:"alphaTarget" validate:"gte=0,lte=1"`
	VelocityDecay float64 `json:"velocityDecay" yaml:"velocityDecay" toml:"velocityDecay" validate:"gte=0,lte=1"`
	Seed          int64   `json:"seed" yaml:"seed" toml:"seed"`
	FPS           int     `json:"fps" yaml:"fps" toml:"fps" validate:"gte=1,lte=240"`
	MaxTicks      int     `json:"maxTicks" yaml:"maxTicks" toml:"maxTicks" validate:"gte=0"`
}

func DefaultOptions() Options {
	return Options{
		AlphaMin:      DefaultAlphaMin,
		AlphaDecay:    DefaultAlphaDecay,
		AlphaTarget:   DefaultAlphaTarget,
		VelocityDecay: integrators.DefaultVelocityDecay,
		Seed:          DefaultSeed,
		FPS:           DefaultFPS,
	}
}

// ErrNeverSettles rejects a target that holds alpha above AlphaMin with no
// MaxTicks bound.
var ErrNeverSettles = errors.New("alphaTarget must stay below alphaMin unless maxTicks is set")

func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return &dynamo.ConfigError{Force: "simulation", Err: err}
	}
	if o.MaxTicks == 0 && o.AlphaTarget >= o.AlphaMin {
		return &dynamo.ConfigError{Force: "simulation", Err: ErrNeverSettles}
	}
	return nil
}

// TickResult is what a renderer receives after each tick. Bodies is a copy
// owned by the receiver.
type TickResult struct {
	Tick     int
	Alpha    float64
	State    State
	Bodies   []dynamo.Body
	Duration time.Duration
}

// Observer is notified after every tick. It runs with the simulator locked
// and must not call back into it.
type Observer interface {
	OnTick(r TickResult)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(r TickResult)

func (f ObserverFunc) OnTick(r TickResult) { f(r) }

type Metric interface {
	Name() string
	Observe(r TickResult)
	Value() float64
	Reset()
}
