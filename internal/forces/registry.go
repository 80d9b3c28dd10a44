package forces

import (
	"math/rand"

	"github.com/san-kum/forcegraph/internal/dynamo"
)

// Registry owns the force configuration and applies it to a body arena.
// It is not safe for concurrent use; the simulator serializes access.
type Registry struct {
	cfg Config
	rng *rand.Rand

	xs, ys []float64
	degree []int
}

// NewRegistry validates cfg and returns a registry whose jiggle sequence
// is derived from seed.
func NewRegistry(cfg Config, seed int64) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Registry{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}, nil
}

// Config returns a copy of the active configuration.
func (r *Registry) Config() Config { return r.cfg }

// Configure replaces the parameters of one force. Invalid parameters are
// rejected and the previous values stay active.
func (r *Registry) Configure(p Params) error {
	if err := ValidateParams(p); err != nil {
		return err
	}
	r.cfg = r.cfg.With(p)
	return nil
}

// SetConfig replaces the whole record, or nothing if any force is invalid.
func (r *Registry) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.cfg = cfg
	return nil
}

// ActiveLinks returns the links the link force considers: all of them
// while enabled, none otherwise.
func (r *Registry) ActiveLinks(links []dynamo.Link) []dynamo.Link {
	if !r.cfg.Link.Enabled {
		return nil
	}
	return links
}

// Apply accumulates one step of every force into the bodies' velocities.
// Center translates positions directly. Apply never fails: out-of-range
// link endpoints are skipped.
func (r *Registry) Apply(bodies []dynamo.Body, links []dynamo.Link, vp dynamo.Viewport, alpha float64) {
	if len(bodies) == 0 {
		return
	}
	for _, k := range Kinds {
		switch k {
		case Link:
			r.applyLink(bodies, r.ActiveLinks(links), alpha)
		case Charge:
			r.applyCharge(bodies, alpha)
		case Collide:
			r.applyCollide(bodies)
		case Center:
			r.applyCenter(bodies, vp)
		case ForceX:
			r.applyX(bodies, vp, alpha)
		case ForceY:
			r.applyY(bodies, vp, alpha)
		}
	}
}

func (r *Registry) jiggle() float64 {
	return jiggle(r.rng)
}

func jiggle(rng *rand.Rand) float64 {
	return (rng.Float64() - 0.5) * 1e-6
}

// positions fills the scratch coordinate slices, optionally predicting
// one step ahead with the current velocity.
func (r *Registry) positions(bodies []dynamo.Body, predict bool) ([]float64, []float64) {
	n := len(bodies)
	if cap(r.xs) < n {
		r.xs = make([]float64, n)
		r.ys = make([]float64, n)
	}
	r.xs, r.ys = r.xs[:n], r.ys[:n]
	for i := range bodies {
		r.xs[i], r.ys[i] = bodies[i].X, bodies[i].Y
		if predict {
			r.xs[i] += bodies[i].VX
			r.ys[i] += bodies[i].VY
		}
	}
	return r.xs, r.ys
}
