package control

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/san-kum/forcegraph/internal/dynamo"
	"github.com/san-kum/forcegraph/internal/forces"
)

const (
	DefaultDragAlphaTarget    = 0.3
	DefaultReleaseAlphaTarget = 0.0001
	DefaultReheatAlpha        = 1.0
)

var validate = validator.New()

// Engine is the part of the simulator the controller drives.
type Engine interface {
	SetForces(cfg forces.Config) error
	Configure(p forces.Params) error
	Forces() forces.Config
	Restart(alpha float64) error
	Resume() error
	SetAlphaTarget(t float64) error
	SetViewport(vp dynamo.Viewport) error
	Pin(id string, x, y float64) error
	Unpin(id string) error
}

// Options are the interaction tunables.
type Options struct {
	DragAlphaTarget    float64 `json:"dragAlphaTarget" yaml:"dragAlphaTarget" toml:"dragAlphaTarget" validate:"gte=0,lte=1"`
	ReleaseAlphaTarget float64 `json:"releaseAlphaTarget" yaml:"releaseAlphaTarget" toml:"releaseAlphaTarget" validate:"gte=0,lte=1"`
	ReheatAlpha        float64 `json:"reheatAlpha" yaml:"reheatAlpha" toml:"reheatAlpha" validate:"gt=0,lte=1"`
	// ResizeReheat restarts at ReheatAlpha after a resize. When false the
	// new viewport is applied at the current alpha.
	ResizeReheat bool `json:"resizeReheat" yaml:"resizeReheat" toml:"resizeReheat"`
}

func DefaultOptions() Options {
	return Options{
		DragAlphaTarget:    DefaultDragAlphaTarget,
		ReleaseAlphaTarget: DefaultReleaseAlphaTarget,
		ReheatAlpha:        DefaultReheatAlpha,
		ResizeReheat:       true,
	}
}

func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return &dynamo.ConfigError{Force: "interaction", Err: err}
	}
	return nil
}

// ErrNotDragging is returned by OnDragMove and OnDragEnd for a body with no
// active drag.
var ErrNotDragging = errors.New("forcegraph: body is not being dragged")

// Controller is safe for concurrent use.
type Controller struct {
	mu     sync.Mutex
	engine Engine
	opts   Options
	logger *slog.Logger
	// holders counts active gestures per body; active is their sum.
	holders map[string]int
	active  int
}

func New(engine Engine, opts Options, logger *slog.Logger) (*Controller, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		engine: engine,
		opts:   opts,
		logger: logger.With("component", "control"),
		holders: make(map[string]int),
	}, nil
}

// OnConfigChange replaces the whole force record and reheats. A rejected
// record leaves the previous one active.
func (c *Controller) OnConfigChange(cfg forces.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.engine.SetForces(cfg); err != nil {
		c.logger.Warn("force configuration rejected", "error", err)
		return err
	}
	c.logger.Info("force configuration applied")
	return c.reheat()
}

// OnForceChange replaces one force and reheats.
func (c *Controller) OnForceChange(p forces.Params) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configure(p)
}

// OnForcePatch overlays a partial JSON object on the named force, as sent
// by a slider, then behaves like OnForceChange. Concurrent patches to one
// force each see the other's fields.
func (c *Controller) OnForcePatch(name string, patch []byte) error {
	k, err := forces.ParseKind(name)
	if err != nil {
		c.logger.Warn("force rejected", "force", name, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.engine.Forces().PatchJSON(k, patch)
	if err != nil {
		return &dynamo.ConfigError{Force: k.String(), Err: err}
	}
	return c.configure(p)
}

func (c *Controller) configure(p forces.Params) error {
	if err := c.engine.Configure(p); err != nil {
		c.logger.Warn("force rejected", "force", p.Kind(), "error", err)
		return err
	}
	c.logger.Info("force applied", "force", p.Kind())
	return c.reheat()
}

func (c *Controller) OnViewportResize(width, height float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	vp := dynamo.Viewport{Width: width, Height: height}
	if err := c.engine.SetViewport(vp); err != nil {
		return err
	}
	c.logger.Debug("viewport resized", "viewport", vp, "reheat", c.opts.ResizeReheat)
	if !c.opts.ResizeReheat {
		return nil
	}
	return c.reheat()
}

// OnDragStart pins the body under the pointer. Several gestures may hold
// the same body. The first gesture overall keeps the layout warm at
// DragAlphaTarget.
func (c *Controller) OnDragStart(id string, x, y float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.engine.Pin(id, x, y); err != nil {
		return err
	}
	c.holders[id]++
	c.active++
	c.logger.Debug("drag start", "body", id, "x", x, "y", y, "holders", c.holders[id], "active", c.active)

	if c.active > 1 {
		return nil
	}
	if err := c.engine.SetAlphaTarget(c.opts.DragAlphaTarget); err != nil {
		return err
	}
	return c.engine.Resume()
}

// OnDragMove moves the pin. It does not restart the layout.
func (c *Controller) OnDragMove(id string, x, y float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.holders[id] == 0 {
		return fmt.Errorf("%w: %q", ErrNotDragging, id)
	}
	return c.engine.Pin(id, x, y)
}

// OnDragEnd ends one gesture on the body. The body is unpinned when its
// last holder lets go, and the last release overall lets the layout settle
// toward ReleaseAlphaTarget.
func (c *Controller) OnDragEnd(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.holders[id]
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotDragging, id)
	}
	c.active--
	if n > 1 {
		c.holders[id] = n - 1
	} else {
		delete(c.holders, id)
	}
	c.logger.Debug("drag end", "body", id, "holders", n-1, "active", c.active)

	if n == 1 {
		if err := c.engine.Unpin(id); err != nil {
			return err
		}
	}
	if c.active > 0 {
		return nil
	}
	return c.engine.SetAlphaTarget(c.opts.ReleaseAlphaTarget)
}

// Dragging reports whether a drag is active on the body.
func (c *Controller) Dragging(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holders[id] > 0
}

// Reset forgets active drags, as after a dataset reload.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.holders)
	c.active = 0
}

func (c *Controller) reheat() error {
	err := c.engine.Restart(c.opts.ReheatAlpha)
	if errors.Is(err, dynamo.ErrNotInitialized) {
		return nil
	}
	return err
}
