package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/san-kum/forcegraph/internal/dynamo"
	"github.com/san-kum/forcegraph/internal/forces"
	"github.com/san-kum/forcegraph/internal/integrators"
)

const initialRadius = 10.0

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Simulator owns the bodies, links and cooling state of one layout. All
// mutation goes through its methods, which serialize on a single lock, so a
// tick always sees one force configuration in full.
type Simulator struct {
	mu sync.Mutex

	opts       Options
	forces     *forces.Registry
	integrator dynamo.Integrator

	bodies   []dynamo.Body
	links    []dynamo.Link
	index    map[string]int
	viewport dynamo.Viewport

	alpha       float64
	alphaTarget float64
	tick        int
	state       State
	initialized bool
	closed      bool

	metrics   []Metric
	observers []Observer

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New validates opts and cfg and returns an uninitialized simulator.
func New(opts Options, cfg forces.Config) (*Simulator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	reg, err := forces.NewRegistry(cfg, opts.Seed)
	if err != nil {
		return nil, err
	}
	return &Simulator{
		opts:        opts,
		forces:      reg,
		integrator:  integrators.NewEuler(opts.VelocityDecay),
		alphaTarget: opts.AlphaTarget,
		metrics:     make([]Metric, 0),
		observers:   make([]Observer, 0),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
	}, nil
}

func (s *Simulator) AddMetric(m Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, m)
}

func (s *Simulator) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Initialize replaces the dataset. Links must reference existing nodes.
// Nodes without a position are laid out on a phyllotaxis spiral around
// the viewport center. Alpha restarts at 1.
func (s *Simulator) Initialize(nodes []dynamo.Node, edges []dynamo.Edge, vp dynamo.Viewport) error {
	if len(nodes) == 0 {
		return dynamo.ErrEmptyDataset
	}
	if err := validateViewport(vp); err != nil {
		return err
	}
	bodies, links, index, err := dynamo.Resolve(nodes, edges)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	place(bodies, vp)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return dynamo.ErrClosed
	}

	s.bodies, s.links, s.index = bodies, links, index
	s.viewport = vp
	s.alpha = 1
	s.tick = 0
	s.state = Running
	s.initialized = true
	for _, m := range s.metrics {
		m.Reset()
	}
	s.signal()
	return nil
}

func place(bodies []dynamo.Body, vp dynamo.Viewport) {
	cx, cy := vp.Width/2, vp.Height/2
	for i := range bodies {
		b := &bodies[i]
		if math.IsNaN(b.X) || math.IsNaN(b.Y) {
			radius := initialRadius * math.Sqrt(0.5+float64(i))
			angle := float64(i) * initialAngle
			b.X = cx + radius*math.Cos(angle)
			b.Y = cy + radius*math.Sin(angle)
		}
		b.VX, b.VY = 0, 0
	}
}

// Tick advances the layout by one step: alpha moves toward its target,
// forces accumulate into velocities, and the integrator moves every body
// that is not pinned. Tick runs even when the simulation is stopped.
func (s *Simulator) Tick() (TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return TickResult{}, err
	}
	return s.step(), nil
}

func (s *Simulator) step() TickResult {
	start := time.Now()

	s.alpha += (s.alphaTarget - s.alpha) * s.opts.AlphaDecay
	s.forces.Apply(s.bodies, s.links, s.viewport, s.alpha)
	s.integrator.Step(s.bodies)
	s.tick++

	if s.alpha <= s.opts.AlphaMin {
		s.state = Stopped
	} else {
		s.state = Running
	}

	r := s.result()
	r.Duration = time.Since(start)

	for _, m := range s.metrics {
		m.Observe(r)
	}
	for _, obs := range s.observers {
		obs.OnTick(r)
	}
	return r
}

func (s *Simulator) result() TickResult {
	return TickResult{
		Tick:   s.tick,
		Alpha:  s.alpha,
		State:  s.state,
		Bodies: s.copyBodies(),
	}
}

// Settle ticks until the simulation stops, MaxTicks is reached or ctx is
// done, and returns the last result.
func (s *Simulator) Settle(ctx context.Context) (TickResult, error) {
	var last TickResult
	for i := 0; s.opts.MaxTicks == 0 || i < s.opts.MaxTicks; i++ {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		default:
		}

		r, err := s.Tick()
		if err != nil {
			return last, err
		}
		last = r
		if r.State == Stopped {
			break
		}
	}
	return last, nil
}

// Run ticks at Options.FPS while the simulation is running and sleeps while
// it is stopped. It returns nil after Close and ctx.Err() on cancellation.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(s.opts.FPS))
	defer ticker.Stop()

	for {
		s.mu.Lock()
		closed := s.closed
		active := s.initialized && s.state == Running
		s.mu.Unlock()

		if closed {
			return nil
		}

		if !active {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.done:
				return nil
			case <-s.wake:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-ticker.C:
			if _, err := s.Tick(); errors.Is(err, dynamo.ErrClosed) {
				return nil
			}
		}
	}
}

// Close stops Run, drops the dataset and detaches observers. It is safe to
// call more than once.
func (s *Simulator) Close() error {
	s.mu.Lock()
	s.closed = true
	s.state = Stopped
	s.bodies, s.links, s.index = nil, nil, nil
	s.observers = nil
	s.metrics = nil
	s.mu.Unlock()

	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// Restart sets alpha and resumes ticking. An alpha at or below AlphaMin
// leaves the simulation stopped unless the target keeps it warm.
func (s *Simulator) Restart(alpha float64) error {
	if math.IsNaN(alpha) || alpha < 0 {
		return &dynamo.ConfigError{Force: "simulation", Err: fmt.Errorf("alpha %v out of range", alpha)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	s.alpha = alpha
	if alpha <= s.opts.AlphaMin && s.alphaTarget <= s.opts.AlphaMin {
		s.state = Stopped
		return nil
	}
	s.state = Running
	s.signal()
	return nil
}

// Resume continues ticking at the current alpha.
func (s *Simulator) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	s.resume()
	return nil
}

// SetAlphaTarget sets the value alpha decays toward.
func (s *Simulator) SetAlphaTarget(t float64) error {
	if math.IsNaN(t) || t < 0 || t > 1 {
		return &dynamo.ConfigError{Force: "simulation", Err: fmt.Errorf("alpha target %v out of range", t)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return dynamo.ErrClosed
	}
	s.alphaTarget = t
	return nil
}

// SetViewport resizes the layout area. Alpha is left unchanged; the
// simulation resumes so the next tick applies the new size.
func (s *Simulator) SetViewport(vp dynamo.Viewport) error {
	if err := validateViewport(vp); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	s.viewport = vp
	s.resume()
	return nil
}

// Configure replaces one force. Invalid parameters leave the previous
// configuration active.
func (s *Simulator) Configure(p forces.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return dynamo.ErrClosed
	}
	if err := s.forces.Configure(p); err != nil {
		return err
	}
	s.resume()
	return nil
}

// SetForces replaces the whole force record atomically.
func (s *Simulator) SetForces(cfg forces.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return dynamo.ErrClosed
	}
	if err := s.forces.SetConfig(cfg); err != nil {
		return err
	}
	s.resume()
	return nil
}

func (s *Simulator) Forces() forces.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forces.Config()
}

// Pin holds a body at (x, y). The position is enforced from the next tick.
func (s *Simulator) Pin(id string, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.bodies[i].Pin(x, y)
	return nil
}

func (s *Simulator) Unpin(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.bodies[i].Unpin()
	return nil
}

func (s *Simulator) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

func (s *Simulator) AlphaTarget() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alphaTarget
}

func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Simulator) Viewport() dynamo.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

func (s *Simulator) Options() Options {
	return s.opts
}

// Bodies returns a copy of the current bodies.
func (s *Simulator) Bodies() []dynamo.Body {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyBodies()
}

func (s *Simulator) Body(id string) (dynamo.Body, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.lookup(id)
	if err != nil {
		return dynamo.Body{}, err
	}
	return s.bodies[i], nil
}

// Links returns a copy of the resolved links.
func (s *Simulator) Links() []dynamo.Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dynamo.Link, len(s.links))
	copy(out, s.links)
	return out
}

// Snapshot reports the current state without ticking.
func (s *Simulator) Snapshot() TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result()
}

func (s *Simulator) Metrics() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s *Simulator) usable() error {
	if s.closed {
		return dynamo.ErrClosed
	}
	if !s.initialized {
		return dynamo.ErrNotInitialized
	}
	return nil
}

func (s *Simulator) lookup(id string) (int, error) {
	if err := s.usable(); err != nil {
		return 0, err
	}
	i, ok := s.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", dynamo.ErrUnknownBody, id)
	}
	return i, nil
}

func (s *Simulator) copyBodies() []dynamo.Body {
	out := make([]dynamo.Body, len(s.bodies))
	copy(out, s.bodies)
	return out
}

func (s *Simulator) resume() {
	if s.initialized && !s.closed {
		s.state = Running
		s.signal()
	}
}

// signal wakes Run without blocking.
func (s *Simulator) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func validateViewport(vp dynamo.Viewport) error {
	if err := validate.Struct(vp); err != nil {
		return &dynamo.ConfigError{Force: "viewport", Err: err}
	}
	return nil
}
