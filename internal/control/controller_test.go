package control_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/forcegraph/internal/control"
	"github.com/san-kum/forcegraph/internal/dynamo"
	"github.com/san-kum/forcegraph/internal/forces"
	"github.com/san-kum/forcegraph/internal/sim"
)

// recorder is an Engine that logs calls.
type recorder struct {
	calls  []string
	forces forces.Config
	fail   error
}

func (r *recorder) record(format string, args ...any) error {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	return r.fail
}

func (r *recorder) SetForces(cfg forces.Config) error {
	if r.fail == nil {
		r.forces = cfg
	}
	return r.record("forces")
}

func (r *recorder) Configure(p forces.Params) error {
	if r.fail == nil {
		r.forces = r.forces.With(p)
	}
	return r.record("configure %s", p.Kind())
}

func (r *recorder) Forces() forces.Config               { return r.forces }
func (r *recorder) Restart(alpha float64) error         { return r.record("restart %g", alpha) }
func (r *recorder) Resume() error                       { return r.record("resume") }
func (r *recorder) SetAlphaTarget(t float64) error      { return r.record("target %g", t) }
func (r *recorder) SetViewport(vp dynamo.Viewport) error { return r.record("viewport %s", vp) }
func (r *recorder) Pin(id string, x, y float64) error   { return r.record("pin %s %g %g", id, x, y) }
func (r *recorder) Unpin(id string) error               { return r.record("unpin %s", id) }

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var _ = Describe("Controller", func() {
	var (
		engine *recorder
		ctrl   *control.Controller
	)

	BeforeEach(func() {
		engine = &recorder{forces: forces.DefaultConfig()}
		var err error
		ctrl, err = control.New(engine, control.DefaultOptions(), quietLogger)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects invalid options", func() {
		opts := control.DefaultOptions()
		opts.ReheatAlpha = 0
		_, err := control.New(engine, opts, quietLogger)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})

	Describe("configuration changes", func() {
		It("applies the record and fully reheats", func() {
			Expect(ctrl.OnConfigChange(forces.DefaultConfig())).To(Succeed())
			Expect(engine.calls).To(Equal([]string{"forces", "restart 1"}))
		})

		It("does not reheat when the record is rejected", func() {
			engine.fail = dynamo.ErrInvalidConfig
			Expect(ctrl.OnConfigChange(forces.Config{})).To(MatchError(dynamo.ErrInvalidConfig))
			Expect(engine.calls).To(Equal([]string{"forces"}))
		})

		It("reheats after a single force change", func() {
			Expect(ctrl.OnForceChange(forces.LinkParams{Enabled: false, Distance: 30, Iterations: 1})).To(Succeed())
			Expect(engine.calls).To(Equal([]string{"configure link", "restart 1"}))
		})

		It("patches a force by name", func() {
			Expect(ctrl.OnForcePatch("charge", []byte(`{"strength": -80}`))).To(Succeed())
			Expect(engine.forces.Charge.Strength).To(Equal(-80.0))
			Expect(engine.forces.Charge.Enabled).To(BeTrue())
		})

		It("rejects unknown force names", func() {
			Expect(ctrl.OnForcePatch("gravity", []byte(`{}`))).To(MatchError(dynamo.ErrUnknownForce))
			Expect(engine.calls).To(BeEmpty())
		})
	})

	Describe("viewport resize", func() {
		It("applies the viewport and reheats by default", func() {
			Expect(ctrl.OnViewportResize(800, 600)).To(Succeed())
			Expect(engine.calls).To(Equal([]string{"viewport 800x600", "restart 1"}))
		})

		It("keeps the current alpha when resize reheat is off", func() {
			opts := control.DefaultOptions()
			opts.ResizeReheat = false
			ctrl, _ = control.New(engine, opts, quietLogger)

			Expect(ctrl.OnViewportResize(800, 600)).To(Succeed())
			Expect(engine.calls).To(Equal([]string{"viewport 800x600"}))
		})
	})

	Describe("dragging", func() {
		It("pins, warms and resumes on start", func() {
			Expect(ctrl.OnDragStart("A", 100, 200)).To(Succeed())
			Expect(engine.calls).To(Equal([]string{"pin A 100 200", "target 0.3", "resume"}))
			Expect(ctrl.Dragging("A")).To(BeTrue())
		})

		It("only moves the pin on move", func() {
			ctrl.OnDragStart("A", 100, 200)
			engine.calls = nil

			Expect(ctrl.OnDragMove("A", 110, 190)).To(Succeed())
			Expect(engine.calls).To(Equal([]string{"pin A 110 190"}))
		})

		It("releases and cools on end", func() {
			ctrl.OnDragStart("A", 100, 200)
			engine.calls = nil

			Expect(ctrl.OnDragEnd("A")).To(Succeed())
			Expect(engine.calls).To(Equal([]string{"unpin A", "target 0.0001"}))
			Expect(ctrl.Dragging("A")).To(BeFalse())
		})

		It("keeps the layout warm until the last concurrent drag ends", func() {
			ctrl.OnDragStart("A", 0, 0)
			ctrl.OnDragStart("B", 0, 0)
			Expect(engine.calls).To(Equal([]string{"pin A 0 0", "target 0.3", "resume", "pin B 0 0"}))

			engine.calls = nil
			ctrl.OnDragEnd("A")
			Expect(engine.calls).To(Equal([]string{"unpin A"}))
			ctrl.OnDragEnd("B")
			Expect(engine.calls).To(Equal([]string{"unpin A", "unpin B", "target 0.0001"}))
		})

		It("keeps a shared body pinned until every holder lets go", func() {
			ctrl.OnDragStart("A", 10, 10)
			ctrl.OnDragStart("A", 20, 20)
			Expect(engine.calls).To(Equal([]string{"pin A 10 10", "target 0.3", "resume", "pin A 20 20"}))

			engine.calls = nil
			Expect(ctrl.OnDragEnd("A")).To(Succeed())
			Expect(engine.calls).To(BeEmpty())
			Expect(ctrl.Dragging("A")).To(BeTrue())
			Expect(ctrl.OnDragMove("A", 30, 30)).To(Succeed())

			Expect(ctrl.OnDragEnd("A")).To(Succeed())
			Expect(engine.calls).To(Equal([]string{"pin A 30 30", "unpin A", "target 0.0001"}))
			Expect(ctrl.OnDragEnd("A")).To(MatchError(control.ErrNotDragging))
		})

		It("forgets every holder on reset", func() {
			ctrl.OnDragStart("A", 0, 0)
			ctrl.OnDragStart("A", 0, 0)
			ctrl.Reset()
			Expect(ctrl.Dragging("A")).To(BeFalse())

			engine.calls = nil
			ctrl.OnDragStart("B", 0, 0)
			Expect(engine.calls).To(Equal([]string{"pin B 0 0", "target 0.3", "resume"}))
		})

		It("rejects moves and releases without a drag", func() {
			Expect(ctrl.OnDragMove("A", 1, 1)).To(MatchError(control.ErrNotDragging))
			Expect(ctrl.OnDragEnd("A")).To(MatchError(control.ErrNotDragging))
		})

		It("does not track a drag the engine refused", func() {
			engine.fail = dynamo.ErrUnknownBody
			Expect(ctrl.OnDragStart("ghost", 0, 0)).To(MatchError(dynamo.ErrUnknownBody))
			Expect(ctrl.Dragging("ghost")).To(BeFalse())
		})
	})
})

var _ = Describe("Interaction with a live layout", func() {
	var (
		s    *sim.Simulator
		ctrl *control.Controller
	)

	BeforeEach(func() {
		var err error
		s, err = sim.New(sim.DefaultOptions(), forces.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(s.Close)

		nodes := []dynamo.Node{{ID: "A"}, {ID: "B"}, {ID: "C"}}
		edges := []dynamo.Edge{{Source: "A", Target: "B"}, {Source: "B", Target: "C"}}
		Expect(s.Initialize(nodes, edges, dynamo.Viewport{Width: 400, Height: 300})).To(Succeed())

		ctrl, err = control.New(s, control.DefaultOptions(), quietLogger)
		Expect(err).NotTo(HaveOccurred())
	})

	It("holds a dragged body exactly in place and lets it go on release", func() {
		Expect(ctrl.OnDragStart("A", 100, 200)).To(Succeed())
		Expect(s.AlphaTarget()).To(Equal(0.3))

		for i := 0; i < 10; i++ {
			r, err := s.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Bodies[0].X).To(Equal(100.0))
			Expect(r.Bodies[0].Y).To(Equal(200.0))
		}

		Expect(ctrl.OnDragEnd("A")).To(Succeed())
		Expect(s.AlphaTarget()).To(Equal(0.0001))

		r, err := s.Tick()
		Expect(err).NotTo(HaveOccurred())
		moved := r.Bodies[0].X != 100 || r.Bodies[0].Y != 200
		Expect(moved).To(BeTrue())
	})

	It("warms a settled layout while dragging", func() {
		_, err := s.Settle(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.State()).To(Equal(sim.Stopped))

		Expect(ctrl.OnDragStart("B", 200, 150)).To(Succeed())
		Expect(s.State()).To(Equal(sim.Running))
		for i := 0; i < 100; i++ {
			s.Tick()
		}
		Expect(s.Alpha()).To(BeNumerically(">", 0.25))
	})

	It("reheats to exactly one on a configuration change", func() {
		s.Settle(context.Background())

		cfg := forces.DefaultConfig()
		cfg.Charge.Strength = -100
		Expect(ctrl.OnConfigChange(cfg)).To(Succeed())
		Expect(s.Alpha()).To(Equal(1.0))
		Expect(s.Forces().Charge.Strength).To(Equal(-100.0))
	})

	It("keeps the last good configuration after a rejected change", func() {
		bad := forces.DefaultConfig()
		bad.Center.Strength = 3
		Expect(ctrl.OnConfigChange(bad)).To(MatchError(dynamo.ErrInvalidConfig))
		Expect(s.Forces()).To(Equal(forces.DefaultConfig()))
	})

	It("reports unknown bodies", func() {
		Expect(ctrl.OnDragStart("Z", 0, 0)).To(MatchError(dynamo.ErrUnknownBody))
	})

	It("keeps the layout warm while a second client still holds the body", func() {
		Expect(ctrl.OnDragStart("A", 10, 10)).To(Succeed())
		Expect(ctrl.OnDragStart("A", 20, 20)).To(Succeed())
		Expect(ctrl.OnDragEnd("A")).To(Succeed())

		Expect(s.AlphaTarget()).To(Equal(0.3))
		Expect(ctrl.OnDragMove("A", 40, 50)).To(Succeed())
		r, err := s.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Bodies[0].X).To(Equal(40.0))
		Expect(r.Bodies[0].Y).To(Equal(50.0))

		Expect(ctrl.OnDragEnd("A")).To(Succeed())
		Expect(s.AlphaTarget()).To(Equal(0.0001))
		b, err := s.Body("A")
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Pinned()).To(BeFalse())
	})

	It("does not lose fields when two patches hit one force at once", func() {
		for i := 0; i < 200; i++ {
			Expect(ctrl.OnConfigChange(forces.DefaultConfig())).To(Succeed())

			var wg sync.WaitGroup
			errs := make(chan error, 2)
			for _, patch := range []string{`{"strength": -50}`, `{"distanceMin": 5}`} {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- ctrl.OnForcePatch("charge", []byte(patch))
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}

			charge := s.Forces().Charge
			Expect(charge.Strength).To(Equal(-50.0))
			Expect(charge.DistanceMin).To(Equal(5.0))
		}
	})
})
