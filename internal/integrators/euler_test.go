package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/forcegraph/internal/dynamo"
)

func TestEulerStep(t *testing.T) {
	integ := NewEuler(0.5)
	bodies := []dynamo.Body{{X: 1, Y: 2, VX: 4, VY: -2}}

	integ.Step(bodies)

	if bodies[0].VX != 2 || bodies[0].VY != -1 {
		t.Errorf("velocity not decayed: got (%v, %v)", bodies[0].VX, bodies[0].VY)
	}
	if bodies[0].X != 3 || bodies[0].Y != 1 {
		t.Errorf("position not advanced: got (%v, %v)", bodies[0].X, bodies[0].Y)
	}
}

func TestEulerPinnedAxes(t *testing.T) {
	tests := []struct {
		name           string
		fixedX, fixedY bool
		wantX, wantY   float64
	}{
		{"both", true, true, 100, 200},
		{"x only", true, false, 100, 0 + 10*0.6},
		{"y only", false, true, 5 + 10*0.6, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bodies := []dynamo.Body{{X: 5, Y: 0, VX: 10, VY: 10, FX: 100, FY: 200, FixedX: tt.fixedX, FixedY: tt.fixedY}}
			NewEuler(DefaultVelocityDecay).Step(bodies)

			b := bodies[0]
			if math.Abs(b.X-tt.wantX) > 1e-12 || math.Abs(b.Y-tt.wantY) > 1e-12 {
				t.Errorf("got (%v, %v), want (%v, %v)", b.X, b.Y, tt.wantX, tt.wantY)
			}
			if tt.fixedX && b.VX != 0 {
				t.Errorf("pinned x kept velocity %v", b.VX)
			}
			if tt.fixedY && b.VY != 0 {
				t.Errorf("pinned y kept velocity %v", b.VY)
			}
		})
	}
}

func TestEulerDecayConverges(t *testing.T) {
	integ := NewEuler(DefaultVelocityDecay)
	bodies := []dynamo.Body{{VX: 10}}

	for i := 0; i < 100; i++ {
		integ.Step(bodies)
	}

	// geometric series: 10·d/(1-d)
	want := 10 * DefaultVelocityDecay / (1 - DefaultVelocityDecay)
	if math.Abs(bodies[0].X-want) > 1e-6 {
		t.Errorf("expected drift %.6f, got %.6f", want, bodies[0].X)
	}
}
