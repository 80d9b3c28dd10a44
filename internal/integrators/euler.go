package integrators

import "github.com/san-kum/forcegraph/internal/dynamo"

// DefaultVelocityDecay is the fraction of velocity kept after each step.
const DefaultVelocityDecay = 0.6

// Euler is a unit-timestep semi-implicit Euler step with velocity decay,
// the integrator of a d3-style force layout. A fixed axis is snapped to its
// pin and loses its velocity.
type Euler struct {
	Decay float64
}

func NewEuler(decay float64) *Euler {
	return &Euler{Decay: decay}
}

func (e *Euler) Step(bodies []dynamo.Body) {
	for i := range bodies {
		b := &bodies[i]
		if b.FixedX {
			b.X, b.VX = b.FX, 0
		} else {
			b.VX *= e.Decay
			b.X += b.VX
		}
		if b.FixedY {
			b.Y, b.VY = b.FY, 0
		} else {
			b.VY *= e.Decay
			b.Y += b.VY
		}
	}
}
