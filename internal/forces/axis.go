package forces

import "github.com/san-kum/forcegraph/internal/dynamo"

func (r *Registry) applyX(bodies []dynamo.Body, vp dynamo.Viewport, alpha float64) {
	p := r.cfg.ForceX
	if !p.Enabled || p.Strength == 0 {
		return
	}
	target := vp.Width * p.X
	k := p.Strength * alpha
	for i := range bodies {
		bodies[i].VX += (target - bodies[i].X) * k
	}
}

func (r *Registry) applyY(bodies []dynamo.Body, vp dynamo.Viewport, alpha float64) {
	p := r.cfg.ForceY
	if !p.Enabled || p.Strength == 0 {
		return
	}
	target := vp.Height * p.Y
	k := p.Strength * alpha
	for i := range bodies {
		bodies[i].VY += (target - bodies[i].Y) * k
	}
}
