package forces

import "github.com/san-kum/forcegraph/internal/dynamo"

func (r *Registry) applyCenter(bodies []dynamo.Body, vp dynamo.Viewport) {
	p := r.cfg.Center
	if p.Strength == 0 {
		return
	}
	cx, cy := vp.Width*p.X, vp.Height*p.Y

	var sx, sy float64
	for i := range bodies {
		sx += bodies[i].X
		sy += bodies[i].Y
	}
	n := float64(len(bodies))
	sx = (sx/n - cx) * p.Strength
	sy = (sy/n - cy) * p.Strength

	for i := range bodies {
		bodies[i].X -= sx
		bodies[i].Y -= sy
	}
}
