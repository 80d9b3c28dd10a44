package forces

import (
	"math"

	"github.com/san-kum/forcegraph/internal/dynamo"
	"github.com/san-kum/forcegraph/internal/quadtree"
)

// applyCollide pushes apart bodies whose predicted positions overlap. The
// correction is proportional to radius_i + radius_j - distance and split
// by squared radius.
func (r *Registry) applyCollide(bodies []dynamo.Body) {
	p := r.cfg.Collide
	if !p.Enabled || p.Strength == 0 || p.Radius <= 0 {
		return
	}
	radius := p.Radius

	for k := 0; k < p.Iterations; k++ {
		xs, ys := r.positions(bodies, true)
		tree := quadtree.New(xs, ys)
		tree.VisitAfter(func(q *quadtree.Node, _, _, _, _ float64) {
			if q.Leaf() {
				q.R = radius
				return
			}
			q.R = 0
			for c := 0; c < 4; c++ {
				if child := q.Child(c); child != nil && child.R > q.R {
					q.R = child.R
				}
			}
		})

		for i := range bodies {
			b := &bodies[i]
			ri := radius
			ri2 := ri * ri
			xi, yi := b.X+b.VX, b.Y+b.VY

			tree.Visit(func(q *quadtree.Node, x0, y0, x1, y1 float64) bool {
				rj := q.R
				rr := ri + rj
				if !q.Leaf() {
					return x0 > xi+rr || x1 < xi-rr || y0 > yi+rr || y1 < yi-rr
				}
				for _, j := range q.Points() {
					if j <= i {
						continue
					}
					d := &bodies[j]
					x := xi - d.X - d.VX
					y := yi - d.Y - d.VY
					l := x*x + y*y
					if l >= rr*rr {
						continue
					}
					if x == 0 {
						x = r.jiggle()
						l += x * x
					}
					if y == 0 {
						y = r.jiggle()
						l += y * y
					}
					l = math.Sqrt(l)
					l = (rr - l) / l * p.Strength
					x *= l
					y *= l
					rj2 := rj * rj
					w := rj2 / (ri2 + rj2)
					b.VX += x * w
					b.VY += y * w
					d.VX -= x * (1 - w)
					d.VY -= y * (1 - w)
				}
				return true
			})
		}
	}
}
