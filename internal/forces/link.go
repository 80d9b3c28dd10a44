package forces

import (
	"math"

	"github.com/san-kum/forcegraph/internal/dynamo"
)

// applyLink relaxes every active link toward the target distance. Each
// link's stiffness is 1/min(deg(s), deg(t)) and the correction is split
// by endpoint degree so hubs move less than leaves.
func (r *Registry) applyLink(bodies []dynamo.Body, links []dynamo.Link, alpha float64) {
	p := r.cfg.Link
	if !p.Enabled || len(links) == 0 {
		return
	}
	n := len(bodies)

	if cap(r.degree) < n {
		r.degree = make([]int, n)
	}
	degree := r.degree[:n]
	for i := range degree {
		degree[i] = 0
	}
	for _, l := range links {
		if !validLink(l, n) {
			continue
		}
		degree[l.Source]++
		degree[l.Target]++
	}

	for k := 0; k < p.Iterations; k++ {
		for _, l := range links {
			if !validLink(l, n) {
				continue
			}
			s, t := &bodies[l.Source], &bodies[l.Target]

			x := t.X + t.VX - s.X - s.VX
			if x == 0 {
				x = r.jiggle()
			}
			y := t.Y + t.VY - s.Y - s.VY
			if y == 0 {
				y = r.jiggle()
			}

			ds, dt := float64(degree[l.Source]), float64(degree[l.Target])
			strength := 1 / math.Min(ds, dt)
			bias := ds / (ds + dt)

			d := math.Sqrt(x*x + y*y)
			f := (d - p.Distance) / d * alpha * strength
			x *= f
			y *= f

			t.VX -= x * bias
			t.VY -= y * bias
			s.VX += x * (1 - bias)
			s.VY += y * (1 - bias)
		}
	}
}

func validLink(l dynamo.Link, n int) bool {
	return l.Source >= 0 && l.Source < n && l.Target >= 0 && l.Target < n
}
