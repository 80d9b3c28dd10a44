package forces

import (
	"math"
	"math/rand"

	"github.com/san-kum/forcegraph/internal/dynamo"
	"github.com/san-kum/forcegraph/internal/quadtree"
)

// chargeBlock is the number of bodies sharing one jiggle stream. Fixed
// blocks keep results independent of the worker count.
const chargeBlock = 256

func (r *Registry) applyCharge(bodies []dynamo.Body, alpha float64) {
	p := r.cfg.Charge
	if !p.Enabled || p.Strength == 0 {
		return
	}

	xs, ys := r.positions(bodies, false)
	tree := quadtree.New(xs, ys)
	strength := p.Strength

	tree.VisitAfter(func(q *quadtree.Node, _, _, _, _ float64) {
		if q.Leaf() {
			pts := q.Points()
			q.X, q.Y = xs[pts[0]], ys[pts[0]]
			q.Value = strength * float64(len(pts))
			return
		}
		var value, weight, x, y float64
		for c := 0; c < 4; c++ {
			child := q.Child(c)
			if child == nil || child.Value == 0 {
				continue
			}
			w := math.Abs(child.Value)
			value += child.Value
			weight += w
			x += w * child.X
			y += w * child.Y
		}
		q.Value = value
		if weight > 0 {
			q.X, q.Y = x/weight, y/weight
		}
	})

	theta2 := p.Theta * p.Theta
	dmin2 := p.DistanceMin * p.DistanceMin
	// distanceMax 0 cuts off every interaction
	dmax2 := p.DistanceMax * p.DistanceMax

	n := len(bodies)
	blocks := (n + chargeBlock - 1) / chargeBlock
	seeds := make([]int64, blocks)
	for i := range seeds {
		seeds[i] = r.rng.Int63()
	}

	dynamo.ParallelFor(blocks, 2, func(start, end int) {
		for blk := start; blk < end; blk++ {
			rng := rand.New(rand.NewSource(seeds[blk]))
			hi := (blk + 1) * chargeBlock
			if hi > n {
				hi = n
			}
			for i := blk * chargeBlock; i < hi; i++ {
				vx, vy := chargeOn(tree, i, xs[i], ys[i], strength, alpha, theta2, dmin2, dmax2, rng)
				bodies[i].VX += vx
				bodies[i].VY += vy
			}
		}
	})
}

// chargeOn sums the field acting on body i, approximating distant cells by
// their weighted centre when cellWidth²/θ² < distance².
func chargeOn(tree *quadtree.Tree, i int, bx, by, strength, alpha, theta2, dmin2, dmax2 float64, rng *rand.Rand) (vx, vy float64) {
	tree.Visit(func(q *quadtree.Node, x0, _, x1, _ float64) bool {
		if q.Value == 0 {
			return true
		}
		x := q.X - bx
		y := q.Y - by
		w := x1 - x0
		l := x*x + y*y

		if w*w/theta2 < l {
			if l < dmax2 {
				if x == 0 {
					x = jiggle(rng)
					l += x * x
				}
				if y == 0 {
					y = jiggle(rng)
					l += y * y
				}
				if l < dmin2 {
					l = math.Sqrt(dmin2 * l)
				}
				vx += x * q.Value * alpha / l
				vy += y * q.Value * alpha / l
			}
			return true
		}

		if !q.Leaf() {
			return false
		}
		if l >= dmax2 {
			return true
		}

		pts := q.Points()
		if pts[0] != i || len(pts) > 1 {
			if x == 0 {
				x = jiggle(rng)
				l += x * x
			}
			if y == 0 {
				y = jiggle(rng)
				l += y * y
			}
			if l < dmin2 {
				l = math.Sqrt(dmin2 * l)
			}
		}
		for _, j := range pts {
			if j == i {
				continue
			}
			f := strength * alpha / l
			vx += x * f
			vy += y * f
		}
		return true
	})
	return vx, vy
}
