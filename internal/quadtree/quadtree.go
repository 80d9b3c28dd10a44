// Package quadtree implements the spatial index used by the charge and
// collide forces.
//
// A [Tree] partitions a square extent into quadrants until every leaf holds
// a single position. Bodies sharing exact coordinates share a leaf. Each
// [Node] carries scratch aggregates (Value, X, Y, R) that a force fills in
// with [Tree.VisitAfter] before querying it with [Tree.Visit].
package quadtree

import "math"

// maxDepth bounds subdivision for nearly coincident points.
const maxDepth = 48

// Node is a cell of the tree. Leaves hold point indices; internal nodes
// hold up to four children ordered NW, NE, SW, SE.
type Node struct {
	children [4]*Node
	points   []int

	Value float64
	X, Y  float64
	R     float64
}

// Leaf reports whether the node holds points instead of children.
func (n *Node) Leaf() bool { return len(n.points) > 0 }

// Points returns the indices stored in a leaf.
func (n *Node) Points() []int { return n.points }

// Child returns quadrant q (0..3), or nil.
func (n *Node) Child(q int) *Node { return n.children[q] }

// Tree is a point quadtree over parallel coordinate slices.
type Tree struct {
	root           *Node
	x0, y0, x1, y1 float64
	xs, ys         []float64
	size           int
}

// New builds a tree over (xs[i], ys[i]). Non-finite coordinates are skipped.
func New(xs, ys []float64) *Tree {
	t := &Tree{xs: xs, ys: ys}
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i < n; i++ {
		x, y := xs[i], ys[i]
		if !finite(x) || !finite(y) {
			continue
		}
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	if math.IsInf(minX, 1) {
		return t
	}

	side := math.Max(maxX-minX, maxY-minY)
	if side <= 0 {
		side = 1
	}
	// widen slightly so the maximum coordinate is strictly inside
	side *= 1 + 1e-9
	t.x0, t.y0 = minX, minY
	t.x1, t.y1 = minX+side, minY+side

	t.root = &Node{}
	for i := 0; i < n; i++ {
		if !finite(xs[i]) || !finite(ys[i]) {
			continue
		}
		t.insert(t.root, i, t.x0, t.y0, t.x1, t.y1, 0)
		t.size++
	}
	return t
}

// Len returns the number of indexed points.
func (t *Tree) Len() int { return t.size }

// Root returns the root cell, nil for an empty tree.
func (t *Tree) Root() *Node { return t.root }

// Extent returns the square covered by the root.
func (t *Tree) Extent() (x0, y0, x1, y1 float64) {
	return t.x0, t.y0, t.x1, t.y1
}

func (t *Tree) insert(n *Node, i int, x0, y0, x1, y1 float64, depth int) {
	x, y := t.xs[i], t.ys[i]
	for {
		if n.Leaf() {
			j := n.points[0]
			if (t.xs[j] == x && t.ys[j] == y) || depth >= maxDepth {
				n.points = append(n.points, i)
				return
			}
			// split: move the resident points one level down
			q, _, _, _, _ := quadrant(t.xs[j], t.ys[j], x0, y0, x1, y1)
			n.children[q] = &Node{points: n.points}
			n.points = nil
		} else if n.empty() {
			n.points = []int{i}
			return
		}

		q, cx0, cy0, cx1, cy1 := quadrant(x, y, x0, y0, x1, y1)
		child := n.children[q]
		if child == nil {
			n.children[q] = &Node{points: []int{i}}
			return
		}
		n, x0, y0, x1, y1 = child, cx0, cy0, cx1, cy1
		depth++
	}
}

func (n *Node) empty() bool {
	return n.children[0] == nil && n.children[1] == nil && n.children[2] == nil && n.children[3] == nil
}

func quadrant(x, y, x0, y0, x1, y1 float64) (q int, qx0, qy0, qx1, qy1 float64) {
	xm, ym := (x0+x1)/2, (y0+y1)/2
	qx0, qy0, qx1, qy1 = x0, y0, xm, ym
	if x >= xm {
		q |= 1
		qx0, qx1 = xm, x1
	}
	if y >= ym {
		q |= 2
		qy0, qy1 = ym, y1
	}
	return q, qx0, qy0, qx1, qy1
}

// Visit walks the tree in pre-order. Returning true from fn skips the
// children of the visited node.
func (t *Tree) Visit(fn func(n *Node, x0, y0, x1, y1 float64) bool) {
	if t.root == nil {
		return
	}
	type frame struct {
		n              *Node
		x0, y0, x1, y1 float64
	}
	stack := []frame{{t.root, t.x0, t.y0, t.x1, t.y1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if fn(f.n, f.x0, f.y0, f.x1, f.y1) || f.n.Leaf() {
			continue
		}
		xm, ym := (f.x0+f.x1)/2, (f.y0+f.y1)/2
		// push in reverse so quadrant 0 is visited first
		if c := f.n.children[3]; c != nil {
			stack = append(stack, frame{c, xm, ym, f.x1, f.y1})
		}
		if c := f.n.children[2]; c != nil {
			stack = append(stack, frame{c, f.x0, ym, xm, f.y1})
		}
		if c := f.n.children[1]; c != nil {
			stack = append(stack, frame{c, xm, f.y0, f.x1, ym})
		}
		if c := f.n.children[0]; c != nil {
			stack = append(stack, frame{c, f.x0, f.y0, xm, ym})
		}
	}
}

// VisitAfter walks the tree in post-order, so every child is visited
// before its parent.
func (t *Tree) VisitAfter(fn func(n *Node, x0, y0, x1, y1 float64)) {
	if t.root == nil {
		return
	}
	visitAfter(t.root, t.x0, t.y0, t.x1, t.y1, fn)
}

func visitAfter(n *Node, x0, y0, x1, y1 float64, fn func(*Node, float64, float64, float64, float64)) {
	if !n.Leaf() {
		xm, ym := (x0+x1)/2, (y0+y1)/2
		if c := n.children[0]; c != nil {
			visitAfter(c, x0, y0, xm, ym, fn)
		}
		if c := n.children[1]; c != nil {
			visitAfter(c, xm, y0, x1, ym, fn)
		}
		if c := n.children[2]; c != nil {
			visitAfter(c, x0, ym, xm, y1, fn)
		}
		if c := n.children[3]; c != nil {
			visitAfter(c, xm, ym, x1, y1, fn)
		}
	}
	fn(n, x0, y0, x1, y1)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
