package dynamo

import (
	"fmt"
	"math"
)

// Node is a dataset record. X and Y are optional initial positions.
type Node struct {
	ID      string
	Group   int
	X, Y    *float64
	Payload map[string]any
}

// Edge references two nodes by identifier.
type Edge struct {
	Source string
	Target string
	Value  float64
}

// Body is one simulated node. FX/FY hold the pinned position while
// FixedX/FixedY are set; integration never moves a fixed axis.
type Body struct {
	ID     string
	Index  int
	X, Y   float64
	VX, VY float64
	FX, FY float64

	FixedX, FixedY bool

	Group   int
	Payload map[string]any
}

// Pinned reports whether either axis is held.
func (b Body) Pinned() bool { return b.FixedX || b.FixedY }

// Pin holds the body at (x, y) on both axes.
func (b *Body) Pin(x, y float64) {
	b.FX, b.FY = x, y
	b.FixedX, b.FixedY = true, true
}

// Unpin releases both axes.
func (b *Body) Unpin() {
	b.FX, b.FY = 0, 0
	b.FixedX, b.FixedY = false, false
}

// IsValid reports whether position and velocity are finite.
func (b Body) IsValid() bool {
	for _, v := range [...]float64{b.X, b.Y, b.VX, b.VY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Link is an edge resolved to body indices.
type Link struct {
	Index  int
	Source int
	Target int
	Value  float64
}

// Viewport is the drawing area in device-independent pixels.
type Viewport struct {
	Width  float64 `json:"width" yaml:"width" toml:"width" validate:"gt=0"`
	Height float64 `json:"height" yaml:"height" toml:"height" validate:"gt=0"`
}

func (v Viewport) String() string {
	return fmt.Sprintf("%gx%g", v.Width, v.Height)
}

// Integrator advances body positions from their accumulated velocities.
type Integrator interface {
	Step(bodies []Body)
}

// Resolve builds the body arena and the index-pair links for a dataset.
// It fails on duplicate node identifiers and on edges naming unknown nodes.
func Resolve(nodes []Node, edges []Edge) ([]Body, []Link, map[string]int, error) {
	index := make(map[string]int, len(nodes))
	bodies := make([]Body, len(nodes))
	for i, n := range nodes {
		if _, dup := index[n.ID]; dup {
			return nil, nil, nil, fmt.Errorf("%w: %q", ErrDuplicateBody, n.ID)
		}
		index[n.ID] = i
		b := Body{ID: n.ID, Index: i, Group: n.Group, Payload: n.Payload}
		if n.X != nil && n.Y != nil {
			b.X, b.Y = *n.X, *n.Y
		} else {
			b.X, b.Y = math.NaN(), math.NaN()
		}
		bodies[i] = b
	}

	links := make([]Link, len(edges))
	for i, e := range edges {
		s, ok := index[e.Source]
		if !ok {
			return nil, nil, nil, &ReferenceError{Link: i, ID: e.Source}
		}
		t, ok := index[e.Target]
		if !ok {
			return nil, nil, nil, &ReferenceError{Link: i, ID: e.Target}
		}
		links[i] = Link{Index: i, Source: s, Target: t, Value: e.Value}
	}
	return bodies, links, index, nil
}
