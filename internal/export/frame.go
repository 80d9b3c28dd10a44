package export

import (
	"github.com/san-kum/forcegraph/internal/dynamo"
	"github.com/san-kum/forcegraph/internal/sim"
)

// Frame is the renderer payload of one tick.
type Frame struct {
	Tick  int         `json:"tick"`
	Alpha float64     `json:"alpha"`
	State string      `json:"state"`
	Nodes []FrameNode `json:"nodes"`
	Links []FrameLink `json:"links"`
}

type FrameNode struct {
	ID     string  `json:"id"`
	Group  int     `json:"group"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pinned bool    `json:"pinned,omitempty"`
}

// FrameLink carries resolved endpoint coordinates so a renderer can draw
// lines without an id lookup.
type FrameLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
}

// NewFrame builds a payload from a tick result. Links whose endpoints are
// out of range are skipped.
func NewFrame(r sim.TickResult, links []dynamo.Link) Frame {
	f := Frame{
		Tick:  r.Tick,
		Alpha: r.Alpha,
		State: r.State.String(),
		Nodes: make([]FrameNode, len(r.Bodies)),
		Links: make([]FrameLink, 0, len(links)),
	}
	for i, b := range r.Bodies {
		f.Nodes[i] = FrameNode{ID: b.ID, Group: b.Group, X: b.X, Y: b.Y, Pinned: b.Pinned()}
	}
	for _, l := range links {
		if l.Source < 0 || l.Source >= len(r.Bodies) || l.Target < 0 || l.Target >= len(r.Bodies) {
			continue
		}
		s, t := r.Bodies[l.Source], r.Bodies[l.Target]
		f.Links = append(f.Links, FrameLink{
			Source: s.ID, Target: t.ID, Value: l.Value,
			X1: s.X, Y1: s.Y, X2: t.X, Y2: t.Y,
		})
	}
	return f
}
