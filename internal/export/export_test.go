package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/san-kum/forcegraph/internal/dynamo"
	"github.com/san-kum/forcegraph/internal/sim"
)

func sample() sim.TickResult {
	a := dynamo.Body{ID: "A", Group: 1, X: 0, Y: 0}
	b := dynamo.Body{ID: "B", Index: 1, Group: 2, X: 30, Y: 40}
	b.Pin(30, 40)
	return sim.TickResult{Tick: 7, Alpha: 0.25, State: sim.Running, Bodies: []dynamo.Body{a, b}}
}

func TestNewFrame(t *testing.T) {
	links := []dynamo.Link{{Source: 0, Target: 1, Value: 3}, {Source: 0, Target: 9}}
	f := NewFrame(sample(), links)

	if f.Tick != 7 || f.Alpha != 0.25 || f.State != "running" {
		t.Errorf("header = %+v", f)
	}
	if len(f.Nodes) != 2 || !f.Nodes[1].Pinned || f.Nodes[0].Pinned {
		t.Errorf("nodes = %+v", f.Nodes)
	}
	if len(f.Links) != 1 {
		t.Fatalf("dangling link should be skipped, got %d links", len(f.Links))
	}
	l := f.Links[0]
	if l.Source != "A" || l.Target != "B" || l.X2 != 30 || l.Y2 != 40 || l.Value != 3 {
		t.Errorf("link = %+v", l)
	}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"alpha":0.25`, `"pinned":true`, `"x2":30`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("payload missing %s: %s", key, data)
		}
	}
}

func TestLayoutSVG(t *testing.T) {
	f := NewFrame(sample(), []dynamo.Link{{Source: 0, Target: 1}})
	svg := LayoutSVG(f, DefaultSVGOptions(200, 100))

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Error("not an svg document")
	}
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 circles, got %d", n)
	}
	if n := strings.Count(svg, "<line"); n != 1 {
		t.Errorf("expected 1 line, got %d", n)
	}
	if !strings.Contains(svg, GroupColor(2)) {
		t.Error("group color missing")
	}
}

func TestLayoutSVGFitsInside(t *testing.T) {
	r := sample()
	r.Bodies[1].X, r.Bodies[1].Y = 5000, -3000
	svg := LayoutSVG(NewFrame(r, nil), DefaultSVGOptions(200, 100))

	var cx, cy float64
	for _, line := range strings.Split(svg, "\n") {
		if !strings.HasPrefix(line, "<circle") {
			continue
		}
		if _, err := fmt.Sscanf(line, `<circle cx="%f" cy="%f"`, &cx, &cy); err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}
		if cx < 0 || cx > 200 || cy < 0 || cy > 100 {
			t.Errorf("circle at (%v, %v) outside the image", cx, cy)
		}
	}
}

func TestEscape(t *testing.T) {
	if got := escape(`<a & "b">`); got != "&lt;a &amp; &quot;b&quot;&gt;" {
		t.Errorf("escape = %q", got)
	}
}
