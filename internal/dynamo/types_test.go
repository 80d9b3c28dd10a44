package dynamo

import (
	"errors"
	"math"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestBody_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		body  Body
		valid bool
	}{
		{"zero", Body{}, true},
		{"normal", Body{X: 1, Y: 2, VX: 3, VY: 4}, true},
		{"NaN position", Body{X: math.NaN()}, false},
		{"+Inf velocity", Body{VX: math.Inf(1)}, false},
		{"-Inf velocity", Body{VY: math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.body.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestBody_PinUnpin(t *testing.T) {
	var b Body
	if b.Pinned() {
		t.Fatal("zero body reported pinned")
	}

	b.Pin(100, 200)
	if !b.FixedX || !b.FixedY || b.FX != 100 || b.FY != 200 {
		t.Errorf("Pin did not hold both axes: %+v", b)
	}

	b.Unpin()
	if b.Pinned() {
		t.Errorf("Unpin left body pinned: %+v", b)
	}
}

func TestResolve(t *testing.T) {
	nodes := []Node{
		{ID: "a", Group: 1, X: ptr(5), Y: ptr(6)},
		{ID: "b"},
		{ID: "c"},
	}
	edges := []Edge{{Source: "a", Target: "b", Value: 2}, {Source: "b", Target: "c"}}

	bodies, links, index, err := Resolve(nodes, edges)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(bodies) != 3 || len(links) != 2 {
		t.Fatalf("got %d bodies, %d links", len(bodies), len(links))
	}
	if bodies[0].X != 5 || bodies[0].Y != 6 || bodies[0].Group != 1 {
		t.Errorf("initial position or group lost: %+v", bodies[0])
	}
	if !math.IsNaN(bodies[1].X) || !math.IsNaN(bodies[1].Y) {
		t.Errorf("unpositioned body should be NaN, got (%v, %v)", bodies[1].X, bodies[1].Y)
	}
	if links[0].Source != 0 || links[0].Target != 1 || links[0].Value != 2 {
		t.Errorf("link 0 resolved to %+v", links[0])
	}
	if links[1].Index != 1 || links[1].Source != 1 || links[1].Target != 2 {
		t.Errorf("link 1 resolved to %+v", links[1])
	}
	if index["c"] != 2 {
		t.Errorf("index[c] = %d", index["c"])
	}
}

func TestResolveErrors(t *testing.T) {
	t.Run("dangling endpoint", func(t *testing.T) {
		_, _, _, err := Resolve([]Node{{ID: "a"}}, []Edge{{Source: "a", Target: "zz"}})

		var ref *ReferenceError
		if !errors.As(err, &ref) {
			t.Fatalf("expected ReferenceError, got %v", err)
		}
		if ref.ID != "zz" || ref.Link != 0 {
			t.Errorf("wrong reference: %+v", ref)
		}
		if !errors.Is(err, ErrUnknownBody) {
			t.Error("ReferenceError should unwrap to ErrUnknownBody")
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, _, _, err := Resolve([]Node{{ID: "a"}, {ID: "a"}}, nil)
		if !errors.Is(err, ErrDuplicateBody) {
			t.Errorf("expected ErrDuplicateBody, got %v", err)
		}
	})
}

func TestConfigError(t *testing.T) {
	inner := errors.New("strength too large")
	err := &ConfigError{Force: "charge", Err: inner}

	if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, inner) {
		t.Error("ConfigError should match both ErrInvalidConfig and its cause")
	}
	if got, want := err.Error(), "invalid charge configuration: strength too large"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 1000} {
		seen := make([]int, n)
		ParallelFor(n, 16, func(start, end int) {
			for i := start; i < end; i++ {
				seen[i]++
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
	}
}
