package viz

import (
	"math"

	"github.com/san-kum/forcegraph/internal/forces"
)

// slider is one tunable force parameter.
type slider struct {
	kind           forces.Kind
	label          string
	min, max, step float64
	get            func(forces.Config) float64
	set            func(forces.Config, float64) forces.Params
}

var sliders = []slider{
	{forces.Center, "x", 0, 1, 0.05,
		func(c forces.Config) float64 { return c.Center.X },
		func(c forces.Config, v float64) forces.Params { p := c.Center; p.X = v; return p }},
	{forces.Center, "y", 0, 1, 0.05,
		func(c forces.Config) float64 { return c.Center.Y },
		func(c forces.Config, v float64) forces.Params { p := c.Center; p.Y = v; return p }},
	{forces.Center, "strength", 0, 1, 0.05,
		func(c forces.Config) float64 { return c.Center.Strength },
		func(c forces.Config, v float64) forces.Params { p := c.Center; p.Strength = v; return p }},
	{forces.Charge, "strength", -200, 50, 5,
		func(c forces.Config) float64 { return c.Charge.Strength },
		func(c forces.Config, v float64) forces.Params { p := c.Charge; p.Strength = v; return p }},
	{forces.Charge, "distMin", 0, 50, 1,
		func(c forces.Config) float64 { return c.Charge.DistanceMin },
		func(c forces.Config, v float64) forces.Params { p := c.Charge; p.DistanceMin = v; return p }},
	{forces.Charge, "distMax", 0, 2000, 50,
		func(c forces.Config) float64 { return c.Charge.DistanceMax },
		func(c forces.Config, v float64) forces.Params { p := c.Charge; p.DistanceMax = v; return p }},
	{forces.Collide, "strength", 0, 1, 0.05,
		func(c forces.Config) float64 { return c.Collide.Strength },
		func(c forces.Config, v float64) forces.Params { p := c.Collide; p.Strength = v; return p }},
	{forces.Collide, "radius", 0, 50, 1,
		func(c forces.Config) float64 { return c.Collide.Radius },
		func(c forces.Config, v float64) forces.Params { p := c.Collide; p.Radius = v; return p }},
	{forces.Collide, "iters", 1, 10, 1,
		func(c forces.Config) float64 { return float64(c.Collide.Iterations) },
		func(c forces.Config, v float64) forces.Params {
			p := c.Collide
			p.Iterations = int(math.Round(v))
			return p
		}},
	{forces.ForceX, "strength", 0, 1, 0.05,
		func(c forces.Config) float64 { return c.ForceX.Strength },
		func(c forces.Config, v float64) forces.Params { p := c.ForceX; p.Strength = v; return p }},
	{forces.ForceX, "x", 0, 1, 0.05,
		func(c forces.Config) float64 { return c.ForceX.X },
		func(c forces.Config, v float64) forces.Params { p := c.ForceX; p.X = v; return p }},
	{forces.ForceY, "strength", 0, 1, 0.05,
		func(c forces.Config) float64 { return c.ForceY.Strength },
		func(c forces.Config, v float64) forces.Params { p := c.ForceY; p.Strength = v; return p }},
	{forces.ForceY, "y", 0, 1, 0.05,
		func(c forces.Config) float64 { return c.ForceY.Y },
		func(c forces.Config, v float64) forces.Params { p := c.ForceY; p.Y = v; return p }},
	{forces.Link, "distance", 0, 200, 5,
		func(c forces.Config) float64 { return c.Link.Distance },
		func(c forces.Config, v float64) forces.Params { p := c.Link; p.Distance = v; return p }},
	{forces.Link, "iters", 1, 10, 1,
		func(c forces.Config) float64 { return float64(c.Link.Iterations) },
		func(c forces.Config, v float64) forces.Params {
			p := c.Link
			p.Iterations = int(math.Round(v))
			return p
		}},
}

// nudge moves the slider by dir steps, clamped to its range.
func (s slider) nudge(c forces.Config, dir int) forces.Params {
	v := s.get(c) + float64(dir)*s.step
	// keep decimal steps from drifting
	v = math.Round(v/s.step) * s.step
	v = math.Max(s.min, math.Min(s.max, v))
	return s.set(c, v)
}
