package config

import "sort"

// Presets are named force tunings on top of the defaults.
var Presets = map[string]func(*Config){
	"default": func(*Config) {},
	"clustered": func(c *Config) {
		c.Forces.Charge.Strength = -15
		c.Forces.ForceX.Enabled = true
		c.Forces.ForceY.Enabled = true
		c.Forces.Link.Distance = 20
	},
	"sparse": func(c *Config) {
		c.Forces.Charge.Strength = -120
		c.Forces.Collide.Radius = 8
		c.Forces.Link.Distance = 60
	},
	"dense": func(c *Config) {
		c.Forces.Charge.Strength = -8
		c.Forces.Charge.DistanceMax = 200
		c.Forces.Collide.Radius = 3
		c.Forces.Collide.Iterations = 2
		c.Forces.Link.Distance = 15
	},
	"links-only": func(c *Config) {
		c.Forces.Charge.Enabled = false
		c.Forces.Collide.Enabled = false
		c.Forces.Link.Iterations = 3
	},
}

// GetPreset returns a fresh config with the preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
