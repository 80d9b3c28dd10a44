package metrics

import (
	"math"

	"github.com/san-kum/forcegraph/internal/sim"
)

// KineticEnergy reports the total kinetic energy of the last tick, with
// unit mass per body. It falls to zero as the layout settles.
type KineticEnergy struct {
	name  string
	value float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(r sim.TickResult) {
	k.value = Kinetic(r)
}

func (k *KineticEnergy) Value() float64 { return k.value }

func (k *KineticEnergy) Reset() { k.value = 0 }

func Kinetic(r sim.TickResult) float64 {
	var e float64
	for _, b := range r.Bodies {
		e += 0.5 * (b.VX*b.VX + b.VY*b.VY)
	}
	return e
}

// Displacement tracks the largest distance any body moved in one tick.
type Displacement struct {
	name   string
	prev   []float64
	latest float64
	peak   float64
}

func NewDisplacement() *Displacement {
	return &Displacement{name: "max_displacement"}
}

func (d *Displacement) Name() string { return d.name }

func (d *Displacement) Observe(r sim.TickResult) {
	n := len(r.Bodies)
	if len(d.prev) != 2*n {
		d.prev = make([]float64, 2*n)
		for i, b := range r.Bodies {
			d.prev[2*i], d.prev[2*i+1] = b.X, b.Y
		}
		return
	}

	d.latest = 0
	for i, b := range r.Bodies {
		dist := math.Hypot(b.X-d.prev[2*i], b.Y-d.prev[2*i+1])
		d.latest = math.Max(d.latest, dist)
		d.prev[2*i], d.prev[2*i+1] = b.X, b.Y
	}
	d.peak = math.Max(d.peak, d.latest)
}

// Value is the displacement of the most recent tick.
func (d *Displacement) Value() float64 { return d.latest }

// Peak is the largest displacement since the last reset.
func (d *Displacement) Peak() float64 { return d.peak }

func (d *Displacement) Reset() {
	d.prev = nil
	d.latest = 0
	d.peak = 0
}

// TickTime is the mean wall time per tick in milliseconds.
type TickTime struct {
	name    string
	sum     float64
	samples int
}

func NewTickTime() *TickTime {
	return &TickTime{name: "tick_ms"}
}

func (t *TickTime) Name() string { return t.name }

func (t *TickTime) Observe(r sim.TickResult) {
	t.sum += float64(r.Duration.Microseconds()) / 1000
	t.samples++
}

func (t *TickTime) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.sum / float64(t.samples)
}

func (t *TickTime) Reset() {
	t.sum = 0
	t.samples = 0
}
