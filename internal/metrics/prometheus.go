package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/forcegraph/internal/sim"
)

// Recorder exports simulation progress to Prometheus. It is a sim.Observer.
type Recorder struct {
	registry *prometheus.Registry

	Ticks         prometheus.Counter
	Alpha         prometheus.Gauge
	Running       prometheus.Gauge
	Bodies        prometheus.Gauge
	KineticEnergy prometheus.Gauge
	TickDuration  prometheus.Histogram
	Events        *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{registry: reg}

	r.Ticks = promauto.With(reg).NewCounter(
		prometheus.CounterOpts{
			Name: "forcegraph_ticks_total",
			Help: "Total number of simulation ticks",
		},
	)

	r.Alpha = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "forcegraph_alpha",
			Help: "Current simulation alpha",
		},
	)

	r.Running = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "forcegraph_running",
			Help: "1 while the simulation is ticking, 0 when stopped",
		},
	)

	r.Bodies = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "forcegraph_bodies",
			Help: "Number of simulated bodies",
		},
	)

	r.KineticEnergy = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "forcegraph_kinetic_energy",
			Help: "Total kinetic energy after the last tick",
		},
	)

	r.TickDuration = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forcegraph_tick_duration_seconds",
			Help:    "Wall time of one simulation tick",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	r.Events = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "forcegraph_interaction_events_total",
			Help: "Interaction events by type and outcome",
		},
		[]string{"type", "status"},
	)

	reg.MustRegister(collectors.NewGoCollector())

	return r
}

func (r *Recorder) OnTick(t sim.TickResult) {
	r.Ticks.Inc()
	r.Alpha.Set(t.Alpha)
	r.Bodies.Set(float64(len(t.Bodies)))
	r.KineticEnergy.Set(Kinetic(t))
	r.TickDuration.Observe(t.Duration.Seconds())
	if t.State == sim.Running {
		r.Running.Set(1)
	} else {
		r.Running.Set(0)
	}
}

// Event counts an interaction event; err selects the "error" status.
func (r *Recorder) Event(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.Events.WithLabelValues(kind, status).Inc()
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
