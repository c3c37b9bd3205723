// Package metrics exposes simulation counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/systems"
	"github.com/pthm-cable/ecosim/telemetry"
)

// Recorder owns a private registry so several simulations (and tests) can
// coexist in one process. A nil Recorder ignores every call.
//
// Labels are bounded: kind, cause, phase, card and reason all come from
// fixed enumerations.
type Recorder struct {
	registry *prometheus.Registry

	population    *prometheus.GaugeVec
	births        *prometheus.CounterVec
	deaths        *prometheus.CounterVec
	events        *prometheus.CounterVec
	tickDuration  prometheus.Histogram
	phaseDuration *prometheus.HistogramVec
	simTime       prometheus.Gauge
	ticks         prometheus.Counter

	wsClients prometheus.Gauge
	rejected  *prometheus.CounterVec
	cards     *prometheus.CounterVec
}

// New creates a recorder with one phase series per registered tick phase.
func New(phases *systems.SystemRegistry) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Recorder{
		registry: reg,
		population: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ecosim_population",
			Help: "Living entities per kind",
		}, []string{"kind"}),
		births: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ecosim_births_total",
			Help: "Entities created by reproduction or cards",
		}, []string{"kind"}),
		deaths: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ecosim_deaths_total",
			Help: "Entities removed, by cause",
		}, []string{"kind", "cause"}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ecosim_interactions_total",
			Help: "Bites, kills, meals and pairings",
		}, []string{"type"}),
		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecosim_tick_duration_seconds",
			Help:    "Wall time spent in one simulation step",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		phaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecosim_phase_duration_seconds",
			Help:    "Wall time spent in each step phase",
			Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"phase"}),
		simTime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ecosim_sim_time_seconds",
			Help: "Simulated seconds since start",
		}),
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Name: "ecosim_ticks_total",
			Help: "Simulation steps taken",
		}),
		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ecosim_websocket_clients",
			Help: "Connected snapshot stream clients",
		}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ecosim_requests_rejected_total",
			Help: "Requests refused by the observation server",
		}, []string{"reason"}),
		cards: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ecosim_cards_total",
			Help: "Cards applied between ticks",
		}, []string{"card"}),
	}

	// Pre-create series so every kind and phase shows up before the first event.
	for _, name := range components.KindNames() {
		r.population.WithLabelValues(name)
		r.births.WithLabelValues(name)
	}
	if phases != nil {
		for _, id := range phases.IDs() {
			r.phaseDuration.WithLabelValues(id)
		}
	}
	return r
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry for additional collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObservePopulation sets the population gauges.
func (r *Recorder) ObservePopulation(pop [components.KindCount]int) {
	if r == nil {
		return
	}
	for k, n := range pop {
		r.population.WithLabelValues(components.Kind(k).String()).Set(float64(n))
	}
}

// ObserveEvent counts one telemetry event.
func (r *Recorder) ObserveEvent(ev telemetry.Event) {
	if r == nil {
		return
	}
	switch ev.Type {
	case telemetry.EventBirth:
		r.births.WithLabelValues(ev.Kind.String()).Inc()
	case telemetry.EventDeath:
		r.deaths.WithLabelValues(ev.Kind.String(), ev.Cause.String()).Inc()
	case telemetry.EventBite:
		r.events.WithLabelValues("bite").Inc()
	case telemetry.EventKill:
		r.events.WithLabelValues("kill").Inc()
	case telemetry.EventMeal:
		r.events.WithLabelValues("meal").Inc()
	case telemetry.EventPairing:
		r.events.WithLabelValues("pairing").Inc()
	}
}

// ObserveTick records the timing of one step and the simulated clock.
func (r *Recorder) ObserveTick(sample telemetry.PerfSample, simTimeSec float64) {
	if r == nil {
		return
	}
	r.ticks.Inc()
	r.simTime.Set(simTimeSec)
	r.tickDuration.Observe(sample.TickDuration.Seconds())
	for phase, d := range sample.Phases {
		r.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
	}
}

// ObserveCard counts an applied card.
func (r *Recorder) ObserveCard(name string) {
	if r == nil {
		return
	}
	r.cards.WithLabelValues(name).Inc()
}

// RecordRejected counts a refused request.
// reason is one of "rate_limit", "card_queue", "ws_limit" or "origin".
func (r *Recorder) RecordRejected(reason string) {
	if r == nil {
		return
	}
	r.rejected.WithLabelValues(reason).Inc()
}

// SetStreamClients updates the websocket client gauge.
func (r *Recorder) SetStreamClients(n int) {
	if r == nil {
		return
	}
	r.wsClients.Set(float64(n))
}
