// Package metrics exports decoder counters and reading rates to Prometheus.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/inertial_decoder/internal/framing"
)

// Metrics owns a private registry so tests and several producers in one
// process do not collide on the default one.
type Metrics struct {
	reg      *prometheus.Registry
	events   *prometheus.CounterVec
	readings *prometheus.CounterVec
	state    *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inertial_decoder_events_total",
				Help: "decoder frame outcomes and discarded bytes",
			},
			[]string{"decoder", "event"},
		),
		readings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inertial_decoder_readings_total",
				Help: "readings handed to the publisher",
			},
			[]string{"kind"},
		),
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "inertial_decoder_state",
				Help: "automaton state after the last byte",
			},
			[]string{"decoder"},
		),
	}
	m.reg.MustRegister(m.events, m.readings, m.state)
	return m
}

// Handler serves the registry in the text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Reading counts one published reading of kind.
func (m *Metrics) Reading(kind string) {
	m.readings.WithLabelValues(kind).Inc()
}

// Tracker turns successive framing.Stats snapshots of one decoder into
// counter increments.
type Tracker struct {
	m       *Metrics
	decoder string

	mu   sync.Mutex
	prev framing.Stats
}

func (m *Metrics) Tracker(decoder string) *Tracker {
	return &Tracker{m: m, decoder: decoder}
}

// Observe adds the difference between s and the previous snapshot.
func (t *Tracker) Observe(s framing.Stats, state int) {
	t.mu.Lock()
	d := s.Sub(t.prev)
	t.prev = s
	t.mu.Unlock()

	add := func(event string, n uint64) {
		if n > 0 {
			t.m.events.WithLabelValues(t.decoder, event).Add(float64(n))
		}
	}
	add("frame", d.Frames)
	add("checksum_error", d.ChecksumErrors)
	add("overflow", d.Overflows)
	add("field_error", d.FieldErrors)
	add("unrecognized", d.Unrecognized)
	add("resync", d.Resyncs)
	add("garbage_byte", d.Garbage)
	t.m.state.WithLabelValues(t.decoder).Set(float64(state))
}
