// Package metrics provides Prometheus instrumentation for the donation API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the application counters with their registry.
type Metrics struct {
	registry *prometheus.Registry

	// SerialsAllocated counts successfully assigned serial numbers.
	SerialsAllocated prometheus.Counter
	// SerialConflicts counts allocation attempts rejected on a unique key.
	SerialConflicts prometheus.Counter
	// NotesCreated counts notes written to the shared note store.
	NotesCreated prometheus.Counter
}

// New creates the application metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		SerialsAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "donation_serials_allocated_total",
			Help: "Total number of sequential serial numbers assigned to donations.",
		}),
		SerialConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "donation_serial_conflicts_total",
			Help: "Total number of serial allocations rejected due to a key conflict.",
		}),
		NotesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "donation_notes_created_total",
			Help: "Total number of notes created.",
		}),
	}

	registry.MustRegister(
		m.SerialsAllocated,
		m.SerialConflicts,
		m.NotesCreated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler returns the exposition handler for the ops listener.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
