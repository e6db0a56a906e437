package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for resolution, scanning and packet
// compilation.
type Metrics struct {
	registry *prometheus.Registry

	// Resolutions by entry point: "cli", "api", "wizard"
	Resolutions *prometheus.CounterVec

	// Size of each resolved closure
	ResolvedProcesses prometheus.Histogram

	// Field scans and how many fields each one asked for
	Scans        prometheus.Counter
	NeededFields prometheus.Histogram

	// Packets compiled by outcome: "ok", "error"
	Packets *prometheus.CounterVec

	// Template fetches by source and outcome
	TemplateFetches *prometheus.CounterVec

	// Overall compile latency
	CompileLatency prometheus.Histogram
}

// New creates a Metrics instance registered on its own registry, alongside
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_resolutions_total",
			Help: "Total dependency resolutions by entry point",
		}, []string{"origin"}),

		ResolvedProcesses: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "waypoint_resolved_processes",
			Help:    "Number of processes in each resolved closure",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 12},
		}),

		Scans: factory.NewCounter(prometheus.CounterOpts{
			Name: "waypoint_field_scans_total",
			Help: "Total field usage scans",
		}),

		NeededFields: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "waypoint_needed_fields",
			Help:    "Number of fields each scan reported as needed",
			Buckets: []float64{1, 5, 10, 15, 20, 30},
		}),

		Packets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_packets_total",
			Help: "Total packet compilations by outcome",
		}, []string{"outcome"}),

		TemplateFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_template_fetches_total",
			Help: "Template manifest fetches by source and outcome",
		}, []string{"source", "outcome"}),

		CompileLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "waypoint_compile_duration_seconds",
			Help:    "Duration of packet compilation including template fetches",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// Registry exposes the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveResolution records one resolution and the size of its closure.
func (m *Metrics) ObserveResolution(origin string, processes int) {
	if m != nil {
		m.Resolutions.WithLabelValues(origin).Inc()
		m.ResolvedProcesses.Observe(float64(processes))
	}
}

// ObserveScan records one field scan and how many fields it reported.
func (m *Metrics) ObserveScan(fields int) {
	if m != nil {
		m.Scans.Inc()
		m.NeededFields.Observe(float64(fields))
	}
}

// ObserveTemplateFetch records a template fetch outcome.
func (m *Metrics) ObserveTemplateFetch(source string, err error) {
	if m != nil {
		m.TemplateFetches.WithLabelValues(source, outcome(err)).Inc()
	}
}

// ObserveCompile records a packet compilation and its duration.
func (m *Metrics) ObserveCompile(d time.Duration, err error) {
	if m != nil {
		m.Packets.WithLabelValues(outcome(err)).Inc()
		m.CompileLatency.Observe(d.Seconds())
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
