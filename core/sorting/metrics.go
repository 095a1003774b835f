package sorting

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	triggersReceived  *prometheus.CounterVec
	triggersDebounced *prometheus.CounterVec
	packagesEnqueued  prometheus.Counter
	dispatchOutcomes  *prometheus.CounterVec
	sortingLatency    prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter, *prometheus.CounterVec, prometheus.Histogram) {
	recv := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sorting_triggers_received_total",
			Help: "Trigger events received from photoelectric sensors",
		},
		[]string{"source"},
	)
	deb := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sorting_triggers_debounced_total",
			Help: "Trigger events suppressed by the debounce filter",
		},
		[]string{"source"},
	)
	enq := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sorting_packages_enqueued_total",
			Help: "Packages enqueued by the identification collaborator",
		},
	)
	out := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sorting_dispatch_outcomes_total",
			Help: "Terminal package outcomes",
		},
		[]string{"outcome"},
	)
	lat := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sorting_package_latency_seconds",
			Help:    "Time from package enqueue to terminal outcome",
			Buckets: prometheus.DefBuckets,
		},
	)
	return recv, deb, enq, out, lat
}

func init() {
	triggersReceived, triggersDebounced, packagesEnqueued, dispatchOutcomes, sortingLatency = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers sorting metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(triggersReceived, triggersDebounced, packagesEnqueued, dispatchOutcomes, sortingLatency)
}

// ResetMetrics reinitializes metric collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	triggersReceived, triggersDebounced, packagesEnqueued, dispatchOutcomes, sortingLatency = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
