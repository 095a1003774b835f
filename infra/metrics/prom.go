package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/PercyRoc/CangFenBao-sub014/core/metrics"
)

// PromSink records sorting events in Prometheus metrics.
type PromSink struct {
	outcomes    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	connected   *prometheus.GaugeVec
	calibration *prometheus.HistogramVec
}

// NewPromSink registers sorting metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "package_dispatch_total",
		Help: "Terminal package outcomes by chute",
	}, []string{"outcome", "chute"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "package_dispatch_latency_seconds",
		Help:    "Time between package enqueue and terminal outcome",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	connected := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "device_link_connected",
		Help: "Connectivity state per device link (1 connected, 0 down)",
	}, []string{"device"})
	calibration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calibration_delay_seconds",
		Help:    "Measured trigger-to-confirmation delay per sort photoelectric",
		Buckets: []float64{.05, .1, .2, .3, .5, .75, 1, 1.5, 2, 3, 5},
	}, []string{"sort"})

	for _, c := range []prometheus.Collector{outcomes, latency, connected, calibration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return &PromSink{outcomes: outcomes, latency: latency, connected: connected, calibration: calibration}, nil
}

// RecordDispatch increments the outcome counter and latency histogram.
func (s *PromSink) RecordDispatch(rec coremetrics.DispatchRecord) error {
	s.outcomes.WithLabelValues(rec.Outcome.String(), strconv.Itoa(rec.Chute)).Inc()
	s.latency.WithLabelValues(rec.Outcome.String()).Observe(rec.Latency.Seconds())
	return nil
}

// RecordConnection updates the per-device connectivity gauge.
func (s *PromSink) RecordConnection(rec coremetrics.ConnectionRecord) error {
	v := 0.0
	if rec.Connected {
		v = 1
	}
	s.connected.WithLabelValues(rec.Device).Set(v)
	return nil
}

// RecordCalibration observes a measured delay sample.
func (s *PromSink) RecordCalibration(rec coremetrics.CalibrationRecord) error {
	s.calibration.WithLabelValues(rec.Sort).Observe(rec.Elapsed.Seconds())
	return nil
}
