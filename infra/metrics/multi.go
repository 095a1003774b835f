package metrics

import (
	coremetrics "github.com/PercyRoc/CangFenBao-sub014/core/metrics"
)

// MultiSink fans records out to several sinks, returning the first error.
type MultiSink struct {
	sinks []coremetrics.MetricsSink
}

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordDispatch(rec coremetrics.DispatchRecord) error {
	var first error
	for _, s := range m.sinks {
		if err := s.RecordDispatch(rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiSink) RecordConnection(rec coremetrics.ConnectionRecord) error {
	var first error
	for _, s := range m.sinks {
		if r, ok := s.(coremetrics.ConnectionRecorder); ok {
			if err := r.RecordConnection(rec); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

func (m *MultiSink) RecordCalibration(rec coremetrics.CalibrationRecord) error {
	var first error
	for _, s := range m.sinks {
		if r, ok := s.(coremetrics.CalibrationRecorder); ok {
			if err := r.RecordCalibration(rec); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
