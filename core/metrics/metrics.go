package metrics

import (
	"time"

	"github.com/PercyRoc/CangFenBao-sub014/core/model"
)

// DispatchRecord represents a terminal package outcome to be recorded.
type DispatchRecord struct {
	PackageID string
	Outcome   model.DispatchOutcome
	Chute     int
	Latency   time.Duration
	Time      time.Time
}

// MetricsSink records dispatch outcomes for observability purposes.
type MetricsSink interface {
	RecordDispatch(rec DispatchRecord) error
}

// ConnectionRecord captures a device link connectivity transition.
type ConnectionRecord struct {
	Device    string
	Connected bool
	Time      time.Time
}

// ConnectionRecorder records device connectivity transitions.
type ConnectionRecorder interface {
	RecordConnection(rec ConnectionRecord) error
}

// CalibrationRecord captures one measured trigger-to-confirmation delay.
type CalibrationRecord struct {
	Trigger string
	Sort    string
	Elapsed time.Duration
	Time    time.Time
}

// CalibrationRecorder records calibration samples.
type CalibrationRecorder interface {
	RecordCalibration(rec CalibrationRecord) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordDispatch(DispatchRecord) error       { return nil }
func (NopSink) RecordConnection(ConnectionRecord) error   { return nil }
func (NopSink) RecordCalibration(CalibrationRecord) error { return nil }
