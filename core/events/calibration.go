package events

import "time"

// CalibrationEvent is published for each measured round trip between a
// trigger signal and a sort photoelectric's own confirmation signal.
type CalibrationEvent struct {
	Trigger string // trigger photoelectric name
	Sort    string // sort photoelectric name
	Elapsed time.Duration
	Time    time.Time
}
