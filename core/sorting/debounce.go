package sorting

import (
	"time"

	"github.com/PercyRoc/CangFenBao-sub014/core/model"
)

// Debouncer suppresses repeated triggers from the same source within the
// configured interval. Pure state machine, no I/O; callers serialize
// access per the engine's single-consumer discipline.
type Debouncer struct {
	interval time.Duration
	last     map[string]time.Time
}

// NewDebouncer creates a Debouncer with the given suppression interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval, last: make(map[string]time.Time)}
}

// Accept returns true and records the event if no prior accepted event
// from the same source falls within the debounce interval. The first
// event from a source is always accepted.
func (d *Debouncer) Accept(ev model.TriggerEvent) bool {
	if prev, ok := d.last[ev.Source]; ok {
		if ev.Timestamp.Sub(prev) < d.interval {
			return false
		}
	}
	d.last[ev.Source] = ev.Timestamp
	return true
}
