// Package calibration measures the real trigger-to-confirmation delay of
// each diverter so operators can retune sorting and reset delays.
package calibration

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the measured delay distribution for one sensor pair.
type Stats struct {
	Count  int
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration
	P95    time.Duration
}

// Recorder pairs trigger signals with each sort photoelectric's own
// confirmation signal and accumulates the elapsed times. It implements
// sorting.CalibrationSink.
type Recorder struct {
	mu       sync.Mutex
	trigger  time.Time
	consumed map[string]bool
	samples  map[string][]float64 // seconds
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		consumed: make(map[string]bool),
		samples:  make(map[string][]float64),
	}
}

// RecordTrigger starts a new measurement round. Confirmations pair with
// the most recent trigger, once per sensor.
func (r *Recorder) RecordTrigger(at time.Time) {
	r.mu.Lock()
	r.trigger = at
	r.consumed = make(map[string]bool)
	r.mu.Unlock()
}

// RecordConfirmation records the elapsed time between the outstanding
// trigger and this sensor's confirmation. ok is false when no trigger is
// outstanding, the sensor already confirmed this round, or the
// confirmation predates the trigger.
func (r *Recorder) RecordConfirmation(source string, at time.Time) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.trigger.IsZero() || r.consumed[source] {
		return 0, false
	}
	elapsed := at.Sub(r.trigger)
	if elapsed < 0 {
		return 0, false
	}
	r.consumed[source] = true
	r.samples[source] = append(r.samples[source], elapsed.Seconds())
	return elapsed, true
}

// Stats returns the delay distribution per sort photoelectric.
func (r *Recorder) Stats() map[string]Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Stats, len(r.samples))
	for name, xs := range r.samples {
		sorted := append([]float64(nil), xs...)
		sort.Float64s(sorted)
		s := Stats{
			Count:  len(sorted),
			Min:    secs(sorted[0]),
			Max:    secs(sorted[len(sorted)-1]),
			Mean:   secs(stat.Mean(sorted, nil)),
			P95:    secs(stat.Quantile(0.95, stat.Empirical, sorted, nil)),
		}
		if len(sorted) > 1 {
			s.StdDev = secs(stat.StdDev(sorted, nil))
		}
		out[name] = s
	}
	return out
}

func secs(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
