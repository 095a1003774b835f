package sorting

import "time"

// Clock abstracts time so the engine and dispatcher can be tested with a
// fake. time.Time values from Now carry a monotonic reading; all interval
// math goes through Sub which uses it.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock implements Clock with the runtime clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time                         { return time.Now() }
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
