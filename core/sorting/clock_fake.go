package sorting

import (
	"sync"
	"time"
)

// FakeClock implements Clock with manually advanced time, for
// deterministic tests of window and deadline behavior.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	deadline time.Time
	c        chan time.Time
	fired    bool
}

// NewFakeClock creates a FakeClock starting at the given time.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After returns a channel fired when Advance reaches the deadline. A
// non-positive duration fires immediately, matching an already-elapsed
// deadline.
func (f *FakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- f.now
		return ch
	}
	f.timers = append(f.timers, &fakeTimer{deadline: f.now.Add(d), c: ch})
	return ch
}

// Advance moves the clock forward and fires every due timer.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	for _, t := range f.timers {
		if !t.fired && !f.now.Before(t.deadline) {
			t.fired = true
			t.c <- f.now
		}
	}
}
