package sorting

import (
	"sync"
	"time"
)

// actuatorGate serializes actuations per actuator: at most one in-flight
// command until its reset deadline passes or the dispatcher releases it.
type actuatorGate struct {
	mu        sync.Mutex
	busyUntil map[string]time.Time
}

func newActuatorGate() *actuatorGate {
	return &actuatorGate{busyUntil: make(map[string]time.Time)}
}

// Reserve marks the actuator busy until the given deadline. It fails when
// a previous reservation is still in effect at now.
func (g *actuatorGate) Reserve(name string, now, until time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if busy, ok := g.busyUntil[name]; ok && now.Before(busy) {
		return false
	}
	g.busyUntil[name] = until
	return true
}

// Release frees the actuator before its deadline, after a completed reset
// or an aborted dispatch.
func (g *actuatorGate) Release(name string) {
	g.mu.Lock()
	delete(g.busyUntil, name)
	g.mu.Unlock()
}

// ReleaseAll clears every reservation without touching the devices. Used
// on shutdown when the hardware is assumed powered down.
func (g *actuatorGate) ReleaseAll() {
	g.mu.Lock()
	g.busyUntil = make(map[string]time.Time)
	g.mu.Unlock()
}
