package model

import "time"

// TriggerEvent is a decoded beam-break signal from a photoelectric sensor.
// Timestamp is taken from the local monotonic clock at decode time, never
// from wall-clock fields on the wire: interval math must survive NTP steps
// and timezone changes.
type TriggerEvent struct {
	Source    string    // photoelectric name
	Timestamp time.Time // monotonic reading attached by time.Now
}

// PendingPackage is a package announced by the identification subsystem
// that still awaits its physical trigger. Owned exclusively by the pending
// queue until it reaches a terminal state.
type PendingPackage struct {
	ID          string
	Chute       int       // assigned destination chute
	EnqueueTime time.Time // monotonic
	Matched     bool
}

// DispatchOutcome is the terminal state of a package's journey through the
// engine.
type DispatchOutcome int

const (
	OutcomeSorted DispatchOutcome = iota
	OutcomeMatchTimeout
	OutcomeActuatorBusy
	OutcomeDeviceDisconnected
	OutcomeCancelled
)

// String returns a human-readable representation of the outcome.
func (o DispatchOutcome) String() string {
	switch o {
	case OutcomeSorted:
		return "sorted"
	case OutcomeMatchTimeout:
		return "match_timeout"
	case OutcomeActuatorBusy:
		return "actuator_busy"
	case OutcomeDeviceDisconnected:
		return "device_disconnected"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Sorted reports whether the package reached its assigned chute.
func (o DispatchOutcome) Sorted() bool { return o == OutcomeSorted }

// PackageReport is delivered to the collaborator for every package that
// leaves the engine, successful or not. Chute is the chute the package
// should physically end up in: the assigned chute on success, the error
// chute otherwise.
type PackageReport struct {
	PackageID string
	Outcome   DispatchOutcome
	Chute     int
	Latency   time.Duration // enqueue to terminal state
	Time      time.Time
}
