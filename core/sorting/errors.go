package sorting

import "errors"

var (
	// ErrMatchTimeout reports a package evicted unmatched from the queue.
	ErrMatchTimeout = errors.New("sorting: package match timeout")
	// ErrActuatorBusy reports a second match against an actuator still
	// inside its reset window.
	ErrActuatorBusy = errors.New("sorting: actuator busy")
	// ErrDeviceDisconnected reports a dispatch aborted because the device
	// link was down at fire time.
	ErrDeviceDisconnected = errors.New("sorting: device disconnected")
	// ErrEngineStopped reports an operation against a stopped engine.
	ErrEngineStopped = errors.New("sorting: engine stopped")
	// ErrUnknownChute reports an enqueue for a chute no sort
	// photoelectric serves.
	ErrUnknownChute = errors.New("sorting: unknown chute")
)
