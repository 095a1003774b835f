package sorting

import (
	"context"
	"sync"

	"github.com/PercyRoc/CangFenBao-sub014/core/logger"
	"github.com/PercyRoc/CangFenBao-sub014/core/model"
)

// CommandSender sends framed commands over the device link belonging to a
// named photoelectric. Implemented by the device connection manager.
type CommandSender interface {
	// IsConnected reports the link state for the named device.
	IsConnected(device string) bool
	// SendActuate fires the diverter wired to the named device.
	SendActuate(device string) error
	// SendReset returns the diverter to its rest position.
	SendReset(device string) error
}

// Dispatcher schedules actuation and reset commands at absolute deadlines.
// Schedules for different actuators run independently; the actuator gate
// serializes schedules against the same one.
type Dispatcher struct {
	clock  Clock
	sender CommandSender
	gate   *actuatorGate
	log    logger.Logger
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher sending through the given sender.
func NewDispatcher(clock Clock, sender CommandSender, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		clock:  clock,
		sender: sender,
		gate:   newActuatorGate(),
		log:    log,
	}
}

// Schedule reserves the target actuator and arranges for the actuation
// command at sch.ActuateAt and the reset command at sch.ResetAt. It
// returns ErrActuatorBusy when the actuator is still inside a previous
// reset window; the caller routes the package to the error chute.
//
// done is invoked exactly once from the timer goroutine with the terminal
// outcome. A dispatch aborted by ctx sends no reset command: the device is
// assumed powered down on shutdown and a late reset to a live one would
// flap the diverter mid-package.
func (d *Dispatcher) Schedule(ctx context.Context, pkg model.PendingPackage, target PhotoelectricConfig, sch Schedule, done func(model.DispatchOutcome)) error {
	now := d.clock.Now()
	if !d.gate.Reserve(target.Name, now, sch.ResetAt) {
		return ErrActuatorBusy
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		select {
		case <-ctx.Done():
			d.gate.Release(target.Name)
			done(model.OutcomeCancelled)
			return
		case <-d.clock.After(sch.ActuateAt.Sub(d.clock.Now())):
		}
		if !d.sender.IsConnected(target.Name) {
			// Time-critical: a stale actuation is worse than a dropped
			// one, so fail fast instead of retrying.
			d.gate.Release(target.Name)
			d.log.Errorf("dispatch %s: device %s down at fire time", pkg.ID, target.Name)
			done(model.OutcomeDeviceDisconnected)
			return
		}
		if err := d.sender.SendActuate(target.Name); err != nil {
			d.gate.Release(target.Name)
			d.log.Errorf("dispatch %s: actuate %s: %v", pkg.ID, target.Name, err)
			done(model.OutcomeDeviceDisconnected)
			return
		}
		d.log.Debugf("dispatch %s: actuated %s for chute %d", pkg.ID, target.Name, target.Chute)
		select {
		case <-ctx.Done():
			d.gate.Release(target.Name)
			done(model.OutcomeCancelled)
			return
		case <-d.clock.After(sch.ResetAt.Sub(d.clock.Now())):
		}
		if err := d.sender.SendReset(target.Name); err != nil {
			d.log.Warnf("dispatch %s: reset %s: %v", pkg.ID, target.Name, err)
		}
		d.gate.Release(target.Name)
		done(model.OutcomeSorted)
	}()
	return nil
}

// Wait blocks until every scheduled dispatch goroutine has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// ReleaseAll clears all actuator reservations without sending resets.
func (d *Dispatcher) ReleaseAll() { d.gate.ReleaseAll() }
