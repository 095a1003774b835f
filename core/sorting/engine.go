package sorting

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/PercyRoc/CangFenBao-sub014/core/events"
	"github.com/PercyRoc/CangFenBao-sub014/core/logger"
	"github.com/PercyRoc/CangFenBao-sub014/core/model"
	"github.com/PercyRoc/CangFenBao-sub014/internal/eventbus"
)

// CalibrationSink records trigger and confirmation timestamps while the
// engine runs in calibration mode.
type CalibrationSink interface {
	// RecordTrigger marks the start of a measurement round.
	RecordTrigger(at time.Time)
	// RecordConfirmation closes the round for one sort photoelectric and
	// returns the measured elapsed time. ok is false when no trigger is
	// outstanding for that sensor.
	RecordConfirmation(source string, at time.Time) (elapsed time.Duration, ok bool)
}

// Engine correlates identification events with trigger signals and drives
// the actuation dispatcher. One engine instance per configuration
// snapshot; configuration changes mean building a new engine.
type Engine struct {
	cfg        Config
	clock      Clock
	debounce   *Debouncer
	correlator *Correlator
	dispatcher *Dispatcher
	bus        eventbus.EventBus
	log        logger.Logger
	calib      CalibrationSink

	triggers chan model.TriggerEvent
	running  atomic.Bool
}

// NewEngine creates an Engine from an immutable configuration snapshot.
func NewEngine(cfg Config, clock Clock, sender CommandSender, bus eventbus.EventBus, log logger.Logger) (*Engine, error) {
	if clock == nil || sender == nil || bus == nil || log == nil {
		return nil, fmt.Errorf("sorting: nil parameter provided to NewEngine")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sorting: %w", err)
	}
	return &Engine{
		cfg:        cfg,
		clock:      clock,
		debounce:   NewDebouncer(cfg.Debounce()),
		correlator: NewCorrelator(cfg.Trigger, cfg.MatchRetryLimit),
		dispatcher: NewDispatcher(clock, sender, log),
		bus:        bus,
		log:        log,
		triggers:   make(chan model.TriggerEvent, 256),
	}, nil
}

// EnableCalibration switches the engine into calibration mode. Real
// actuation commands are suppressed; trigger and confirmation signals are
// fed to the sink instead. Must be called before Run.
func (e *Engine) EnableCalibration(sink CalibrationSink) {
	e.calib = sink
}

// Enqueue records a package announced by the identification collaborator.
// This is the only input path that inserts packages.
func (e *Engine) Enqueue(id string, chute int) error {
	if !e.running.Load() {
		return ErrEngineStopped
	}
	if _, ok := e.cfg.SortByChute(chute); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownChute, chute)
	}
	e.correlator.Enqueue(model.PendingPackage{
		ID:          id,
		Chute:       chute,
		EnqueueTime: e.clock.Now(),
	})
	packagesEnqueued.Inc()
	e.log.Debugf("enqueued package %s for chute %d", id, chute)
	return nil
}

// Pending returns the number of packages awaiting a trigger match.
func (e *Engine) Pending() int { return e.correlator.Pending() }

// HandleTrigger hands a decoded trigger event to the run loop. It never
// blocks the calling device read loop; under sustained overload events
// are dropped and logged.
func (e *Engine) HandleTrigger(ev model.TriggerEvent) {
	select {
	case e.triggers <- ev:
	default:
		e.log.Errorf("trigger channel full, dropping event from %s", ev.Source)
	}
}

// Run processes trigger events until the context is canceled. Trigger
// events from all sensors funnel through this single consumer, which
// preserves the queue's FIFO invariants without further locking.
func (e *Engine) Run(ctx context.Context) {
	e.running.Store(true)
	defer e.running.Store(false)

	sweep := e.sweepInterval()
	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return
		case ev := <-e.triggers:
			e.processTrigger(ctx, ev)
		case <-e.clock.After(sweep):
			now := e.clock.Now()
			for _, p := range e.correlator.Expire(now) {
				e.report(p, model.OutcomeMatchTimeout)
			}
		}
	}
}

// sweepInterval derives the queue eviction period from the trigger window
// so an expired package is reported well before the next one piles up.
func (e *Engine) sweepInterval() time.Duration {
	_, upper := e.cfg.Trigger.Window()
	sweep := upper / 4
	if sweep < 10*time.Millisecond {
		sweep = 10 * time.Millisecond
	}
	if sweep > 250*time.Millisecond {
		sweep = 250 * time.Millisecond
	}
	return sweep
}

func (e *Engine) processTrigger(ctx context.Context, ev model.TriggerEvent) {
	triggersReceived.WithLabelValues(ev.Source).Inc()
	if !e.debounce.Accept(ev) {
		triggersDebounced.WithLabelValues(ev.Source).Inc()
		e.log.Debugf("debounced trigger from %s", ev.Source)
		return
	}
	e.bus.Publish(events.SignalEvent{Trigger: ev})

	if e.calib != nil {
		e.processCalibration(ev)
		return
	}
	if ev.Source != e.cfg.Trigger.Name {
		// Sort photoelectric confirmations carry no information in
		// dispatch mode.
		e.log.Debugf("ignoring signal from sort photoelectric %s", ev.Source)
		return
	}

	matched, expired := e.correlator.TryMatch(ev)
	for _, p := range expired {
		e.report(p, model.OutcomeMatchTimeout)
	}
	if matched == nil {
		return
	}
	target, ok := e.cfg.SortByChute(matched.Chute)
	if !ok {
		// Guarded at Enqueue; reachable only through a config mismatch.
		e.report(*matched, model.OutcomeCancelled)
		return
	}
	sch := ComputeSchedule(ev.Timestamp, target)
	pkg := *matched
	err := e.dispatcher.Schedule(ctx, pkg, target, sch, func(out model.DispatchOutcome) {
		e.report(pkg, out)
	})
	if err != nil {
		e.log.Warnf("package %s rejected: actuator %s busy", pkg.ID, target.Name)
		e.report(pkg, model.OutcomeActuatorBusy)
	}
}

func (e *Engine) processCalibration(ev model.TriggerEvent) {
	if ev.Source == e.cfg.Trigger.Name {
		e.calib.RecordTrigger(ev.Timestamp)
		return
	}
	elapsed, ok := e.calib.RecordConfirmation(ev.Source, ev.Timestamp)
	if !ok {
		e.log.Debugf("confirmation from %s without outstanding trigger", ev.Source)
		return
	}
	e.bus.Publish(events.CalibrationEvent{
		Trigger: e.cfg.Trigger.Name,
		Sort:    ev.Source,
		Elapsed: elapsed,
		Time:    e.clock.Now(),
	})
}

// report publishes the terminal state of a package. Failed packages carry
// the error chute so the collaborator can physically redirect them.
func (e *Engine) report(p model.PendingPackage, out model.DispatchOutcome) {
	chute := p.Chute
	if !out.Sorted() {
		chute = e.cfg.ErrorChute
	}
	now := e.clock.Now()
	latency := now.Sub(p.EnqueueTime)
	dispatchOutcomes.WithLabelValues(out.String()).Inc()
	sortingLatency.Observe(latency.Seconds())
	e.bus.Publish(events.DispatchEvent{Report: model.PackageReport{
		PackageID: p.ID,
		Outcome:   out,
		Chute:     chute,
		Latency:   latency,
		Time:      now,
	}})
	if out.Sorted() {
		e.log.Infof("package %s sorted to chute %d", p.ID, p.Chute)
	} else {
		e.log.Warnf("package %s -> error chute %d (%s)", p.ID, chute, out)
	}
}

// shutdown cancels the remaining state on service stop: scheduled
// actuations were already aborted through the context, busy actuators are
// flushed to free without reset commands, and every still-pending package
// is reported rather than silently dropped.
func (e *Engine) shutdown() {
	e.dispatcher.Wait()
	e.dispatcher.ReleaseAll()
	for _, p := range e.correlator.Drain() {
		e.report(p, model.OutcomeCancelled)
	}
}
