package sorting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PercyRoc/CangFenBao-sub014/core/events"
	"github.com/PercyRoc/CangFenBao-sub014/core/model"
	"github.com/PercyRoc/CangFenBao-sub014/infra/logger"
	"github.com/PercyRoc/CangFenBao-sub014/internal/eventbus"
)

func testConfig() Config {
	return Config{
		DebounceMS: 20,
		Trigger: PhotoelectricConfig{
			Name:             "trigger",
			Endpoint:         "127.0.0.1:9000",
			TimeRangeLowerMS: 0,
			TimeRangeUpperMS: 500,
		},
		Sorts: []PhotoelectricConfig{
			{Name: "sort1", Endpoint: "127.0.0.1:9001", Chute: 1, TimeRangeLowerMS: 0, TimeRangeUpperMS: 500, SortingDelayMS: 10, ResetDelayMS: 20},
			{Name: "sort2", Endpoint: "127.0.0.1:9002", Chute: 2, TimeRangeLowerMS: 0, TimeRangeUpperMS: 500, SortingDelayMS: 10, ResetDelayMS: 20},
		},
		ErrorChute:      99,
		MatchRetryLimit: 3,
	}
}

// startEngine runs the engine until the test ends and blocks until
// Enqueue is accepted.
func startEngine(t *testing.T, cfg Config, sender CommandSender, bus eventbus.EventBus) (*Engine, context.CancelFunc) {
	t.Helper()
	eng, err := NewEngine(cfg, SystemClock{}, sender, bus, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go eng.Run(ctx)
	deadline := time.Now().Add(time.Second)
	for !eng.running.Load() {
		if time.Now().After(deadline) {
			t.Fatalf("engine did not start")
		}
		time.Sleep(time.Millisecond)
	}
	return eng, cancel
}

func waitReport(t *testing.T, sub <-chan eventbus.Event, id string) model.PackageReport {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				t.Fatalf("bus closed while waiting for report %s", id)
			}
			if de, isDispatch := ev.(events.DispatchEvent); isDispatch && de.Report.PackageID == id {
				return de.Report
			}
		case <-deadline:
			t.Fatalf("timed out waiting for report %s", id)
		}
	}
}

func TestEngineSortsPackage(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()
	sender := newFakeSender()
	eng, cancel := startEngine(t, testConfig(), sender, bus)
	defer cancel()

	if err := eng.Enqueue("p1", 1); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	eng.HandleTrigger(model.TriggerEvent{Source: "trigger", Timestamp: time.Now()})

	waitSent(t, sender, "actuate:sort1")
	waitSent(t, sender, "reset:sort1")
	rep := waitReport(t, sub, "p1")
	if rep.Outcome != model.OutcomeSorted || rep.Chute != 1 {
		t.Fatalf("report = %+v, want sorted to chute 1", rep)
	}
}

func TestEngineRejectsUnknownChute(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sender := newFakeSender()
	eng, cancel := startEngine(t, testConfig(), sender, bus)
	defer cancel()

	if err := eng.Enqueue("p1", 42); !errors.Is(err, ErrUnknownChute) {
		t.Fatalf("enqueue unknown chute = %v, want ErrUnknownChute", err)
	}
}

func TestEngineEnqueueWhenStopped(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sender := newFakeSender()
	eng, err := NewEngine(testConfig(), SystemClock{}, sender, bus, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if err := eng.Enqueue("p1", 1); !errors.Is(err, ErrEngineStopped) {
		t.Fatalf("enqueue on stopped engine = %v, want ErrEngineStopped", err)
	}
}

func TestEngineActuatorBusyConflict(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()
	sender := newFakeSender()
	cfg := testConfig()
	// Long reset keeps sort1 busy across the second match.
	cfg.Sorts[0].ResetDelayMS = 500
	eng, cancel := startEngine(t, cfg, sender, bus)
	defer cancel()

	if err := eng.Enqueue("p1", 1); err != nil {
		t.Fatalf("enqueue p1: %v", err)
	}
	if err := eng.Enqueue("p2", 1); err != nil {
		t.Fatalf("enqueue p2: %v", err)
	}
	now := time.Now()
	eng.HandleTrigger(model.TriggerEvent{Source: "trigger", Timestamp: now})
	// Past the debounce window, inside the match window of both.
	eng.HandleTrigger(model.TriggerEvent{Source: "trigger", Timestamp: now.Add(30 * time.Millisecond)})

	rep := waitReport(t, sub, "p2")
	if rep.Outcome != model.OutcomeActuatorBusy {
		t.Fatalf("p2 outcome = %v, want actuator_busy", rep.Outcome)
	}
	if rep.Chute != 99 {
		t.Fatalf("conflicted package must be routed to the error chute, got %d", rep.Chute)
	}
}

func TestEngineExpiresUnmatchedPackage(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()
	sender := newFakeSender()
	cfg := testConfig()
	cfg.Trigger.TimeRangeUpperMS = 60
	eng, cancel := startEngine(t, cfg, sender, bus)
	defer cancel()

	if err := eng.Enqueue("p1", 1); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	rep := waitReport(t, sub, "p1")
	if rep.Outcome != model.OutcomeMatchTimeout {
		t.Fatalf("outcome = %v, want match_timeout", rep.Outcome)
	}
	if rep.Chute != 99 {
		t.Fatalf("expired package must be routed to the error chute, got %d", rep.Chute)
	}
}

func TestEngineDebounceForwardsFirstOnly(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()
	sender := newFakeSender()
	eng, cancel := startEngine(t, testConfig(), sender, bus)
	defer cancel()

	now := time.Now()
	eng.HandleTrigger(model.TriggerEvent{Source: "trigger", Timestamp: now})
	eng.HandleTrigger(model.TriggerEvent{Source: "trigger", Timestamp: now.Add(5 * time.Millisecond)})

	var signals int
	deadline := time.After(300 * time.Millisecond)
	for done := false; !done; {
		select {
		case ev := <-sub:
			if _, ok := ev.(events.SignalEvent); ok {
				signals++
			}
		case <-deadline:
			done = true
		}
	}
	if signals != 1 {
		t.Fatalf("forwarded %d signals, want 1", signals)
	}
}

func TestEngineShutdownReportsPending(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()
	sender := newFakeSender()
	eng, cancel := startEngine(t, testConfig(), sender, bus)

	if err := eng.Enqueue("p1", 1); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	cancel()
	rep := waitReport(t, sub, "p1")
	if rep.Outcome != model.OutcomeCancelled {
		t.Fatalf("outcome = %v, want cancelled", rep.Outcome)
	}
}

func TestEngineDisconnectedDoesNotLosePending(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sender := newFakeSender()
	eng, cancel := startEngine(t, testConfig(), sender, bus)
	defer cancel()

	sender.setConnected(false)
	if err := eng.Enqueue("p1", 1); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	sender.setConnected(true)
	if eng.Pending() != 1 {
		t.Fatalf("link flap must not lose unmatched packages, pending=%d", eng.Pending())
	}
}

func TestEngineCalibrationMode(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()
	sender := newFakeSender()
	rec := &fakeCalibrationSink{}
	eng, err := NewEngine(testConfig(), SystemClock{}, sender, bus, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	eng.EnableCalibration(rec)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	now := time.Now()
	eng.HandleTrigger(model.TriggerEvent{Source: "trigger", Timestamp: now})
	eng.HandleTrigger(model.TriggerEvent{Source: "sort1", Timestamp: now.Add(150 * time.Millisecond)})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sub:
			if ce, ok := ev.(events.CalibrationEvent); ok {
				if ce.Sort != "sort1" || ce.Elapsed != 150*time.Millisecond {
					t.Fatalf("calibration event = %+v", ce)
				}
				if len(sender.actuates) != 0 {
					t.Fatalf("calibration mode must not actuate")
				}
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for calibration event")
		}
	}
}

type fakeCalibrationSink struct {
	trigger time.Time
}

func (f *fakeCalibrationSink) RecordTrigger(at time.Time) { f.trigger = at }

func (f *fakeCalibrationSink) RecordConfirmation(_ string, at time.Time) (time.Duration, bool) {
	if f.trigger.IsZero() {
		return 0, false
	}
	return at.Sub(f.trigger), true
}
