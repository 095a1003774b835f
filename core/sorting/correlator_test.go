package sorting

import (
	"testing"
	"time"

	"github.com/PercyRoc/CangFenBao-sub014/core/model"
)

func testTrigger() PhotoelectricConfig {
	return PhotoelectricConfig{
		Name:             "trigger",
		Endpoint:         "127.0.0.1:9000",
		TimeRangeLowerMS: 100,
		TimeRangeUpperMS: 500,
	}
}

func TestCorrelatorMatchInsideWindow(t *testing.T) {
	base := time.Now()
	c := NewCorrelator(testTrigger(), 3)
	c.Enqueue(model.PendingPackage{ID: "p1", Chute: 1, EnqueueTime: base})

	matched, expired := c.TryMatch(model.TriggerEvent{Source: "trigger", Timestamp: base.Add(200 * time.Millisecond)})
	if matched == nil || matched.ID != "p1" {
		t.Fatalf("expected p1 matched, got %+v", matched)
	}
	if !matched.Matched {
		t.Fatalf("matched package must carry the matched flag")
	}
	if len(expired) != 0 {
		t.Fatalf("expected no expiries, got %d", len(expired))
	}
	if c.Pending() != 0 {
		t.Fatalf("matched package must leave the queue")
	}
}

func TestCorrelatorIgnoresEarlyTrigger(t *testing.T) {
	base := time.Now()
	c := NewCorrelator(testTrigger(), 3)
	c.Enqueue(model.PendingPackage{ID: "p1", Chute: 1, EnqueueTime: base})

	// Noise from an already-departed package: below the lower bound.
	matched, expired := c.TryMatch(model.TriggerEvent{Source: "trigger", Timestamp: base.Add(50 * time.Millisecond)})
	if matched != nil || len(expired) != 0 {
		t.Fatalf("early trigger must have no side effect")
	}
	if c.Pending() != 1 {
		t.Fatalf("package must remain pending")
	}
}

func TestCorrelatorFIFOOrder(t *testing.T) {
	base := time.Now()
	c := NewCorrelator(testTrigger(), 3)
	c.Enqueue(model.PendingPackage{ID: "p1", Chute: 1, EnqueueTime: base})
	c.Enqueue(model.PendingPackage{ID: "p2", Chute: 2, EnqueueTime: base.Add(50 * time.Millisecond)})

	m1, _ := c.TryMatch(model.TriggerEvent{Source: "trigger", Timestamp: base.Add(150 * time.Millisecond)})
	m2, _ := c.TryMatch(model.TriggerEvent{Source: "trigger", Timestamp: base.Add(250 * time.Millisecond)})
	if m1 == nil || m1.ID != "p1" {
		t.Fatalf("first match must be the oldest package, got %+v", m1)
	}
	if m2 == nil || m2.ID != "p2" {
		t.Fatalf("second match must follow enqueue order, got %+v", m2)
	}
}

func TestCorrelatorExpiresStaleAndRetries(t *testing.T) {
	base := time.Now()
	c := NewCorrelator(testTrigger(), 3)
	c.Enqueue(model.PendingPackage{ID: "stale", Chute: 1, EnqueueTime: base})
	c.Enqueue(model.PendingPackage{ID: "fresh", Chute: 2, EnqueueTime: base.Add(500 * time.Millisecond)})

	// 700ms after "stale" (past its upper bound) but 200ms after "fresh".
	matched, expired := c.TryMatch(model.TriggerEvent{Source: "trigger", Timestamp: base.Add(700 * time.Millisecond)})
	if len(expired) != 1 || expired[0].ID != "stale" {
		t.Fatalf("expected stale expired exactly once, got %+v", expired)
	}
	if matched == nil || matched.ID != "fresh" {
		t.Fatalf("trigger must be retried against the next package, got %+v", matched)
	}
}

func TestCorrelatorRetryBound(t *testing.T) {
	base := time.Now()
	c := NewCorrelator(testTrigger(), 2)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		c.Enqueue(model.PendingPackage{ID: id, Chute: 1, EnqueueTime: base})
	}

	matched, expired := c.TryMatch(model.TriggerEvent{Source: "trigger", Timestamp: base.Add(time.Hour)})
	if matched != nil {
		t.Fatalf("no package can match, got %+v", matched)
	}
	if len(expired) != 2 {
		t.Fatalf("cascade must stop at the retry limit, expired %d", len(expired))
	}
	if c.Pending() != 3 {
		t.Fatalf("remaining packages stay queued for the sweep, got %d", c.Pending())
	}
}

func TestCorrelatorExpireSweep(t *testing.T) {
	base := time.Now()
	c := NewCorrelator(testTrigger(), 3)
	c.Enqueue(model.PendingPackage{ID: "old1", Chute: 1, EnqueueTime: base})
	c.Enqueue(model.PendingPackage{ID: "old2", Chute: 2, EnqueueTime: base.Add(10 * time.Millisecond)})
	c.Enqueue(model.PendingPackage{ID: "young", Chute: 3, EnqueueTime: base.Add(400 * time.Millisecond)})

	expired := c.Expire(base.Add(600 * time.Millisecond))
	if len(expired) != 2 || expired[0].ID != "old1" || expired[1].ID != "old2" {
		t.Fatalf("expected old1, old2 expired in order, got %+v", expired)
	}
	if c.Pending() != 1 {
		t.Fatalf("young package must survive the sweep")
	}
}

func TestCorrelatorEmptyQueue(t *testing.T) {
	c := NewCorrelator(testTrigger(), 3)
	matched, expired := c.TryMatch(model.TriggerEvent{Source: "trigger", Timestamp: time.Now()})
	if matched != nil || len(expired) != 0 {
		t.Fatalf("empty queue must be a no-op")
	}
}
