package calibration

import (
	"testing"
	"time"
)

func TestRecorderPairsTriggerWithConfirmation(t *testing.T) {
	r := NewRecorder()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	r.RecordTrigger(base)
	elapsed, ok := r.RecordConfirmation("sort1", base.Add(120*time.Millisecond))
	if !ok || elapsed != 120*time.Millisecond {
		t.Fatalf("confirmation = %v, %v; want 120ms, true", elapsed, ok)
	}
}

func TestRecorderRejectsUnpairedConfirmation(t *testing.T) {
	r := NewRecorder()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, ok := r.RecordConfirmation("sort1", base); ok {
		t.Fatalf("confirmation without trigger must be rejected")
	}

	r.RecordTrigger(base)
	if _, ok := r.RecordConfirmation("sort1", base.Add(-time.Millisecond)); ok {
		t.Fatalf("confirmation predating the trigger must be rejected")
	}
}

func TestRecorderOneConfirmationPerRound(t *testing.T) {
	r := NewRecorder()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	r.RecordTrigger(base)
	if _, ok := r.RecordConfirmation("sort1", base.Add(100*time.Millisecond)); !ok {
		t.Fatalf("first confirmation must be accepted")
	}
	if _, ok := r.RecordConfirmation("sort1", base.Add(200*time.Millisecond)); ok {
		t.Fatalf("second confirmation in the same round must be rejected")
	}
	// A different sensor still pairs within the same round.
	if _, ok := r.RecordConfirmation("sort2", base.Add(150*time.Millisecond)); !ok {
		t.Fatalf("other sensors must pair independently")
	}
	// The next round resets the per-sensor state.
	r.RecordTrigger(base.Add(time.Second))
	if _, ok := r.RecordConfirmation("sort1", base.Add(time.Second+100*time.Millisecond)); !ok {
		t.Fatalf("new round must accept the sensor again")
	}
}

func TestRecorderStats(t *testing.T) {
	r := NewRecorder()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, d := range []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond} {
		at := base.Add(time.Duration(i) * time.Second)
		r.RecordTrigger(at)
		if _, ok := r.RecordConfirmation("sort1", at.Add(d)); !ok {
			t.Fatalf("sample %d rejected", i)
		}
	}

	stats := r.Stats()
	s, ok := stats["sort1"]
	if !ok {
		t.Fatalf("no stats for sort1: %v", stats)
	}
	if s.Count != 3 {
		t.Fatalf("count = %d, want 3", s.Count)
	}
	if s.Min != 100*time.Millisecond || s.Max != 300*time.Millisecond {
		t.Fatalf("min/max = %v/%v, want 100ms/300ms", s.Min, s.Max)
	}
	if s.Mean != 200*time.Millisecond {
		t.Fatalf("mean = %v, want 200ms", s.Mean)
	}
	if s.StdDev == 0 {
		t.Fatalf("stddev must be non-zero for spread samples")
	}
	if s.P95 < s.Mean || s.P95 > s.Max {
		t.Fatalf("p95 = %v out of range [%v, %v]", s.P95, s.Mean, s.Max)
	}
}

func TestRecorderStatsEmpty(t *testing.T) {
	r := NewRecorder()
	if stats := r.Stats(); len(stats) != 0 {
		t.Fatalf("stats = %v, want empty", stats)
	}
}
