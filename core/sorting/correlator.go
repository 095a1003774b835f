package sorting

import (
	"time"

	"github.com/PercyRoc/CangFenBao-sub014/core/model"
)

// Correlator matches debounced trigger events against the pending queue
// using the trigger photoelectric's acceptance window. It owns the queue;
// nothing else removes packages from it.
type Correlator struct {
	queue      *pendingQueue
	lower      time.Duration
	upper      time.Duration
	retryLimit int
}

// NewCorrelator creates a Correlator for the given trigger window.
func NewCorrelator(trigger PhotoelectricConfig, retryLimit int) *Correlator {
	lower, upper := trigger.Window()
	return &Correlator{
		queue:      newPendingQueue(),
		lower:      lower,
		upper:      upper,
		retryLimit: retryLimit,
	}
}

// Enqueue records a package awaiting its trigger.
func (c *Correlator) Enqueue(p model.PendingPackage) { c.queue.Push(p) }

// Pending returns the number of packages awaiting a match.
func (c *Correlator) Pending() int { return c.queue.Len() }

// Drain removes all pending packages, oldest first.
func (c *Correlator) Drain() []model.PendingPackage { return c.queue.Drain() }

// TryMatch correlates one trigger event with the oldest pending package.
//
// elapsed = trigger time - enqueue time. Below the lower bound the event
// is noise from an already-departed package: no match, no side effect.
// Above the upper bound the head package can never match again; it is
// expired and the event retried against the next package, at most
// retryLimit times so a sustained misconfiguration cannot cascade through
// the whole queue on a single event.
func (c *Correlator) TryMatch(ev model.TriggerEvent) (matched *model.PendingPackage, expired []model.PendingPackage) {
	for attempts := 0; ; attempts++ {
		head, ok := c.queue.Peek()
		if !ok {
			return nil, expired
		}
		elapsed := ev.Timestamp.Sub(head.EnqueueTime)
		if elapsed < c.lower {
			return nil, expired
		}
		if elapsed <= c.upper {
			p, _ := c.queue.Pop()
			p.Matched = true
			return &p, expired
		}
		if attempts >= c.retryLimit {
			return nil, expired
		}
		p, _ := c.queue.Pop()
		expired = append(expired, p)
	}
}

// Expire evicts every package whose window has already closed at now.
// The engine sweeps periodically so unmatched packages are reported even
// when no further trigger arrives.
func (c *Correlator) Expire(now time.Time) []model.PendingPackage {
	var expired []model.PendingPackage
	for {
		head, ok := c.queue.Peek()
		if !ok {
			return expired
		}
		if now.Sub(head.EnqueueTime) <= c.upper {
			return expired
		}
		p, _ := c.queue.Pop()
		expired = append(expired, p)
	}
}
