package sorting

import (
	"sync"

	"github.com/PercyRoc/CangFenBao-sub014/core/model"
)

// pendingQueue is the FIFO record of packages awaiting a trigger match.
// The belt does not reorder physical packages, so matching always starts
// at the head. Producers (the identification collaborator) and the single
// consumer (the engine run loop) synchronize on the mutex.
type pendingQueue struct {
	mu    sync.Mutex
	items []model.PendingPackage
}

func newPendingQueue() *pendingQueue { return &pendingQueue{} }

// Push appends a package in enqueue order.
func (q *pendingQueue) Push(p model.PendingPackage) {
	q.mu.Lock()
	q.items = append(q.items, p)
	q.mu.Unlock()
}

// Peek returns the oldest package without removing it.
func (q *pendingQueue) Peek() (model.PendingPackage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return model.PendingPackage{}, false
	}
	return q.items[0], true
}

// Pop removes and returns the oldest package.
func (q *pendingQueue) Pop() (model.PendingPackage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return model.PendingPackage{}, false
	}
	p := q.items[0]
	q.items = q.items[1:]
	return p, true
}

// Len returns the number of pending packages.
func (q *pendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain removes and returns all pending packages, oldest first.
func (q *pendingQueue) Drain() []model.PendingPackage {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}
