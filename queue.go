package glwindow

import "sync"

// syncQueue is an unbounded FIFO safe for one producer thread and any number
// of consumers. Pushing never blocks, so a window procedure can enqueue from
// inside the native message loop.
type syncQueue[T any] struct {
	mu     sync.Mutex
	cond   sync.Cond
	items  []T
	closed bool
}

func newSyncQueue[T any]() *syncQueue[T] {
	q := &syncQueue[T]{}
	q.cond.L = &q.mu
	return q
}

// push appends v. It reports false once the queue is closed.
func (q *syncQueue[T]) push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, v)
	q.cond.Signal()
	return true
}

// tryPop removes the oldest item without blocking.
func (q *syncQueue[T]) tryPop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shift()
}

// pop blocks until an item is available or the queue is closed and empty.
func (q *syncQueue[T]) pop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	return q.shift()
}

func (q *syncQueue[T]) shift() (v T, ok bool) {
	if len(q.items) == 0 {
		return v, false
	}
	v = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return v, true
}

// isClosed reports whether close was called.
func (q *syncQueue[T]) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// close wakes every blocked pop. Items already queued can still be read.
func (q *syncQueue[T]) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
