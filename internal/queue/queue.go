// Package queue provides the unbounded FIFO that carries reports from
// producers to the organizer.
package queue

import (
	"context"
	"sync"
	"time"
)

// Queue is a concurrency-safe, unbounded, generic circular FIFO.
// Enqueue never blocks; Dequeue waits for an item up to a timeout.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	size  int
	enter int // next position for entering
	leave int // next item that is leaving
	ready chan struct{}
}

// New creates an empty Queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
		ready: make(chan struct{}, 1),
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.size
}

// Enqueue appends value to the tail of the queue.
func (q *Queue[T]) Enqueue(value T) {
	q.mu.Lock()
	if len(q.items) == q.size {
		q.grow()
	}
	q.items[q.enter] = value
	q.enter = q.move(q.enter)
	q.size++
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// TryDequeue removes the head of the queue without waiting.
func (q *Queue[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.size == 0 {
		return zero, false
	}

	item := q.items[q.leave]
	q.items[q.leave] = zero
	q.leave = q.move(q.leave)
	q.size--
	return item, true
}

// Dequeue removes the head of the queue, waiting up to timeout for one to
// arrive. It returns false on timeout or when ctx is done.
func (q *Queue[T]) Dequeue(ctx context.Context, timeout time.Duration) (T, bool) {
	if item, ok := q.TryDequeue(); ok {
		return item, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-q.ready:
			if item, ok := q.TryDequeue(); ok {
				q.signalIfPending()
				return item, true
			}
		case <-timer.C:
			return q.TryDequeue()
		case <-ctx.Done():
			var zero T
			return zero, false
		}
	}
}

// signalIfPending re-arms the ready signal when items remain so another
// waiting consumer is not left asleep.
func (q *Queue[T]) signalIfPending() {
	if q.Len() == 0 {
		return
	}
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// grow doubles the backing slice, keeping items in FIFO order.
func (q *Queue[T]) grow() {
	oldSize := len(q.items)
	newSize := oldSize*2 + 1

	// [4,5,1,2,3] => [4,5,(1),(2),(3),_,_,_,1,2,3]
	oldLeave := q.leave
	newLeave := newSize - (oldSize - oldLeave)
	if oldSize == 0 {
		newLeave = 0
	}

	q.items = append(q.items, make([]T, newSize-oldSize)...)
	copy(q.items[newLeave:], q.items[oldLeave:oldSize])
	clear(q.items[oldLeave:oldSize])
	q.leave = newLeave
}

// move increments the index circularly.
func (q *Queue[T]) move(index int) int {
	return (index + 1) % len(q.items)
}
