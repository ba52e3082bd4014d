// Package queue provides the unbounded FIFO that carries decoded commands from
// connection readers to the dispatcher.
package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrInterrupted is returned by Take when Interrupt wakes a waiting consumer.
var ErrInterrupted = errors.New("queue wait interrupted")

// ErrClosed is returned by Take once the queue is closed and drained.
var ErrClosed = errors.New("queue closed")

// Queue is an unbounded, goroutine-safe FIFO. Push never blocks; Take blocks
// until an item is available. Items are delivered in push order.
type Queue[T any] struct {
	mu        sync.Mutex
	items     []T
	ready     chan struct{} // signalled (non-blocking) when items become available
	interrupt chan struct{}
	closed    bool
	done      chan struct{}
}

// New creates an empty Queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		ready:     make(chan struct{}, 1),
		interrupt: make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Push appends v to the tail of the queue.
//
// Postcondition: Returns false if the queue is closed and v was dropped.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// Take removes and returns the head of the queue, blocking while it is empty.
//
// Postcondition: Returns ctx.Err() on cancellation, ErrInterrupted after Interrupt,
// or ErrClosed once the queue is closed and empty.
func (q *Queue[T]) Take(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				select {
				case q.ready <- struct{}{}:
				default:
				}
			}
			return v, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return zero, ErrClosed
		}

		select {
		case <-q.ready:
		case <-q.interrupt:
			return zero, ErrInterrupted
		case <-q.done:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Interrupt wakes one consumer blocked in Take, which returns ErrInterrupted.
// If no consumer is waiting, the next Take on an empty queue is interrupted.
func (q *Queue[T]) Interrupt() {
	select {
	case q.interrupt <- struct{}{}:
	default:
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting new items. Items already queued can still be taken.
// Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}
