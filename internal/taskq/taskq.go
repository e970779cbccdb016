// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package taskq provides the unbounded FIFO that feeds each pool worker.
package taskq

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
)

// Queue is a thread-safe, unbounded FIFO. Push never blocks; PopWait blocks
// until an item is available or its context is done. All mutations are
// serialized by a single mutex.
//
// Each queue normally has a single consumer, its worker. Wakeups are a single
// token rather than a list of waiters: a consumer that takes an item and sees
// more behind it passes the token on, so additional consumers still drain the
// queue.
//
// The zero value is ready to use. A Queue must not be copied after first use.
type Queue[T any] struct {
	mu    sync.Mutex
	items deque.Deque[T]

	// ready holds at most one token, present whenever a consumer may find an
	// item it has not yet been woken for.
	ready chan struct{}
}

// Push appends an item to the back of the queue and wakes a goroutine blocked
// in PopWait, if any.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items.PushBack(item)
	ready := q.readyLocked()
	q.mu.Unlock()
	wake(ready)
}

// Pop removes and returns the front item without blocking. Returns the zero
// value and false if the queue is empty.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// PopWait removes and returns the front item, blocking until one is available.
// Returns ctx.Err() if the context is done first, in which case the queue is
// left unchanged.
func (q *Queue[T]) PopWait(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		item, ok := q.popLocked()
		more := q.items.Len() > 0
		// Fetched under the lock so that a Push racing with this call leaves
		// its token where the select below will find it.
		ready := q.readyLocked()
		q.mu.Unlock()

		if ok {
			if more {
				wake(ready)
			}
			return item, nil
		}

		select {
		case <-ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Drain removes and returns every queued item in FIFO order.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := make([]T, 0, q.items.Len())
	for q.items.Len() > 0 {
		items = append(items, q.items.PopFront())
	}
	return items
}

// Len returns the number of queued items. The result is a snapshot and may be
// stale by the time the caller acts on it.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Empty reports whether the queue held no items at the time of the call.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

func (q *Queue[T]) popLocked() (T, bool) {
	if q.items.Len() == 0 {
		var zero T
		return zero, false
	}
	return q.items.PopFront(), true
}

func (q *Queue[T]) readyLocked() chan struct{} {
	if q.ready == nil {
		q.ready = make(chan struct{}, 1)
	}
	return q.ready
}

func wake(ready chan struct{}) {
	select {
	case ready <- struct{}{}:
	default:
		// A token is already pending.
	}
}
