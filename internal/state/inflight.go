// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package state

import (
	"context"
	"sync"
)

// InFlightCounter counts tasks that have been accepted but have not yet
// reached a terminal state, and lets callers wait for the count to drop to
// zero. The zero value is an idle counter. It is safe for concurrent use.
type InFlightCounter struct {
	mu sync.Mutex
	n  int

	// idle is closed whenever n is zero. It is replaced by an open channel
	// when the counter leaves zero.
	idle chan struct{}
}

// Increment adds one and returns true if the counter was previously zero.
func (c *InFlightCounter) Increment() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	if c.n == 1 {
		c.idle = nil
		return true
	}
	return false
}

// Decrement subtracts one and returns true if the counter has reached zero,
// in which case every goroutine blocked in Wait is released. Panics on
// underflow.
func (c *InFlightCounter) Decrement() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 {
		panic("there were no tasks in flight")
	}
	c.n--
	if c.n > 0 {
		return false
	}
	if c.idle != nil {
		close(c.idle)
	}
	return true
}

func (c *InFlightCounter) Load() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func (c *InFlightCounter) IsZero() bool {
	return c.Load() == 0
}

// Wait blocks until the counter is zero or ctx is done. A counter that keeps
// returning to zero and leaving it may release a waiter during any of its
// idle moments.
func (c *InFlightCounter) Wait(ctx context.Context) error {
	select {
	case <-c.idleChan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *InFlightCounter) idleChan() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idle == nil {
		c.idle = make(chan struct{})
		if c.n == 0 {
			close(c.idle)
		}
	}
	return c.idle
}
