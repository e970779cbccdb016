// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package timerp recycles timers for bounded waits.
package timerp

import (
	"sync"
	"time"
)

// Since Go 1.23, Stop and Reset guarantee that no stale value is received
// from a timer's channel afterward, so a recycled timer needs no draining.

var pool = sync.Pool{
	New: func() any {
		t := time.NewTimer(time.Hour)
		t.Stop()
		return t
	},
}

// Get returns a timer that fires after d.
func Get(d time.Duration) *time.Timer {
	t := pool.Get().(*time.Timer)
	t.Reset(d)
	return t
}

// Put stops t and returns it to the pool. t must not be used afterward.
func Put(t *time.Timer) {
	t.Stop()
	pool.Put(t)
}
