// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package tpool

import "sync"

// An RWLock is a reader/writer lock built from one mutex and one condition
// variable. Any number of readers may hold it at once; a writer holds it
// alone. A writer that is waiting blocks new readers, so a steady stream of
// readers cannot starve writers.
//
// Unlike [sync.RWMutex], the number of active readers can be observed with
// [RWLock.NumReads]. The zero value is an unlocked lock. An RWLock must not be
// copied after first use.
type RWLock struct {
	mu             sync.Mutex
	cond           sync.Cond
	readers        int
	writer         bool
	waitingWriters int
}

func (l *RWLock) lock() {
	l.mu.Lock()
	if l.cond.L == nil {
		l.cond.L = &l.mu
	}
}

// ReadLock blocks until no writer holds or is waiting for the lock, then
// registers a reader.
func (l *RWLock) ReadLock() {
	l.lock()
	defer l.mu.Unlock()
	for l.writer || l.waitingWriters > 0 {
		l.cond.Wait()
	}
	l.readers++
}

// ReadUnlock releases one reader. When the last reader leaves, waiting
// writers are woken.
func (l *RWLock) ReadUnlock() {
	l.lock()
	defer l.mu.Unlock()
	if l.readers == 0 {
		panic("tpool: ReadUnlock of RWLock without readers")
	}
	l.readers--
	if l.readers == 0 {
		l.cond.Broadcast()
	}
}

// WriteLock blocks until there are no readers and no other writer.
func (l *RWLock) WriteLock() {
	l.lock()
	defer l.mu.Unlock()
	l.waitingWriters++
	for l.writer || l.readers > 0 {
		l.cond.Wait()
	}
	l.waitingWriters--
	l.writer = true
}

func (l *RWLock) WriteUnlock() {
	l.lock()
	defer l.mu.Unlock()
	if !l.writer {
		panic("tpool: WriteUnlock of RWLock not held by a writer")
	}
	l.writer = false
	l.cond.Broadcast()
}

// NumReads returns the number of readers currently holding the lock.
func (l *RWLock) NumReads() int {
	l.lock()
	defer l.mu.Unlock()
	return l.readers
}
