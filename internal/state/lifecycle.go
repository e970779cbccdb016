// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package state

import (
	"sync/atomic"
)

// Stage is a position in a pool's lifecycle.
type Stage int32

const (
	// StageNew indicates that the pool has been constructed but its workers
	// have not been started. Tasks may already be submitted.
	StageNew Stage = iota
	// StageRunning indicates that workers are executing tasks.
	StageRunning
	// StageClosing indicates that the pool no longer accepts tasks and is
	// waiting for its workers to stop.
	StageClosing
	// StageClosed indicates that every worker has stopped.
	StageClosed
)

func (s Stage) String() string {
	switch s {
	case StageNew:
		return "new"
	case StageRunning:
		return "running"
	case StageClosing:
		return "closing"
	case StageClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Lifecycle is a lock-free state machine over [Stage]. Transitions only move
// forward. The zero value is in [StageNew].
type Lifecycle struct {
	stage atomic.Int32
	done  chan struct{}
}

// Init must be called once before the Lifecycle is shared.
func (l *Lifecycle) Init() {
	l.done = make(chan struct{})
}

func (l *Lifecycle) Stage() Stage {
	return Stage(l.stage.Load())
}

// Start transitions New → Running. Returns true if this call made the
// transition.
func (l *Lifecycle) Start() bool {
	return l.stage.CompareAndSwap(int32(StageNew), int32(StageRunning))
}

// BeginClose transitions New or Running → Closing and returns the stage that
// was left. Returns false if another caller already began closing.
func (l *Lifecycle) BeginClose() (Stage, bool) {
	for {
		cur := l.stage.Load()
		if cur >= int32(StageClosing) {
			return Stage(cur), false
		}
		if l.stage.CompareAndSwap(cur, int32(StageClosing)) {
			return Stage(cur), true
		}
	}
}

// FinishClose transitions Closing → Closed and releases everyone blocked in
// [Lifecycle.Closed].
func (l *Lifecycle) FinishClose() {
	if l.stage.CompareAndSwap(int32(StageClosing), int32(StageClosed)) {
		close(l.done)
	}
}

// Closed returns a channel that is closed once the lifecycle reaches
// [StageClosed].
func (l *Lifecycle) Closed() <-chan struct{} {
	return l.done
}

// Accepting reports whether new work may be submitted.
func (l *Lifecycle) Accepting() bool {
	return l.Stage() < StageClosing
}
