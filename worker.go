// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package tpool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petenewcomb/tpool-go/internal/taskq"
	"go.uber.org/zap"
)

// worker owns one queue and one goroutine. It only ever executes tasks from
// its own queue.
type worker struct {
	id      int
	pool    *Pool
	logger  *zap.Logger
	queue   taskq.Queue[Task]
	working atomic.Bool
	abort   atomic.Bool

	stopCtx  context.Context
	stopFunc context.CancelFunc
	stopped  chan struct{}

	mu       sync.Mutex
	started  bool
	stopping bool
}

func newWorker(p *Pool, id int) *worker {
	w := &worker{
		id:      id,
		pool:    p,
		logger:  p.logger.With(zap.Int("worker", id)),
		stopped: make(chan struct{}),
	}
	w.stopCtx, w.stopFunc = context.WithCancel(context.Background())
	return w
}

func (w *worker) start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopping {
		return
	}
	w.started = true
	go w.run()
}

// signalStop asks the loop to exit once its queue is drained (or, if abort is
// set, as soon as the current task returns).
func (w *worker) signalStop() {
	w.mu.Lock()
	w.stopping = true
	w.mu.Unlock()
	w.stopFunc()
}

// join waits for the loop to exit. A worker that was never started has no
// goroutine, so whatever is left in its queue is interrupted here instead,
// with ErrPoolCanceled if the pool was canceled and ErrPoolClosed otherwise.
func (w *worker) join() {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.stopped
		return
	}
	for _, t := range w.queue.Drain() {
		w.interrupt(t, w.stopCause())
	}
}

func (w *worker) stopCause() error {
	if w.abort.Load() {
		return ErrPoolCanceled
	}
	return ErrPoolClosed
}

func (w *worker) push(t Task) {
	w.queue.Push(t)
}

func (w *worker) run() {
	defer close(w.stopped)

	if w.pool.lockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	w.logger.Debug("worker started")
	for {
		t, err := w.queue.PopWait(w.stopCtx)
		if err != nil {
			break
		}
		if w.abort.Load() {
			w.interrupt(t, ErrPoolCanceled)
			continue
		}
		w.execute(t)
	}
	w.drain()
	w.logger.Debug("worker stopped")
}

// drain empties the queue after a stop request: a graceful stop runs the
// remaining tasks, an aborted one interrupts them.
func (w *worker) drain() {
	for {
		t, ok := w.queue.Pop()
		if !ok {
			return
		}
		if w.abort.Load() {
			w.interrupt(t, ErrPoolCanceled)
		} else {
			w.execute(t)
		}
	}
}

func (w *worker) execute(t Task) {
	w.working.Store(true)
	startTime := time.Now()
	err := Execute(w.pool.ctx, t)
	duration := time.Since(startTime)
	w.working.Store(false)

	if err != nil {
		w.logger.Warn("task failed",
			zap.Uint64("task_id", t.ID()),
			zap.String("task_name", t.Name()),
			zap.Stringer("state", t.State()),
			zap.Duration("duration", duration),
			zap.Error(err))
	} else if ce := w.logger.Check(zap.DebugLevel, "task finished"); ce != nil {
		ce.Write(
			zap.Uint64("task_id", t.ID()),
			zap.String("task_name", t.Name()),
			zap.Duration("duration", duration))
	}
	w.pool.taskDone()
}

func (w *worker) interrupt(t Task, err error) {
	if interrupt(t, err) {
		w.logger.Debug("task interrupted before start",
			zap.Uint64("task_id", t.ID()),
			zap.String("task_name", t.Name()),
			zap.Error(err))
	}
	w.pool.taskDone()
}
