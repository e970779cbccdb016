// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package tpool

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/petenewcomb/tpool-go/internal/state"
	"go.uber.org/zap"
)

// A Pool is a fixed set of workers, each with its own FIFO queue. Tasks are
// assigned to workers in strict round-robin order by [Pool.AddTask],
// regardless of how busy each worker is. Within one worker tasks run in
// submission order; there is no ordering across workers and no work
// stealing.
//
// The pool does not merge results. Callers wait for their tasks with
// [WaitAll], a [Batch], or [Pool.WaitIdle], then read each task's own output
// fields.
//
// Pools are created with [New] and must be released with [Pool.Close] or
// [Pool.Cancel].
type Pool struct {
	ctx          context.Context
	cancel       context.CancelFunc
	name         string
	logger       *zap.Logger
	lockOSThread bool
	workers      []*worker

	// mu serializes submission against closing so that no task can be queued
	// once closing has begun.
	mu     sync.Mutex
	cursor int

	nextID    atomic.Uint64
	lifecycle state.Lifecycle
	pending   state.InFlightCounter
}

// New creates a pool of n workers. The context is the parent of the context
// passed to every task's Run method; canceling it, or calling [Pool.Cancel],
// asks running tasks to stop.
//
// Returns [ErrNoWorkers] if n is less than one. Unless [WithAutoStart](false)
// is given, the workers are started before New returns.
func New(ctx context.Context, n int, opts ...Option) (*Pool, error) {
	if n < 1 {
		return nil, ErrNoWorkers
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Pool{
		name:         cfg.name,
		logger:       cfg.logger.With(zap.String("pool", cfg.name)),
		lockOSThread: cfg.lockOSThread,
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.lifecycle.Init()
	p.workers = make([]*worker, n)
	for i := range p.workers {
		p.workers[i] = newWorker(p, i)
	}

	p.logger.Debug("pool created", zap.Int("workers", n))

	if cfg.autoStart {
		if err := p.Start(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Start launches every worker. Calling Start more than once has no
// additional effect. Returns [ErrPoolClosed] if the pool has been closed.
func (p *Pool) Start() error {
	if !p.lifecycle.Start() {
		if !p.lifecycle.Accepting() {
			return ErrPoolClosed
		}
		return nil
	}
	for _, w := range p.workers {
		w.start()
	}
	p.logger.Debug("pool started")
	return nil
}

// AddTask queues a Pending task on the worker at the round-robin cursor and
// advances the cursor. It returns the index of the chosen worker. A task
// whose id is zero is assigned a pool-unique id.
//
// Tasks may be added before [Pool.Start]; they run once the workers start.
// Returns [ErrNilTask], [ErrTaskNotPending], or [ErrPoolClosed] without
// queuing the task or moving the cursor.
func (p *Pool) AddTask(t Task) (int, error) {
	if t == nil {
		return -1, ErrNilTask
	}
	if t.State() != Pending {
		return -1, ErrTaskNotPending
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.lifecycle.Accepting() {
		return -1, ErrPoolClosed
	}

	t.taskBase().assignID(p.nextID.Add(1))

	i := p.cursor
	p.cursor = (p.cursor + 1) % len(p.workers)
	p.pending.Increment()
	p.workers[i].push(t)
	return i, nil
}

// AddTasks submits each task with [Pool.AddTask], in order. It stops at the
// first error; tasks before the failing one remain queued.
func (p *Pool) AddTasks(tasks ...Task) error {
	for _, t := range tasks {
		if _, err := p.AddTask(t); err != nil {
			return err
		}
	}
	return nil
}

// Close stops accepting tasks, lets every worker finish the tasks already in
// its queue, and waits for all workers to exit. Tasks queued on a pool that
// was never started are interrupted with [ErrPoolClosed].
//
// Close is idempotent and safe to call concurrently with itself and with
// [Pool.Cancel]; every call returns once the pool is fully closed.
//
// Because Close waits for every worker, a task must not call Close or Cancel
// on its own pool synchronously: the worker running it could never exit.
// Such a task can start the shutdown from a new goroutine instead.
func (p *Pool) Close() {
	p.shutdown(false)
}

// Cancel stops accepting tasks, cancels the context of any running task,
// interrupts every task that has not started with [ErrPoolCanceled], and
// waits for all workers to exit. Running tasks are not preempted; they stop
// when they observe their context.
//
// Cancel may be called while a Close is in progress to abandon the rest of
// the queued work.
func (p *Pool) Cancel() {
	for _, w := range p.workers {
		w.abort.Store(true)
	}
	p.cancel()
	p.shutdown(true)
}

func (p *Pool) shutdown(abort bool) {
	p.mu.Lock()
	prev, ok := p.lifecycle.BeginClose()
	p.mu.Unlock()

	if !ok {
		<-p.lifecycle.Closed()
		return
	}

	p.logger.Debug("pool closing",
		zap.Stringer("from", prev),
		zap.Bool("abort", abort),
		zap.Int("pending", p.pending.Load()))

	for _, w := range p.workers {
		w.signalStop()
	}
	for _, w := range p.workers {
		w.join()
	}
	p.cancel()
	p.lifecycle.FinishClose()

	p.logger.Debug("pool closed")
}

// NumWorkers returns the fixed number of workers.
func (p *Pool) NumWorkers() int {
	return len(p.workers)
}

// Cursor returns the index of the worker that will receive the next task.
func (p *Pool) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Name returns the name given with [WithName].
func (p *Pool) Name() string {
	return p.name
}

// Pending returns the number of tasks that have been added but have not yet
// reached a terminal state.
func (p *Pool) Pending() int {
	return p.pending.Load()
}

// Busy returns the number of workers currently executing a task.
func (p *Pool) Busy() int {
	n := 0
	for _, w := range p.workers {
		if w.working.Load() {
			n++
		}
	}
	return n
}

// QueueLens returns a snapshot of the number of queued (not yet started)
// tasks per worker.
func (p *Pool) QueueLens() []int {
	lens := make([]int, len(p.workers))
	for i, w := range p.workers {
		lens[i] = w.queue.Len()
	}
	return lens
}

// WaitIdle blocks until no added task is left in flight, or until ctx is
// done.
func (p *Pool) WaitIdle(ctx context.Context) error {
	return p.pending.Wait(ctx)
}

func (p *Pool) taskDone() {
	p.pending.Decrement()
}
