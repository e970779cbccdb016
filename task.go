// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package tpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// A Task is a unit of work with an identity and a lifecycle [State]. Concrete
// task types embed [TaskBase], which implements every method except Run, and
// carry whatever inputs and outputs they need as ordinary fields:
//
//	type sumTask struct {
//		tpool.TaskBase
//		xs  []float64
//		sum float64
//	}
//
//	func (t *sumTask) Run(ctx context.Context) error {
//		for _, x := range t.xs {
//			t.sum += x
//		}
//		return nil
//	}
//
// Run is called at most once, on a pool worker, and may read and write the
// task's own fields freely. Other goroutines must not touch those fields
// until they have observed a terminal state, for instance by receiving from
// [Task.Done] or calling [WaitAll].
//
// The pool holds ordinary references to submitted tasks, so a task stays
// alive for as long as it is queued or running regardless of what the
// submitter does with its own reference.
type Task interface {
	ID() uint64
	Name() string
	State() State
	SetState(State)

	// Err returns the error that moved the task into Interrupted or
	// InterruptedByException, or nil.
	Err() error

	// Done returns a channel that is closed when the task first reaches a
	// terminal state.
	Done() <-chan struct{}

	// Run performs the task's work. A nil return leaves the task Finished. A
	// returned error, or a panic, leaves it InterruptedByException, except
	// that errors wrapping context.Canceled or context.DeadlineExceeded leave
	// it Interrupted.
	Run(ctx context.Context) error

	taskBase() *TaskBase
}

// TaskBase provides the identity and state machine of a [Task]. Embed it in a
// concrete task type. The zero value is a Pending task with no id or name.
//
// A TaskBase must not be copied after first use.
type TaskBase struct {
	id    atomic.Uint64
	name  string
	state atomic.Int32

	mu         sync.Mutex
	running    bool
	terminated bool
	err        error
	done       chan struct{}
}

func (b *TaskBase) taskBase() *TaskBase {
	return b
}

func (b *TaskBase) ID() uint64 {
	return b.id.Load()
}

// SetID sets the task's id. Tasks submitted with an id of zero are assigned
// one by the pool.
func (b *TaskBase) SetID(id uint64) {
	b.id.Store(id)
}

func (b *TaskBase) Name() string {
	return b.name
}

// SetName sets the task's human-readable name. It must be called before the
// task is submitted.
func (b *TaskBase) SetName(name string) {
	b.name = name
}

func (b *TaskBase) State() State {
	return State(b.state.Load())
}

// SetState overrides the task's state. Setting a terminal state from within
// Run is respected: the worker will not replace it when Run returns, and
// [Task.Done] is not closed until Run has returned. A non-terminal state set
// from within Run is replaced by the state that Run's result calls for.
func (b *TaskBase) SetState(s State) {
	b.state.Store(int32(s))
	if !s.IsTerminal() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		b.markDoneLocked(nil)
	}
}

func (b *TaskBase) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *TaskBase) Done() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done == nil {
		b.done = make(chan struct{})
		if b.terminated {
			close(b.done)
		}
	}
	return b.done
}

func (b *TaskBase) assignID(id uint64) {
	b.id.CompareAndSwap(0, id)
}

func (b *TaskBase) transition(from, to State) bool {
	return b.state.CompareAndSwap(int32(from), int32(to))
}

// finish moves a task out of from into to, recording err. Does nothing if the
// task is no longer in from.
func (b *TaskBase) finish(from, to State, err error) bool {
	if !b.transition(from, to) {
		return false
	}
	b.markDone(err)
	return true
}

// begin moves a Pending task into Started and marks it as running, which
// defers closing Done until complete is called.
func (b *TaskBase) begin() bool {
	if !b.transition(Pending, Started) {
		return false
	}
	b.mu.Lock()
	b.running = true
	b.mu.Unlock()
	return true
}

// complete settles a task whose Run has returned. Whatever non-terminal state
// Run left behind is replaced by to; a terminal state chosen by Run is kept.
func (b *TaskBase) complete(to State, err error) {
	for {
		cur := b.state.Load()
		if State(cur).IsTerminal() || b.state.CompareAndSwap(cur, int32(to)) {
			break
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = false
	b.markDoneLocked(err)
}

func (b *TaskBase) markDone(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.markDoneLocked(err)
}

func (b *TaskBase) markDoneLocked(err error) {
	if b.terminated {
		return
	}
	b.terminated = true
	b.err = err
	if b.done != nil {
		close(b.done)
	}
}

// FuncTask adapts a plain function into a [Task].
type FuncTask struct {
	TaskBase
	fn func(context.Context) error
}

// NewFuncTask returns a Pending task that calls fn when run.
func NewFuncTask(name string, fn func(context.Context) error) *FuncTask {
	if fn == nil {
		panic("task function must be non-nil")
	}
	t := &FuncTask{fn: fn}
	t.SetName(name)
	return t
}

func (t *FuncTask) Run(ctx context.Context) error {
	return t.fn(ctx)
}

// Execute runs a Pending task on the calling goroutine, moving it through
// Started to a terminal state, and returns the error that Run produced. A
// panic inside Run is recovered and reported as an error wrapping
// [ErrTaskPanic].
//
// Returns [ErrTaskNotPending] without running the task if it is not Pending.
// Pool workers use Execute; it is exported for callers that want to run a
// task inline with the same semantics.
func Execute(ctx context.Context, t Task) error {
	if t == nil {
		return ErrNilTask
	}
	b := t.taskBase()
	if !b.begin() {
		return ErrTaskNotPending
	}
	err := runContained(ctx, t)
	b.complete(terminalStateFor(err), err)
	return err
}

func runContained(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
	}()
	return t.Run(ctx)
}

func terminalStateFor(err error) State {
	switch {
	case err == nil:
		return Finished
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Interrupted
	default:
		return InterruptedByException
	}
}

// interrupt moves a task that never started into Interrupted.
func interrupt(t Task, err error) bool {
	return t.taskBase().finish(Pending, Interrupted, err)
}
