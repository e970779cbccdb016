// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package tpool_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/petenewcomb/tpool-go"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func noop(context.Context) error { return nil }

func TestNewRequiresWorkers(t *testing.T) {
	chk := require.New(t)
	for _, n := range []int{0, -1} {
		p, err := tpool.New(context.Background(), n)
		chk.ErrorIs(err, tpool.ErrNoWorkers)
		chk.Nil(p)
	}
}

func TestPoolCloseTwice(t *testing.T) {
	chk := require.New(t)
	p, err := tpool.New(context.Background(), 3)
	chk.NoError(err)
	chk.Equal(3, p.NumWorkers())
	chk.Equal("tpool", p.Name())
	p.Close()
	p.Close()
	p.Cancel()
}

func TestPoolRoundRobin(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "workers")
		count := rapid.IntRange(0, 64).Draw(t, "tasks")

		p, err := tpool.New(context.Background(), n, tpool.WithAutoStart(false))
		require.NoError(t, err)
		defer p.Close()

		for i := range count {
			w, err := p.AddTask(tpool.NewFuncTask("", noop))
			require.NoError(t, err)
			require.Equal(t, i%n, w)
		}
		require.Equal(t, count%n, p.Cursor())
		require.Equal(t, count, p.Pending())

		lens := p.QueueLens()
		require.Len(t, lens, n)
		total := 0
		for i, l := range lens {
			want := count / n
			if i < count%n {
				want++
			}
			require.Equal(t, want, l)
			total += l
		}
		require.Equal(t, count, total)
	})
}

func TestPoolRunsTasksToFinished(t *testing.T) {
	chk := require.New(t)
	ctx := context.Background()
	p, err := tpool.New(ctx, 4)
	chk.NoError(err)
	defer p.Close()

	var ran atomic.Int32
	tasks := make([]tpool.Task, 20)
	for i := range tasks {
		tasks[i] = tpool.NewFuncTask("count", func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}
	chk.NoError(p.AddTasks(tasks...))
	chk.NoError(tpool.WaitAll(ctx, tasks...))
	chk.True(tpool.AllTerminal(tasks...))
	chk.Equal(int32(len(tasks)), ran.Load())

	seen := map[uint64]bool{}
	for _, task := range tasks {
		chk.Equal(tpool.Finished, task.State())
		chk.NoError(task.Err())
		chk.NotZero(task.ID())
		chk.False(seen[task.ID()], "duplicate task id")
		seen[task.ID()] = true
	}
	chk.NoError(p.WaitIdle(ctx))
	chk.Zero(p.Pending())
}

func TestPoolKeepsSubmitterIDs(t *testing.T) {
	chk := require.New(t)
	p, err := tpool.New(context.Background(), 1)
	chk.NoError(err)
	defer p.Close()

	task := tpool.NewFuncTask("", noop)
	task.SetID(1234)
	_, err = p.AddTask(task)
	chk.NoError(err)
	chk.Equal(uint64(1234), task.ID())
}

func TestPoolWorkerSurvivesFailures(t *testing.T) {
	chk := require.New(t)
	ctx := context.Background()
	p, err := tpool.New(ctx, 1)
	chk.NoError(err)
	defer p.Close()

	boom := errors.New("boom")
	panicky := tpool.NewFuncTask("panics", func(context.Context) error { panic("oops") })
	failing := tpool.NewFuncTask("fails", func(context.Context) error { return boom })
	healthy := tpool.NewFuncTask("ok", noop)

	chk.NoError(p.AddTasks(panicky, failing, healthy))
	chk.NoError(tpool.WaitAll(ctx, panicky, failing, healthy))

	chk.Equal(tpool.InterruptedByException, panicky.State())
	chk.ErrorIs(panicky.Err(), tpool.ErrTaskPanic)
	chk.ErrorContains(panicky.Err(), "oops")

	chk.Equal(tpool.InterruptedByException, failing.State())
	chk.ErrorIs(failing.Err(), boom)

	chk.Equal(tpool.Finished, healthy.State())
}

func TestPoolPerWorkerFIFO(t *testing.T) {
	chk := require.New(t)
	ctx := context.Background()
	const n = 3
	p, err := tpool.New(ctx, n, tpool.WithAutoStart(false))
	chk.NoError(err)
	defer p.Close()

	var order [n][]int
	var tasks []tpool.Task
	for i := range 30 {
		w := i % n
		task := tpool.NewFuncTask("", func(context.Context) error {
			order[w] = append(order[w], i)
			return nil
		})
		got, err := p.AddTask(task)
		chk.NoError(err)
		chk.Equal(w, got)
		tasks = append(tasks, task)
	}

	chk.NoError(p.Start())
	chk.NoError(p.Start())
	chk.NoError(tpool.WaitAll(ctx, tasks...))

	for w := range n {
		chk.Len(order[w], 10)
		for j, i := range order[w] {
			chk.Equal(w+j*n, i)
		}
	}
}

func TestPoolCloseRunsQueuedTasks(t *testing.T) {
	chk := require.New(t)
	p, err := tpool.New(context.Background(), 2)
	chk.NoError(err)

	tasks := make([]tpool.Task, 10)
	for i := range tasks {
		tasks[i] = tpool.NewFuncTask("", func(context.Context) error {
			time.Sleep(time.Millisecond)
			return nil
		})
	}
	chk.NoError(p.AddTasks(tasks...))
	p.Close()

	for _, task := range tasks {
		chk.Equal(tpool.Finished, task.State())
	}
	chk.Zero(p.Pending())
}

func TestPoolCloseBeforeStartInterrupts(t *testing.T) {
	chk := require.New(t)
	p, err := tpool.New(context.Background(), 2, tpool.WithAutoStart(false))
	chk.NoError(err)

	task := tpool.NewFuncTask("", noop)
	_, err = p.AddTask(task)
	chk.NoError(err)
	p.Close()

	chk.Equal(tpool.Interrupted, task.State())
	chk.ErrorIs(task.Err(), tpool.ErrPoolClosed)
	chk.ErrorIs(p.Start(), tpool.ErrPoolClosed)
}

func TestPoolCancelBeforeStartInterrupts(t *testing.T) {
	chk := require.New(t)
	p, err := tpool.New(context.Background(), 2, tpool.WithAutoStart(false))
	chk.NoError(err)

	tasks := []tpool.Task{tpool.NewFuncTask("", noop), tpool.NewFuncTask("", noop)}
	chk.NoError(p.AddTasks(tasks...))
	p.Cancel()

	for _, task := range tasks {
		chk.Equal(tpool.Interrupted, task.State())
		chk.ErrorIs(task.Err(), tpool.ErrPoolCanceled)
	}
	chk.Zero(p.Pending())
	chk.ErrorIs(p.Start(), tpool.ErrPoolClosed)
}

func TestPoolCancelInterruptsQueuedTasks(t *testing.T) {
	chk := require.New(t)
	p, err := tpool.New(context.Background(), 1)
	chk.NoError(err)

	started := make(chan struct{})
	blocker := tpool.NewFuncTask("blocker", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	queued := make([]tpool.Task, 5)
	for i := range queued {
		queued[i] = tpool.NewFuncTask("queued", noop)
	}

	chk.NoError(p.AddTasks(blocker))
	chk.NoError(p.AddTasks(queued...))
	<-started
	p.Cancel()

	chk.Equal(tpool.Interrupted, blocker.State())
	chk.ErrorIs(blocker.Err(), context.Canceled)
	for _, task := range queued {
		chk.Equal(tpool.Interrupted, task.State())
		chk.ErrorIs(task.Err(), tpool.ErrPoolCanceled)
	}
	chk.Zero(p.Pending())

	p.Close()
	p.Cancel()
}

func TestPoolParentContextCancelsTasks(t *testing.T) {
	chk := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	p, err := tpool.New(ctx, 1)
	chk.NoError(err)
	defer p.Close()

	started := make(chan struct{})
	task := tpool.NewFuncTask("", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	_, err = p.AddTask(task)
	chk.NoError(err)
	<-started
	cancel()

	chk.NoError(tpool.WaitAll(context.Background(), task))
	chk.Equal(tpool.Interrupted, task.State())
}

func TestPoolAddTaskErrors(t *testing.T) {
	chk := require.New(t)
	ctx := context.Background()
	p, err := tpool.New(ctx, 2)
	chk.NoError(err)

	_, err = p.AddTask(nil)
	chk.ErrorIs(err, tpool.ErrNilTask)

	task := tpool.NewFuncTask("", noop)
	_, err = p.AddTask(task)
	chk.NoError(err)
	chk.NoError(tpool.WaitAll(ctx, task))
	_, err = p.AddTask(task)
	chk.ErrorIs(err, tpool.ErrTaskNotPending)
	chk.Equal(1, p.Cursor(), "rejected tasks must not move the cursor")

	p.Close()
	_, err = p.AddTask(tpool.NewFuncTask("", noop))
	chk.ErrorIs(err, tpool.ErrPoolClosed)
	chk.ErrorIs(p.AddTasks(tpool.NewFuncTask("", noop)), tpool.ErrPoolClosed)
	chk.Equal(1, p.Cursor())
}

func TestPoolClosedFromTask(t *testing.T) {
	chk := require.New(t)
	p, err := tpool.New(context.Background(), 2)
	chk.NoError(err)

	submitted := make(chan struct{})
	closed := make(chan struct{})
	closer := tpool.NewFuncTask("closer", func(context.Context) error {
		<-submitted
		go func() {
			p.Close()
			close(closed)
		}()
		return nil
	})
	follower := tpool.NewFuncTask("follower", noop)
	chk.NoError(p.AddTasks(closer, follower))
	close(submitted)

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		chk.Fail("Close started from a task did not return")
	}
	chk.Equal(tpool.Finished, closer.State())
	chk.Equal(tpool.Finished, follower.State())
	chk.Zero(p.Pending())
}

func TestPoolConcurrentClose(t *testing.T) {
	chk := require.New(t)
	p, err := tpool.New(context.Background(), 4)
	chk.NoError(err)

	for range 100 {
		_, err := p.AddTask(tpool.NewFuncTask("", noop))
		chk.NoError(err)
	}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				p.Close()
			} else {
				p.Cancel()
			}
		}()
	}
	wg.Wait()
	chk.Zero(p.Pending())
	chk.Zero(p.Busy())
}

func TestPoolWaitIdle(t *testing.T) {
	chk := require.New(t)
	ctx := context.Background()
	p, err := tpool.New(ctx, 2)
	chk.NoError(err)
	defer p.Close()

	chk.NoError(p.WaitIdle(ctx))

	release := make(chan struct{})
	task := tpool.NewFuncTask("", func(context.Context) error {
		<-release
		return nil
	})
	_, err = p.AddTask(task)
	chk.NoError(err)

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	chk.ErrorIs(p.WaitIdle(short), context.DeadlineExceeded)

	close(release)
	chk.NoError(p.WaitIdle(ctx))
	chk.Equal(tpool.Finished, task.State())
}

func TestPoolLockOSThread(t *testing.T) {
	chk := require.New(t)
	ctx := context.Background()
	p, err := tpool.New(ctx, 2, tpool.WithLockOSThread(true), tpool.WithName("pinned"), tpool.WithLogger(nil))
	chk.NoError(err)
	defer p.Close()
	chk.Equal("pinned", p.Name())

	task := tpool.NewFuncTask("", noop)
	_, err = p.AddTask(task)
	chk.NoError(err)
	chk.NoError(tpool.WaitAll(ctx, task))
	chk.Equal(tpool.Finished, task.State())
}
