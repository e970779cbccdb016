// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package taskq_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/petenewcomb/tpool-go/internal/taskq"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"pgregory.net/rapid"
)

func TestQueueBasicFunctionality(t *testing.T) {
	var q taskq.Queue[int]

	// Test empty queue
	require.True(t, q.Empty())
	_, ok := q.Pop()
	require.False(t, ok)

	q.Push(1)
	q.Push(2)
	q.Push(3)
	require.Equal(t, 3, q.Len())
	require.False(t, q.Empty())

	for want := 1; want <= 3; want++ {
		val, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, want, val)
	}
	require.True(t, q.Empty())
}

// TestQueueWithRapid uses rapid state machine testing to verify queue
// correctness against a slice model.
func TestQueueWithRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var q taskq.Queue[int]
		var model []int

		t.Repeat(map[string]func(*rapid.T){
			"push": func(t *rapid.T) {
				val := rapid.Int().Draw(t, "value")
				q.Push(val)
				model = append(model, val)
			},
			"pop": func(t *rapid.T) {
				if len(model) == 0 {
					t.Skip("Queue is empty, nothing to pop")
				}
				expected := model[0]
				model = model[1:]

				val, ok := q.Pop()
				require.True(t, ok, "Pop failed on non-empty queue")
				require.Equal(t, expected, val, "Pop returned wrong value")
			},
			"popWait": func(t *rapid.T) {
				if len(model) == 0 {
					t.Skip("Queue is empty, PopWait would block")
				}
				expected := model[0]
				model = model[1:]

				val, err := q.PopWait(context.Background())
				require.NoError(t, err)
				require.Equal(t, expected, val, "PopWait returned wrong value")
			},
			"": func(t *rapid.T) {
				require.Equal(t, len(model), q.Len(), "Length mismatch in invariant check")
				if len(model) == 0 {
					_, ok := q.Pop()
					require.False(t, ok, "Pop should fail on empty queue")
				}
			},
		})
	})
}

func TestQueueFIFOProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pushes := rapid.SliceOf(rapid.Int()).Draw(t, "pushes")
		var q taskq.Queue[int]
		for _, v := range pushes {
			q.Push(v)
		}
		popped := q.Drain()
		if len(pushes) == 0 {
			require.Empty(t, popped)
		} else {
			require.Equal(t, pushes, popped)
		}
		require.True(t, q.Empty())
	})
}

func TestPopWaitBlocksUntilPush(t *testing.T) {
	chk := require.New(t)
	var q taskq.Queue[string]

	got := make(chan string)
	go func() {
		v, err := q.PopWait(context.Background())
		chk.NoError(err)
		got <- v
	}()

	select {
	case v := <-got:
		chk.Failf("PopWait returned early", "got %q", v)
	case <-time.After(20 * time.Millisecond):
	}

	q.Push("hello")
	select {
	case v := <-got:
		chk.Equal("hello", v)
	case <-time.After(5 * time.Second):
		chk.Fail("PopWait did not return after Push")
	}
}

func TestPopWaitWakesEveryConsumer(t *testing.T) {
	chk := require.New(t)
	var q taskq.Queue[int]

	const consumers = 3
	got := make(chan int, consumers)
	for range consumers {
		go func() {
			v, err := q.PopWait(context.Background())
			chk.NoError(err)
			got <- v
		}()
	}
	time.Sleep(20 * time.Millisecond)

	// Pushing back to back leaves a single wakeup pending; each consumer that
	// takes an item must pass it on.
	for i := 1; i <= consumers; i++ {
		q.Push(i)
	}

	sum := 0
	for range consumers {
		select {
		case v := <-got:
			sum += v
		case <-time.After(5 * time.Second):
			chk.FailNow("a consumer was not woken")
		}
	}
	chk.Equal(6, sum)
	chk.True(q.Empty())
}

func TestPopWaitContextCanceled(t *testing.T) {
	chk := require.New(t)
	var q taskq.Queue[int]

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := q.PopWait(ctx)
	chk.ErrorIs(err, context.DeadlineExceeded)

	// An abandoned wait must not swallow later items.
	q.Push(7)
	v, err := q.PopWait(context.Background())
	chk.NoError(err)
	chk.Equal(7, v)
}

func TestQueueConcurrency(t *testing.T) {
	chk := require.New(t)
	var q taskq.Queue[int]

	const producers = 4
	const consumers = 4
	const perProducer = 10_000

	var sum atomic.Int64
	var count atomic.Int64

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var consumerGroup errgroup.Group
	for range consumers {
		consumerGroup.Go(func() error {
			for {
				v, err := q.PopWait(ctx)
				if err != nil {
					return nil
				}
				sum.Add(int64(v))
				if count.Add(1) == producers*perProducer {
					cancel()
				}
			}
		})
	}

	var producerGroup errgroup.Group
	for range producers {
		producerGroup.Go(func() error {
			for i := 1; i <= perProducer; i++ {
				q.Push(i)
			}
			return nil
		})
	}

	chk.NoError(producerGroup.Wait())
	chk.NoError(consumerGroup.Wait())
	chk.Equal(int64(producers*perProducer), count.Load())
	chk.Equal(int64(producers*perProducer*(perProducer+1)/2), sum.Load())
	chk.True(q.Empty())
}
