// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

import (
	"cmp"

	"github.com/addrummond/heap"
	"github.com/gammazero/deque"
)

// Result describes one simulated run.
type Result struct {
	Policy Policy

	// Makespan is the time at which the last task completes.
	Makespan int

	// Order lists, for each worker, the indices of the tasks it ran in the
	// order it ran them.
	Order [][]int

	// Finish is the completion time of each task.
	Finish []int

	// Busy is the total cost run by each worker.
	Busy []int
}

// Idle returns the total time workers spent idle before the makespan.
func (r *Result) Idle() int {
	idle := 0
	for _, b := range r.Busy {
		idle += r.Makespan - b
	}
	return idle
}

type completion struct {
	Time   int
	Worker int
	Task   int
}

func (a *completion) Cmp(b *completion) int {
	if c := cmp.Compare(a.Time, b.Time); c != 0 {
		return c
	}
	return cmp.Compare(a.Worker, b.Worker)
}

// Run simulates submitting tasks with the given costs, in order, to a pool of
// workers that all start idle at time zero. Costs must not be negative.
func Run(workers int, costs []int, policy Policy) *Result {
	for _, c := range costs {
		if c < 0 {
			panic("task cost may not be negative")
		}
	}
	assignment := policy.Assign(workers, costs)

	queues := make([]deque.Deque[int], workers)
	for i, w := range assignment {
		queues[w].PushBack(i)
	}

	r := &Result{
		Policy: policy,
		Order:  make([][]int, workers),
		Finish: make([]int, len(costs)),
		Busy:   make([]int, workers),
	}

	var events heap.Heap[completion, heap.Min]
	startNext := func(w, now int) {
		if queues[w].Len() == 0 {
			return
		}
		task := queues[w].PopFront()
		heap.PushOrderable(&events, completion{Time: now + costs[task], Worker: w, Task: task})
	}
	for w := range workers {
		startNext(w, 0)
	}

	for {
		ev, ok := heap.PopOrderable(&events)
		if !ok {
			break
		}
		r.Makespan = ev.Time
		r.Finish[ev.Task] = ev.Time
		r.Order[ev.Worker] = append(r.Order[ev.Worker], ev.Task)
		r.Busy[ev.Worker] += costs[ev.Task]
		startNext(ev.Worker, ev.Time)
	}
	return r
}

// Compare runs the same workload under both policies.
func Compare(workers int, costs []int) (roundRobin, leastLoaded *Result) {
	return Run(workers, costs, RoundRobin), Run(workers, costs, LeastLoaded)
}
