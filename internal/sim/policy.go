// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

import (
	"cmp"
	"fmt"

	"github.com/addrummond/heap"
)

// Policy chooses a worker for each task as it is submitted.
type Policy int

const (
	// RoundRobin assigns the i-th task to worker i mod n, the way the pool
	// does.
	RoundRobin Policy = iota
	// LeastLoaded assigns each task to the worker with the least total cost
	// assigned so far, breaking ties by lowest index.
	LeastLoaded
)

func (p Policy) String() string {
	switch p {
	case RoundRobin:
		return "round-robin"
	case LeastLoaded:
		return "least-loaded"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Assign returns the index of the worker chosen for each task.
func (p Policy) Assign(workers int, costs []int) []int {
	if workers < 1 {
		panic("workers must be at least one")
	}
	assignment := make([]int, len(costs))
	switch p {
	case RoundRobin:
		for i := range costs {
			assignment[i] = i % workers
		}
	case LeastLoaded:
		var loads heap.Heap[workerLoad, heap.Min]
		for w := range workers {
			heap.PushOrderable(&loads, workerLoad{Worker: w})
		}
		for i, c := range costs {
			least, _ := heap.PopOrderable(&loads)
			assignment[i] = least.Worker
			least.Load += c
			heap.PushOrderable(&loads, least)
		}
	default:
		panic(fmt.Sprintf("unknown policy %d", int(p)))
	}
	return assignment
}

type workerLoad struct {
	Load   int
	Worker int
}

func (a *workerLoad) Cmp(b *workerLoad) int {
	if c := cmp.Compare(a.Load, b.Load); c != 0 {
		return c
	}
	return cmp.Compare(a.Worker, b.Worker)
}
