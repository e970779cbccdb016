// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package tpool provides a fixed-size pool of workers for splitting a
// computation into independent tasks and running them in parallel. Each
// worker owns a FIFO queue and a goroutine. Tasks are handed to the workers
// in strict round-robin order as they are added, so a caller that submits N
// equal-cost tasks to an N-worker pool gets one task per worker.
//
// Tasks carry their own inputs and outputs. The pool never merges results:
// the submitting goroutine waits for its tasks to reach a terminal [State]
// (see [WaitAll], [Batch], and [Pool.WaitIdle]) and then reads each task's
// partial result, typically folding them into a [ResultHolder].
//
// The package also provides [RWLock], a reader/writer lock whose reader count
// can be observed, for tasks that share read-mostly data.
//
// A panic or error inside a task is contained at the worker boundary: the
// task ends in [InterruptedByException] and the worker moves on to its next
// task.
package tpool
