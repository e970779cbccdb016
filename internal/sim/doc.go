// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package sim models how a batch of tasks with known costs plays out on a
// pool of workers with per-worker FIFO queues. It is a discrete-event
// simulation: tasks are assigned to workers up front by a [Policy], then each
// worker runs its queue in order and the model advances from one task
// completion to the next. The model is used to compare the pool's
// unconditional round-robin assignment with a least-loaded assignment on
// uneven workloads.
package sim
