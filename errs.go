// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package tpool

type constError string

func (e constError) Error() string {
	return string(e)
}

// ErrNoWorkers is returned by [New] when asked for fewer than one worker.
const ErrNoWorkers = constError("pool requires at least one worker")

const ErrNilTask = constError("task must be non-nil")
const ErrPoolClosed = constError("pool is closed")
const ErrPoolCanceled = constError("pool canceled before task started")
const ErrTaskNotPending = constError("task is not pending")
const ErrTaskPanic = constError("task panicked")

// ErrInvalidOperand is returned when a [ResultHolder] is combined with
// another holder that has not been validated.
const ErrInvalidOperand = constError("result holder operand is not valid")
const ErrDivideByZero = constError("division by zero")
