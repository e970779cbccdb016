// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package tpool

// State is the lifecycle state of a [Task].
type State int32

const (
	// Pending is the state of a task that has not yet been picked up by a
	// worker. It is the zero value.
	Pending State = iota
	// Started is the state of a task whose Run method is executing.
	Started
	// Interrupted is the terminal state of a task whose context was canceled,
	// either before it started or while it was running.
	Interrupted
	// InterruptedByException is the terminal state of a task whose Run method
	// returned an error or panicked.
	InterruptedByException
	// Finished is the terminal state of a task whose Run method returned nil.
	Finished
	// Undefined is never assigned by this package. Tasks may set it on
	// themselves, but like any non-terminal state it is replaced once Run
	// returns.
	Undefined
)

// IsTerminal reports whether no further transition is expected from s.
func (s State) IsTerminal() bool {
	switch s {
	case Finished, Interrupted, InterruptedByException:
		return true
	default:
		return false
	}
}

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Started:
		return "started"
	case Interrupted:
		return "interrupted"
	case InterruptedByException:
		return "interrupted-by-exception"
	case Finished:
		return "finished"
	case Undefined:
		return "undefined"
	default:
		return "invalid"
	}
}
