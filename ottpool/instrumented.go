// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ottpool

import (
	"context"

	"github.com/petenewcomb/tpool-go"
)

// Instrumented combines tracing, metrics, and logging for a task into a
// single wrapper. Logging is innermost and tracing outermost, so the log
// entries and metrics of a run fall inside its span.
func Instrumented(ctx context.Context, operation string, task tpool.Task) *TracedTask {
	return Traced(ctx, operation, Metrics(operation, Logged(operation, task)))
}

// Submit instruments each task with [Instrumented] and adds it to pool in
// order. It returns the wrapped tasks, which share state with the originals.
// On error, the tasks before the failing one remain queued.
func Submit(ctx context.Context, pool *tpool.Pool, operation string, tasks ...tpool.Task) ([]tpool.Task, error) {
	wrapped := make([]tpool.Task, 0, len(tasks))
	for _, task := range tasks {
		w := Instrumented(ctx, operation, task)
		if _, err := pool.AddTask(w); err != nil {
			return wrapped, err
		}
		wrapped = append(wrapped, w)
	}
	return wrapped, nil
}
