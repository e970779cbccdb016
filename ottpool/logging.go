// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ottpool

import (
	"context"
	"time"

	"github.com/petenewcomb/tpool-go"
	"go.uber.org/zap"
)

// LoggedTask adds structured logging to a task. It logs the start and
// completion of Run, including timing information and any error returned.
type LoggedTask struct {
	tpool.Task
	Operation string

	// Logger is used if non-nil; otherwise the global zap logger is used at
	// run time.
	Logger *zap.Logger
}

// Logged wraps task with logging under the given operation name.
func Logged(operation string, task tpool.Task) *LoggedTask {
	return &LoggedTask{Task: task, Operation: operation}
}

func (t *LoggedTask) Run(ctx context.Context) error {
	logger := t.Logger
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.With(
		zap.String("operation", t.Operation),
		zap.String("component", "ottpool"),
		zap.Uint64("task_id", t.ID()))

	logger.Debug("Starting task")

	startTime := time.Now()
	err := t.Task.Run(ctx)
	duration := time.Since(startTime)

	if err != nil {
		logger.Error("Task failed",
			zap.Duration("duration", duration),
			zap.Error(err))
	} else {
		logger.Debug("Task completed",
			zap.Duration("duration", duration))
	}
	return err
}
