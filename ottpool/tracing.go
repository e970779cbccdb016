// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ottpool

import (
	"context"
	"fmt"

	"github.com/petenewcomb/tpool-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracedTask wraps each run of a task in a span named after the operation.
// The span is parented on the span that was current when the task was
// wrapped, and its status is set to Error if Run fails or panics.
type TracedTask struct {
	tpool.Task
	Operation string
	parent    trace.SpanContext
}

// Traced wraps task with tracing, capturing the span context of ctx as the
// parent of the task's span.
func Traced(ctx context.Context, operation string, task tpool.Task) *TracedTask {
	return &TracedTask{
		Task:      task,
		Operation: operation,
		parent:    trace.SpanContextFromContext(ctx),
	}
}

// Parent returns the span context captured by [Traced].
func (t *TracedTask) Parent() trace.SpanContext {
	return t.parent
}

func (t *TracedTask) Run(ctx context.Context) (err error) {
	if t.parent.IsValid() {
		ctx = trace.ContextWithSpanContext(ctx, t.parent)
	}

	tracer := otel.Tracer("ottpool")
	ctx, span := tracer.Start(ctx, t.Operation,
		trace.WithAttributes(
			attribute.Int64("tpool.task.id", int64(t.ID())),
			attribute.String("tpool.task.name", t.Name())))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			span.SetStatus(codes.Error, fmt.Sprint("panic: ", r))
			panic(r)
		}
	}()

	err = t.Task.Run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
