// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package ottpool provides OpenTelemetry and zap instrumentation for tpool
// tasks. Each wrapper embeds the task it instruments, so the wrapped value
// shares the inner task's identity and state and can be submitted to a
// [tpool.Pool] in its place.
//
// Tasks run on pool workers under the pool's context, not the submitter's.
// [Traced] therefore captures the submitter's span context when the task is
// wrapped and parents the task's span on it when the task runs.
package ottpool
