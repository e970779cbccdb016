// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package tpool

import "go.uber.org/zap"

// Option configures a [Pool] created with [New].
type Option func(*options)

type options struct {
	autoStart    bool
	lockOSThread bool
	logger       *zap.Logger
	name         string
}

func defaultOptions() options {
	return options{
		autoStart: true,
		logger:    zap.NewNop(),
		name:      "tpool",
	}
}

// WithAutoStart controls whether [New] starts the workers. Defaults to true.
func WithAutoStart(enabled bool) Option {
	return func(o *options) { o.autoStart = enabled }
}

// WithLockOSThread pins each worker goroutine to its own OS thread for the
// lifetime of the worker, for tasks that depend on thread-local state.
func WithLockOSThread(enabled bool) Option {
	return func(o *options) { o.lockOSThread = enabled }
}

// WithLogger sets the logger used for worker lifecycle and task failures.
// Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = zap.NewNop()
		}
		o.logger = logger
	}
}

// WithName sets the name attached to the pool's log entries.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}
