// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package tpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

// AllTerminal reports whether every task has reached a terminal state. It is
// the polling form of [WaitAll].
func AllTerminal(tasks ...Task) bool {
	for _, t := range tasks {
		if !t.State().IsTerminal() {
			return false
		}
	}
	return true
}

// WaitAll blocks until every task has reached a terminal state, or until ctx
// is done, in which case it returns ctx.Err(). It does not report task
// failures; see [Failures].
func WaitAll(ctx context.Context, tasks ...Task) error {
	for _, t := range tasks {
		select {
		case <-t.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Failures returns the joined errors of every task that did not finish
// successfully, or nil. Tasks that are not yet terminal are ignored.
func Failures(tasks ...Task) error {
	var errs []error
	for _, t := range tasks {
		s := t.State()
		if !s.IsTerminal() || s == Finished {
			continue
		}
		err := t.Err()
		if err == nil {
			err = errors.New(s.String())
		}
		errs = append(errs, fmt.Errorf("task %d %q %s: %w", t.ID(), t.Name(), s, err))
	}
	return errors.Join(errs...)
}

// A Batch groups tasks submitted together so they can be waited on as a unit.
// Each batch carries a unique id that is attached to its log entries.
type Batch struct {
	id     ksuid.KSUID
	pool   *Pool
	logger *zap.Logger

	mu    sync.Mutex
	tasks []Task
}

// NewBatch returns an empty batch that submits to p.
func (p *Pool) NewBatch() *Batch {
	id := ksuid.New()
	return &Batch{
		id:     id,
		pool:   p,
		logger: p.logger.With(zap.Stringer("batch", id)),
	}
}

func (b *Batch) ID() ksuid.KSUID {
	return b.id
}

// Submit adds the tasks to the pool in order and records them in the batch.
// It stops at the first error; tasks submitted before it remain part of the
// batch.
func (b *Batch) Submit(tasks ...Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range tasks {
		if _, err := b.pool.AddTask(t); err != nil {
			return err
		}
		b.tasks = append(b.tasks, t)
	}
	b.logger.Debug("batch submitted", zap.Int("tasks", len(b.tasks)))
	return nil
}

// Tasks returns a copy of the submitted tasks in submission order.
func (b *Batch) Tasks() []Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Task(nil), b.tasks...)
}

// Done reports whether every submitted task has reached a terminal state.
func (b *Batch) Done() bool {
	return AllTerminal(b.Tasks()...)
}

// Wait blocks until every submitted task has reached a terminal state, then
// returns the joined errors of the tasks that did not finish successfully.
// Returns ctx.Err() if ctx is done first.
func (b *Batch) Wait(ctx context.Context) error {
	tasks := b.Tasks()
	if err := WaitAll(ctx, tasks...); err != nil {
		return err
	}
	err := Failures(tasks...)
	if err != nil {
		b.logger.Debug("batch completed with failures", zap.Int("tasks", len(tasks)), zap.Error(err))
	} else {
		b.logger.Debug("batch completed", zap.Int("tasks", len(tasks)))
	}
	return err
}
