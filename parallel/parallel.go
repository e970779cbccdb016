// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package parallel implements vector reductions on top of a [tpool.Pool] by
// splitting the input into contiguous ranges, one task per range, and folding
// the partial results together once every task has finished.
package parallel

import (
	"context"
	"fmt"

	"github.com/petenewcomb/tpool-go"
	"github.com/petenewcomb/tpool-go/internal/cerr"
)

// ErrSizeMismatch is returned when the operands of a reduction differ in
// length. It is reported before any task is submitted.
const ErrSizeMismatch = cerr.Error("vector sizes do not match")

// ErrIncomplete is returned by [Fold] when a partial has not finished
// successfully.
const ErrIncomplete = cerr.Error("partial result is not finished")

// A Range is the half-open interval [Start, End) of vector indices.
type Range struct {
	Start, End int
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Partition splits [0, n) into at most parts contiguous ranges whose lengths
// differ by no more than one. No range is empty, so fewer than parts ranges
// are returned when n < parts.
func Partition(n, parts int) []Range {
	if n <= 0 {
		return nil
	}
	parts = max(1, min(parts, n))
	size, extra := n/parts, n%parts
	ranges := make([]Range, parts)
	start := 0
	for i := range ranges {
		end := start + size
		if i < extra {
			end++
		}
		ranges[i] = Range{Start: start, End: end}
		start = end
	}
	return ranges
}

// ctxCheckInterval is how many elements a partial processes between checks of
// its context.
const ctxCheckInterval = 1 << 14

// A Partial is the task that computes the dot product of one range of two
// vectors. Sum is valid once the task is Finished.
type Partial struct {
	tpool.TaskBase
	Range
	a, b []float64
	Sum  float64
}

func (p *Partial) Run(ctx context.Context) error {
	var sum float64
	for i := p.Start; i < p.End; i++ {
		if (i-p.Start)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		sum += p.a[i] * p.b[i]
	}
	p.Sum = sum
	return nil
}

// NewPartials returns one Pending [Partial] per range of [Partition](len(a),
// parts).
func NewPartials(a, b []float64, parts int) ([]*Partial, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d != %d", ErrSizeMismatch, len(a), len(b))
	}
	ranges := Partition(len(a), parts)
	partials := make([]*Partial, len(ranges))
	for i, r := range ranges {
		p := &Partial{Range: r, a: a, b: b}
		p.SetName(fmt.Sprintf("dot[%d:%d]", r.Start, r.End))
		partials[i] = p
	}
	return partials, nil
}

// Fold adds up the sums of the partials. Every partial must be Finished;
// otherwise Fold returns an error wrapping [ErrIncomplete] and the partial's
// own error.
func Fold(partials []*Partial) (float64, error) {
	total := tpool.NewValidResultHolder(0.0)
	for _, p := range partials {
		if s := p.State(); s != tpool.Finished {
			if err := p.Err(); err != nil {
				return 0, fmt.Errorf("%w: %s is %s: %w", ErrIncomplete, p.Name(), s, err)
			}
			return 0, fmt.Errorf("%w: %s is %s", ErrIncomplete, p.Name(), s)
		}
		if err := total.Add(tpool.NewValidResultHolder(p.Sum)); err != nil {
			return 0, err
		}
	}
	sum, _ := total.Get()
	return sum, nil
}

// Dot returns the dot product of a and b, computed with one task per worker of
// pool.
func Dot(ctx context.Context, pool *tpool.Pool, a, b []float64) (float64, error) {
	partials, err := NewPartials(a, b, pool.NumWorkers())
	if err != nil {
		return 0, err
	}

	tasks := make([]tpool.Task, len(partials))
	for i, p := range partials {
		tasks[i] = p
	}

	batch := pool.NewBatch()
	if err := batch.Submit(tasks...); err != nil {
		return 0, err
	}
	if err := batch.Wait(ctx); err != nil {
		return 0, err
	}
	if !tpool.AllTerminal(tasks...) {
		return 0, ErrIncomplete
	}
	return Fold(partials)
}

// SumSquares returns the dot product of a with itself.
func SumSquares(ctx context.Context, pool *tpool.Pool, a []float64) (float64, error) {
	return Dot(ctx, pool, a, a)
}
