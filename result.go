// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package tpool

import (
	"context"
	"sync"
	"time"

	"github.com/petenewcomb/tpool-go/internal/timerp"
)

// Number is the set of types a [ResultHolder] can hold.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64 |
		~complex64 | ~complex128
}

// A ResultHolder is a numeric value tagged with a validity flag. Workers, or
// the goroutine that collects their partial results, fill a holder in and
// mark it valid; consumers either check [ResultHolder.Get] or block in
// [ResultHolder.GetOrWait] until the value becomes valid.
//
// A ResultHolder is safe for concurrent use, but the order in which
// concurrent writers combine into it is up to the caller. The zero value is
// an invalid holder of zero. A ResultHolder must not be copied after first
// use.
type ResultHolder[T Number] struct {
	mu    sync.Mutex
	value T
	valid bool

	// ready is closed while the holder is valid. Invalidate drops it so that
	// the next waiter gets a fresh open channel.
	ready chan struct{}
}

// NewResultHolder returns an invalid holder of zero.
func NewResultHolder[T Number]() *ResultHolder[T] {
	return &ResultHolder[T]{}
}

// NewValidResultHolder returns a holder that is already valid and holds v.
func NewValidResultHolder[T Number](v T) *ResultHolder[T] {
	h := &ResultHolder[T]{value: v}
	h.Validate()
	return h
}

func (h *ResultHolder[T]) setValidLocked(valid bool) {
	if h.valid == valid {
		return
	}
	h.valid = valid
	switch {
	case !valid:
		h.ready = nil
	case h.ready != nil:
		close(h.ready)
	}
}

// snapshot returns the value, its validity, and a channel that is closed once
// the holder is valid.
func (h *ResultHolder[T]) snapshot() (T, bool, <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ready == nil {
		h.ready = make(chan struct{})
		if h.valid {
			close(h.ready)
		}
	}
	return h.value, h.valid, h.ready
}

// Validate marks the current value valid and wakes any waiters.
func (h *ResultHolder[T]) Validate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setValidLocked(true)
}

// Invalidate marks the value invalid. If reinit is true the value is also
// reset to zero.
func (h *ResultHolder[T]) Invalidate(reinit bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if reinit {
		var zero T
		h.value = zero
	}
	h.setValidLocked(false)
}

func (h *ResultHolder[T]) IsValid() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.valid
}

// Set replaces the value without changing its validity.
func (h *ResultHolder[T]) Set(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.value = v
}

// Get returns the current value and whether it is valid.
func (h *ResultHolder[T]) Get() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value, h.valid
}

// GetOrWait blocks until the holder is valid and returns its value. If ctx is
// done first it returns the current value and validity along with
// ctx.Err().
func (h *ResultHolder[T]) GetOrWait(ctx context.Context) (T, bool, error) {
	for {
		v, ok, ready := h.snapshot()
		if ok {
			return v, true, nil
		}
		select {
		case <-ready:
		case <-ctx.Done():
			v, ok := h.Get()
			return v, ok, ctx.Err()
		}
	}
}

// GetOrWaitFor waits at most d for the holder to become valid and then
// returns its value and validity.
func (h *ResultHolder[T]) GetOrWaitFor(d time.Duration) (T, bool) {
	timer := timerp.Get(d)
	defer timerp.Put(timer)
	for {
		v, ok, ready := h.snapshot()
		if ok {
			return v, true
		}
		select {
		case <-ready:
		case <-timer.C:
			return h.Get()
		}
	}
}

// combine applies op to the receiver's value and a snapshot of other's.
// Snapshotting first keeps h.Add(h) from taking the same lock twice.
func (h *ResultHolder[T]) combine(other *ResultHolder[T], op func(a, b T) (T, error)) error {
	b, ok := other.Get()
	if !ok {
		return ErrInvalidOperand
	}
	return h.apply(b, op)
}

func (h *ResultHolder[T]) apply(b T, op func(a, b T) (T, error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, err := op(h.value, b)
	if err != nil {
		return err
	}
	h.value = v
	return nil
}

func add[T Number](a, b T) (T, error) { return a + b, nil }
func sub[T Number](a, b T) (T, error) { return a - b, nil }
func mul[T Number](a, b T) (T, error) { return a * b, nil }

func div[T Number](a, b T) (T, error) {
	var zero T
	if b == zero {
		return zero, ErrDivideByZero
	}
	return a / b, nil
}

// Add adds other's value to the receiver. Returns [ErrInvalidOperand], leaving
// the receiver unchanged, if other is not valid. The receiver's validity is
// not changed.
func (h *ResultHolder[T]) Add(other *ResultHolder[T]) error {
	return h.combine(other, add[T])
}

func (h *ResultHolder[T]) Sub(other *ResultHolder[T]) error {
	return h.combine(other, sub[T])
}

func (h *ResultHolder[T]) Mul(other *ResultHolder[T]) error {
	return h.combine(other, mul[T])
}

// Div divides the receiver by other's value. Returns [ErrDivideByZero] if
// other holds zero.
func (h *ResultHolder[T]) Div(other *ResultHolder[T]) error {
	return h.combine(other, div[T])
}

func (h *ResultHolder[T]) AddScalar(v T) {
	_ = h.apply(v, add[T])
}

func (h *ResultHolder[T]) SubScalar(v T) {
	_ = h.apply(v, sub[T])
}

func (h *ResultHolder[T]) MulScalar(v T) {
	_ = h.apply(v, mul[T])
}

func (h *ResultHolder[T]) DivScalar(v T) error {
	return h.apply(v, div[T])
}
