package iterator

import (
	"errors"
	"iter"
)

// Iterator is a lazy sequence backed by a releasable resource.
//
// Usage follows database/sql.Rows: call Next until it returns false, read
// Value after each successful Next, check Err, and always Close.
type Iterator[T any] interface {
	// Next advances to the next element. Returns false on exhaustion,
	// failure, or after Close.
	Next() bool

	// Value returns the current element. Only valid after Next returned true.
	Value() T

	// Err returns the first failure encountered while iterating.
	Err() error

	// Close releases the underlying resource. Safe to call more than once;
	// only the first call releases anything.
	Close() error
}

// once guards a release function so it runs at most one time.
type once struct {
	release func() error
	done    bool
}

func (o *once) close() error {
	if o.done {
		return nil
	}
	o.done = true
	if o.release == nil {
		return nil
	}
	return o.release()
}

// Cursor adapts a pull function and a release function into an Iterator.
// Store cursors are built on top of it.
type Cursor[T any] struct {
	pull    func() (T, bool, error)
	current T
	err     error
	done    bool
	closer  once
}

// NewCursor creates an Iterator from pull and release. pull returns the next
// element, false when exhausted, or an error. release is called once on Close.
func NewCursor[T any](pull func() (T, bool, error), release func() error) *Cursor[T] {
	return &Cursor[T]{pull: pull, closer: once{release: release}}
}

func (c *Cursor[T]) Next() bool {
	if c.done || c.err != nil || c.closer.done {
		return false
	}
	v, ok, err := c.pull()
	if err != nil {
		c.err = err
		return false
	}
	if !ok {
		c.done = true
		return false
	}
	c.current = v
	return true
}

func (c *Cursor[T]) Value() T {
	return c.current
}

func (c *Cursor[T]) Err() error {
	return c.err
}

func (c *Cursor[T]) Close() error {
	return c.closer.close()
}

// FromSlice returns an Iterator over items. It holds no resource.
func FromSlice[T any](items []T) Iterator[T] {
	i := 0
	return NewCursor(func() (T, bool, error) {
		var zero T
		if i >= len(items) {
			return zero, false, nil
		}
		v := items[i]
		i++
		return v, true, nil
	}, nil)
}

// Empty returns an exhausted Iterator.
func Empty[T any]() Iterator[T] {
	return FromSlice[T](nil)
}

// Map derives an Iterator by applying fn to each element of src. Closing the
// result closes src exactly once. If fn fails, iteration stops with that error.
func Map[T, U any](src Iterator[T], fn func(T) (U, error)) Iterator[U] {
	return NewCursor(func() (U, bool, error) {
		var zero U
		if !src.Next() {
			return zero, false, src.Err()
		}
		u, err := fn(src.Value())
		if err != nil {
			return zero, false, err
		}
		return u, true, nil
	}, src.Close)
}

// Filter derives an Iterator yielding only elements accepted by keep.
// Closing the result closes src exactly once.
func Filter[T any](src Iterator[T], keep func(T) bool) Iterator[T] {
	return NewCursor(func() (T, bool, error) {
		var zero T
		for src.Next() {
			if v := src.Value(); keep(v) {
				return v, true, nil
			}
		}
		return zero, false, src.Err()
	}, src.Close)
}

// Concat yields the elements of each source in order. Closing the result
// closes every source exactly once, including ones not yet reached.
func Concat[T any](srcs ...Iterator[T]) Iterator[T] {
	idx := 0
	return NewCursor(func() (T, bool, error) {
		var zero T
		for idx < len(srcs) {
			if srcs[idx].Next() {
				return srcs[idx].Value(), true, nil
			}
			if err := srcs[idx].Err(); err != nil {
				return zero, false, err
			}
			idx++
		}
		return zero, false, nil
	}, func() error {
		var errs []error
		for _, s := range srcs {
			if err := s.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Collect drains it into a slice and closes it.
// Returns an empty slice (not nil) when there are no elements.
func Collect[T any](it Iterator[T]) ([]T, error) {
	defer it.Close()

	out := []T{}
	for it.Next() {
		out = append(out, it.Value())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, it.Close()
}

// All takes ownership of it and exposes it as a range-over-func sequence.
// The iterator is closed when the loop finishes, breaks, or fails. A failure
// (including a failed Close) is yielded once as (zero, err).
func All[T any](it Iterator[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for it.Next() {
			if !yield(it.Value(), nil) {
				it.Close()
				return
			}
		}
		var zero T
		if err := it.Err(); err != nil {
			it.Close()
			yield(zero, err)
			return
		}
		if err := it.Close(); err != nil {
			yield(zero, err)
		}
	}
}

// First returns the first element and closes it. ok is false when empty.
func First[T any](it Iterator[T]) (v T, ok bool, err error) {
	defer it.Close()

	if it.Next() {
		return it.Value(), true, it.Close()
	}
	if err := it.Err(); err != nil {
		return v, false, err
	}
	return v, false, it.Close()
}
