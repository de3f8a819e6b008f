package iterator

import "sync/atomic"

// Tracker counts iterators that have been opened but not yet closed.
// The graph uses it to refuse a commit while cursors are still live.
//
// Thread-safety: Tracker is safe for concurrent use (atomic operations).
type Tracker struct {
	open atomic.Int64
}

// Open returns the number of unreleased tracked iterators.
func (t *Tracker) Open() int64 {
	return t.open.Load()
}

// Track registers it with t. The returned Iterator decrements the count on
// its first Close.
func Track[T any](t *Tracker, it Iterator[T]) Iterator[T] {
	t.open.Add(1)
	return NewCursor(func() (T, bool, error) {
		var zero T
		if !it.Next() {
			return zero, false, it.Err()
		}
		return it.Value(), true, nil
	}, func() error {
		t.open.Add(-1)
		return it.Close()
	})
}
