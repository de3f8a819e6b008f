package listener

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// Bus fans notifications out to registered listeners.
//
// Thread-safety: Register, removal and the Notify methods may be called
// concurrently. Notifications are delivered to the registry snapshot taken
// when the notification starts.
type Bus struct {
	mu       sync.Mutex // serialises registry writers
	entries  atomic.Pointer[[]*entry]
	failures atomic.Int64
}

// entry gives each registration its own identity so the same listener can
// be registered twice and removed independently.
type entry struct {
	l Listener
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	b := &Bus{}
	b.entries.Store(&[]*entry{})
	return b
}

// Register adds l to the end of the delivery order. The returned function
// removes this registration; calling it more than once is harmless.
func (b *Bus) Register(l Listener) (remove func()) {
	e := &entry{l: l}

	b.mu.Lock()
	cur := *b.entries.Load()
	next := make([]*entry, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, e)
	b.entries.Store(&next)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unregister(e) })
	}
}

func (b *Bus) unregister(e *entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := *b.entries.Load()
	next := make([]*entry, 0, len(cur))
	for _, x := range cur {
		if x != e {
			next = append(next, x)
		}
	}
	b.entries.Store(&next)
}

// Len returns the number of registrations.
func (b *Bus) Len() int {
	return len(*b.entries.Load())
}

// Failures returns the number of listener calls that panicked.
func (b *Bus) Failures() int64 {
	return b.failures.Load()
}

// NotifyEdit delivers an edit to every listener. Each listener receives
// its own copy of Deltas.
func (b *Bus) NotifyEdit(edit Edit) {
	rendering := edit.Rendering()
	for _, e := range *b.entries.Load() {
		own := edit
		own.Deltas = slices.Clone(edit.Deltas)
		b.deliver("graph edited", func() { e.l.GraphEdited(own, rendering) }, slog.Any("edit", edit))
	}
}

// NotifyCommit delivers a commit boundary to every listener.
func (b *Bus) NotifyCommit(commitTime int64) {
	for _, e := range *b.entries.Load() {
		b.deliver("transaction committed", func() { e.l.TransactionCommitted(commitTime) }, slog.Int64("commit_time", commitTime))
	}
}

// NotifyAbort delivers an abort boundary to every listener.
func (b *Bus) NotifyAbort() {
	for _, e := range *b.entries.Load() {
		b.deliver("transaction aborted", e.l.TransactionAborted)
	}
}

func (b *Bus) deliver(event string, call func(), attrs ...any) {
	defer func() {
		if r := recover(); r != nil {
			b.failures.Add(1)
			args := append([]any{"event", event, "panic", fmt.Sprint(r)}, attrs...)
			slog.Error("listener failed", args...)
		}
	}()
	call()
}
