package listener

// Listener observes graph mutations.
//
// GraphEdited is called once per graph-level mutation with the Edit and its
// raw rendering. TransactionCommitted and TransactionAborted are called once
// per transaction boundary, after every Edit of that transaction.
//
// Calls happen synchronously on the writer's goroutine while the graph is
// locked. A listener must not call back into the graph.
type Listener interface {
	GraphEdited(edit Edit, rendering string)
	TransactionCommitted(commitTime int64)
	TransactionAborted()
}

// Base provides no-op transaction boundary methods. Embed it in listeners
// that only care about edits.
type Base struct{}

// TransactionCommitted does nothing.
func (Base) TransactionCommitted(int64) {}

// TransactionAborted does nothing.
func (Base) TransactionAborted() {}

// Func adapts a function to a Listener that ignores transaction boundaries.
type Func func(edit Edit, rendering string)

// GraphEdited calls f.
func (f Func) GraphEdited(edit Edit, rendering string) { f(edit, rendering) }

// TransactionCommitted does nothing.
func (Func) TransactionCommitted(int64) {}

// TransactionAborted does nothing.
func (Func) TransactionAborted() {}
