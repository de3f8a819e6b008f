// Package iterator provides lazy, forward-only result sequences that hold a
// releasable store cursor.
//
// Every Iterator must be closed on every exit path: exhaustion does not
// release the cursor. Derived iterators (Map, Filter, Concat) own their
// sources and release each of them exactly once when closed.
//
// Prefer the consuming helpers, which take ownership and always close:
//
//	for v, err := range iterator.All(it) {
//	    if err != nil {
//	        return err
//	    }
//	    // use v; breaking early still releases the cursor
//	}
//
// Iterators are not safe for concurrent use. Each one belongs to a single
// consumer for its lifetime.
package iterator
