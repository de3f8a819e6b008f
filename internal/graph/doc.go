// Package graph is a property graph layered over an RDF quad store.
//
// Vertices, edges and properties are handles over store identifiers. Every
// write is translated into one batch of statement insertions and deletions
// and reported to listeners as one Edit.
//
// Mapping, with N the store namespace:
//
//	vertex v labelled L          (v, N label, "L")
//	edge e: a -L-> b             (a, N edge/L, b, e)
//	vertex property p: k = x     (v, N prop/k, x, p)
//	meta-property on p: k = x    (p, N prop/k, x)
//	edge property: k = x         (e, N prop/k, x)
//
// # Critical Patterns
//
// Cardinality: vertex property writes resolve against the existing values
// for the key. Single replaces, Set skips equal values, List appends. The
// removal of old values and the insertion of the new one are one batch.
//
// Cascading removal: removing a vertex removes its properties, their
// meta-properties, and every incident edge with its properties. Removing a
// vertex property removes its meta-properties. Each is a single Edit.
//
// Transactions: the first read or write opens a store transaction. Commit
// and Rollback end it and notify listeners once, after every Edit of the
// transaction. A transaction without changes ends silently.
//
// Iterators: every multi-result read returns an iterator.Iterator that must
// be closed. Commit and Rollback fail with ErrOpenIterators while any is
// open, because the store cannot end a transaction under a live cursor.
//
// Validation: malformed keys, values and key/value lists are rejected
// before the store is touched, so a failed call changes nothing.
//
// Self-loops: a vertex's neighbor across an edge is the in-vertex when the
// vertex is the out-vertex, else the out-vertex. A self-loop therefore
// yields the vertex itself.
package graph
