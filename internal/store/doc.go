// Package store provides the SQLite-backed quad store the graph is layered on.
//
// The store is the engine side of the adapter. It knows statements, not
// vertices or edges, and offers a small contract:
//   - AllocateIdentifier: fresh store-assigned URIs for new elements
//   - Tx.Apply: atomically apply a batch of deletions and insertions
//   - Tx.Query: a releasable cursor over statements matching a pattern
//   - Tx.Commit / Tx.Abort: transaction boundaries, commit returns a timestamp
//
// # Critical Patterns
//
// Batch atomicity:
//   - Each Apply runs inside a SAVEPOINT; a failing batch leaves the
//     transaction exactly as it was before the call
//   - Deletions are applied before insertions
//
// Deterministic query results:
//   - All queries ORDER BY id ASC (insertion order)
//   - List-cardinality properties therefore read back in the order written
//
// Commit timestamps:
//   - Milliseconds since the epoch, strictly increasing across commits
//   - Recorded in the commits table with per-commit insert/delete counts
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - Single connection: a Tx owns the connection until Commit or Abort, so
//     Store.Query must not be called while a Tx is open
package store
