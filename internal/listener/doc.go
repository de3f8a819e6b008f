// Package listener delivers graph mutation notifications to observers.
//
// Every graph-level write produces exactly one Edit. The graph hands each
// Edit to a Bus, which calls every registered Listener synchronously, in the
// order the writes were issued. Transaction boundaries arrive afterwards as
// TransactionCommitted or TransactionAborted.
//
// # Critical Patterns
//
// Snapshot dispatch: the registry is replaced wholesale on Register and on
// removal. A notification reads one snapshot and delivers to it, so a
// registration racing with an in-flight notification never observes a
// half-updated set.
//
// Failure isolation: a panicking listener is recovered, logged with
// slog.Error and counted. Delivery continues with the next listener and the
// graph operation that produced the Edit still succeeds, because its store
// write has already been applied.
//
// Optional boundaries: embed Base to get no-op TransactionCommitted and
// TransactionAborted. GraphEdited has no default.
package listener
