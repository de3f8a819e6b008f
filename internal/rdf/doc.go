// Package rdf provides the statement-level vocabulary shared by the store and
// the graph layer.
//
// This package contains value types only. The store, the graph, and the
// listeners import rdf; rdf imports nothing internal.
//
// Key design constraints:
//   - Statements are quads (subject, predicate, object, context). An empty
//     context is the default graph.
//   - Keys and labels are NFC normalised before escaping so that canonically
//     equivalent spellings map to one predicate. Literal values are stored
//     exactly as given.
//   - Rendering uses N-Quads syntax, one statement per line.
package rdf
