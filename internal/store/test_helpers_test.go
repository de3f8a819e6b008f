package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/rdfgraph/internal/rdf"
)

// createTestStore creates a new on-disk store in a temp directory with
// sequential identifiers.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	opts = append([]Option{WithIDGenerator(NewSequenceGenerator())}, opts...)
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedClock always returns the same instant.
func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

// prop builds a vertex property statement.
func prop(subject, key string, value any, ctx string) rdf.Statement {
	return rdf.Statement{
		Subject:   rdf.URI(subject),
		Predicate: rdf.DefaultNamespace.Key(key),
		Object:    rdf.MustLiteral(value),
		Context:   rdf.URI(ctx),
	}
}
