package graph

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfgraph/internal/iterator"
	"github.com/roach88/rdfgraph/internal/listener"
	"github.com/roach88/rdfgraph/internal/store"
)

// newTestGraph creates a graph over a temp SQLite store with sequential
// identifiers and a frozen clock. Every notification is recorded.
func newTestGraph(t *testing.T, opts ...Option) (*Graph, *listener.Recorder) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "graph.db"),
		store.WithIDGenerator(store.NewSequenceGenerator()),
		store.WithClock(func() time.Time { return time.UnixMilli(1_700_000_000_000) }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	rec := &listener.Recorder{}
	g := New(SQLite(s), append([]Option{WithListener(rec)}, opts...)...)
	t.Cleanup(func() { g.Close() })
	return g, rec
}

func collect[T any](t *testing.T, it iterator.Iterator[T], err error) []T {
	t.Helper()
	require.NoError(t, err)
	out, err := iterator.Collect(it)
	require.NoError(t, err)
	return out
}

func values(t *testing.T, ctx context.Context, v *Vertex, key string) []any {
	t.Helper()
	it, err := v.Properties(ctx, key)
	props := collect(t, it, err)
	out := make([]any, len(props))
	for i, p := range props {
		out[i] = p.Value()
	}
	return out
}

func mustVertex(t *testing.T, g *Graph, label string, kvs ...any) *Vertex {
	t.Helper()
	v, err := g.AddVertex(context.Background(), label, kvs...)
	require.NoError(t, err)
	return v
}
