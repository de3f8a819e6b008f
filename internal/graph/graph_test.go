package graph

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfgraph/internal/config"
	"github.com/roach88/rdfgraph/internal/listener"
	"github.com/roach88/rdfgraph/internal/rdf"
	"github.com/roach88/rdfgraph/internal/store"
)

func TestEdits_OnePerMutationThenCommit(t *testing.T) {
	ctx := context.Background()
	g, rec := newTestGraph(t)

	a := mustVertex(t, g, "person")
	b := mustVertex(t, g, "person")
	_, err := a.SetProperty(ctx, "name", "Alice")
	require.NoError(t, err)
	_, err = a.AddEdge(ctx, "knows", b)
	require.NoError(t, err)

	ts, err := g.Commit(ctx)
	require.NoError(t, err)

	events := rec.Events()
	require.Len(t, events, 5)
	kinds := []listener.Kind{listener.KindVertex, listener.KindVertex, listener.KindVertexProperty, listener.KindEdge}
	for i, k := range kinds {
		assert.Equal(t, listener.EventEdit, events[i].Type)
		assert.Equal(t, k, events[i].Edit.Kind)
		assert.Equal(t, int64(i+1), events[i].Edit.Seq)
		assert.Equal(t, events[i].Edit.Rendering(), events[i].Rendering)
	}
	assert.Equal(t, listener.EventCommit, events[4].Type)
	assert.Equal(t, ts, events[4].CommitTime)
	assert.Equal(t, int64(1_700_000_000_000), ts)
}

func TestCommit_WithoutChangesIsSilent(t *testing.T) {
	ctx := context.Background()
	g, rec := newTestGraph(t)

	ts, err := g.Commit(ctx)
	require.NoError(t, err)
	assert.Zero(t, ts)

	// A read opens a transaction but changes nothing.
	it, err := g.Vertices(ctx)
	collect(t, it, err)
	_, err = g.Commit(ctx)
	require.NoError(t, err)
	require.NoError(t, g.Rollback(ctx))

	assert.Empty(t, rec.Events())
}

func TestCommit_TimestampsIncrease(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t)

	var last int64
	for i := 0; i < 3; i++ {
		mustVertex(t, g, "thing")
		ts, err := g.Commit(ctx)
		require.NoError(t, err)
		assert.Greater(t, ts, last)
		last = ts
	}
}

func TestCommit_RefusedWhileIteratorsOpen(t *testing.T) {
	ctx := context.Background()
	g, rec := newTestGraph(t)
	mustVertex(t, g, "thing")

	it, err := g.Vertices(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), g.OpenIterators())

	_, err = g.Commit(ctx)
	assert.ErrorIs(t, err, ErrOpenIterators)
	assert.ErrorIs(t, g.Rollback(ctx), ErrOpenIterators)

	require.True(t, it.Next())
	require.NoError(t, it.Close())
	assert.Zero(t, g.OpenIterators())

	_, err = g.Commit(ctx)
	require.NoError(t, err)
	events := rec.Events()
	assert.Equal(t, listener.EventCommit, events[len(events)-1].Type)
}

func TestRollback_DiscardsAndNotifies(t *testing.T) {
	ctx := context.Background()
	g, rec := newTestGraph(t)

	kept := mustVertex(t, g, "kept")
	_, err := g.Commit(ctx)
	require.NoError(t, err)

	mustVertex(t, g, "discarded")
	_, err = kept.SetProperty(ctx, "k", "v")
	require.NoError(t, err)
	require.NoError(t, g.Rollback(ctx))

	events := rec.Events()
	assert.Equal(t, listener.EventAbort, events[len(events)-1].Type)
	assert.Equal(t, listener.EventEdit, events[len(events)-2].Type, "edits delivered before the abort")

	it, err := g.Vertices(ctx)
	vs := collect(t, it, err)
	require.Len(t, vs, 1)
	assert.True(t, vs[0].Equal(kept))

	missing, err := kept.Property(ctx, "k")
	require.NoError(t, err)
	assert.False(t, missing.Present())
}

func TestListeners_FailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	g, rec := newTestGraph(t)
	remove := g.AddListener(listener.Func(func(listener.Edit, string) { panic("listener bug") }))
	assert.Equal(t, 2, g.Listeners())

	v, err := g.AddVertex(ctx, "thing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), g.ListenerFailures())
	assert.Len(t, rec.Edits(), 1, "other listeners still notified")

	remove()
	assert.Equal(t, 1, g.Listeners())
	_, err = v.SetProperty(ctx, "k", "v")
	require.NoError(t, err)
	assert.Equal(t, int64(1), g.ListenerFailures())
}

func TestListeners_AddedMidTransaction(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t)
	mustVertex(t, g, "before")

	late := &listener.Recorder{}
	g.AddListener(late)
	mustVertex(t, g, "after")
	_, err := g.Commit(ctx)
	require.NoError(t, err)

	events := late.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "after", events[0].Edit.Label)
	assert.Equal(t, listener.EventCommit, events[1].Type)
}

// failingEngine fails every transaction.
type failingEngine struct {
	err error
}

func (f failingEngine) Namespace() rdf.Namespace { return rdf.DefaultNamespace }
func (f failingEngine) AllocateIdentifier(label string) rdf.URI { return rdf.DefaultNamespace.Identifier(label, "x") }
func (f failingEngine) Begin(context.Context) (Tx, error) { return nil, f.err }
func (f failingEngine) LastCommit() int64 { return 0 }
func (f failingEngine) LastSequence() int64 { return 0 }
func (f failingEngine) Close() error { return nil }

func TestStoreFailure_SurfacedUnmodified(t *testing.T) {
	cause := errors.New("database is locked")
	rec := &listener.Recorder{}
	g := New(failingEngine{err: cause}, WithListener(rec))

	_, err := g.AddVertex(context.Background(), "thing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, rec.Events())
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	g, rec := newTestGraph(t)
	mustVertex(t, g, "thing")

	require.NoError(t, g.Close())
	require.NoError(t, g.Close())

	events := rec.Events()
	assert.Equal(t, listener.EventAbort, events[len(events)-1].Type)

	_, err := g.AddVertex(ctx, "thing")
	assert.ErrorIs(t, err, ErrStoreFailure)
}

func TestOpen_FromConfig(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Database = filepath.Join(t.TempDir(), "cfg.db")
	cfg.Namespace = "urn:people:"
	cfg.Cardinality.Keys = map[string]string{"nickname": "set"}

	g, err := Open(cfg, []store.Option{store.WithIDGenerator(store.NewSequenceGenerator())})
	require.NoError(t, err)

	v, err := g.AddVertex(ctx, "person", "nickname", "al", "nickname", "al", "nickname", "ally")
	require.NoError(t, err)
	assert.Equal(t, rdf.URI("urn:people:id/person/1"), v.ID())
	assert.Equal(t, Set, g.Cardinality("nickname"))
	assert.Equal(t, Single, g.Cardinality("name"))
	assert.Len(t, values(t, ctx, v, "nickname"), 2)

	_, err = g.Commit(ctx)
	require.NoError(t, err)
	require.NoError(t, g.Close())

	// Reopen and read back.
	g2, err := Open(cfg, nil)
	require.NoError(t, err)
	defer g2.Close()
	got, err := g2.Vertex(ctx, v.ID())
	require.NoError(t, err)
	assert.Equal(t, "person", got.Label())
}

func TestOpen_ResumesEditSequence(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Database = filepath.Join(t.TempDir(), "seq.db")

	g, err := Open(cfg, nil)
	require.NoError(t, err)
	v, err := g.AddVertex(ctx, "person")
	require.NoError(t, err)
	_, err = v.SetProperty(ctx, "name", "Alice")
	require.NoError(t, err)
	_, err = g.Commit(ctx)
	require.NoError(t, err)

	// Rolled back: its number is not recorded.
	_, err = g.AddVertex(ctx, "person")
	require.NoError(t, err)
	require.NoError(t, g.Rollback(ctx))
	require.NoError(t, g.Close())

	rec := &listener.Recorder{}
	g2, err := Open(cfg, nil, WithListener(rec))
	require.NoError(t, err)
	defer g2.Close()

	_, err = g2.AddVertex(ctx, "person")
	require.NoError(t, err)
	edits := rec.Edits()
	require.Len(t, edits, 1)
	assert.Equal(t, int64(3), edits[0].Seq)
}

func TestWithClock(t *testing.T) {
	g, rec := newTestGraph(t, WithClock(NewClock(100)))

	mustVertex(t, g, "thing")
	mustVertex(t, g, "thing")

	edits := rec.Edits()
	require.Len(t, edits, 2)
	assert.Equal(t, int64(101), edits[0].Seq)
	assert.Equal(t, int64(102), edits[1].Seq)
}

func TestOpen_BadCardinality(t *testing.T) {
	cfg := config.Default()
	cfg.Database = filepath.Join(t.TempDir(), "cfg.db")
	cfg.Cardinality.Default = "bag"

	_, err := Open(cfg, nil)
	assert.ErrorIs(t, err, ErrUnsupportedCardinality)
}

func TestGolden_EditRenderings(t *testing.T) {
	ctx := context.Background()
	g, rec := newTestGraph(t)

	a, err := g.AddVertex(ctx, "person", "name", "Alice")
	require.NoError(t, err)
	b := mustVertex(t, g, "person")
	_, err = a.AddEdge(ctx, "knows", b, "since", 2020)
	require.NoError(t, err)
	_, err = a.PropertyWith(ctx, Single, "name", "Bob")
	require.NoError(t, err)
	require.NoError(t, a.Remove(ctx))
	_, err = g.Commit(ctx)
	require.NoError(t, err)

	var out strings.Builder
	for _, ev := range rec.Events() {
		switch ev.Type {
		case listener.EventEdit:
			fmt.Fprintf(&out, "# %d %s %s\n%s\n", ev.Edit.Seq, ev.Edit.Action, ev.Edit.Kind, ev.Rendering)
		case listener.EventCommit:
			fmt.Fprintf(&out, "# commit\n")
		case listener.EventAbort:
			fmt.Fprintf(&out, "# abort\n")
		}
	}

	gold := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	gold.Assert(t, "edit_renderings", []byte(out.String()))
}
