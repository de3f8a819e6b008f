package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfgraph/internal/listener"
	"github.com/roach88/rdfgraph/internal/rdf"
)

func TestScenario_SingleValueReplaced(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t)

	a := mustVertex(t, g, "person")
	_, err := a.PropertyWith(ctx, Single, "name", "Alice")
	require.NoError(t, err)

	vp, err := a.Property(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, "Alice", vp.Value())

	_, err = a.PropertyWith(ctx, Single, "name", "Bob")
	require.NoError(t, err)

	assert.Equal(t, []any{"Bob"}, values(t, ctx, a, "name"))
}

func TestScenario_OutNeighbors(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t)

	a := mustVertex(t, g, "person")
	b := mustVertex(t, g, "person")
	_, err := a.AddEdge(ctx, "knows", b)
	require.NoError(t, err)

	it, err := a.Vertices(ctx, Out)
	got := collect(t, it, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(b))
	assert.Equal(t, "person", got[0].Label())

	it, err = b.Vertices(ctx, Out)
	assert.Empty(t, collect(t, it, err))

	it, err = b.Vertices(ctx, In)
	got = collect(t, it, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(a))
}

func TestSingle_ReplacesEveryPriorValue(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t)
	v := mustVertex(t, g, "thing")

	for _, x := range []string{"a", "b", "a", "c"} {
		_, err := v.PropertyWith(ctx, List, "tag", x)
		require.NoError(t, err)
	}
	require.Len(t, values(t, ctx, v, "tag"), 4)

	_, err := v.PropertyWith(ctx, Single, "tag", "z")
	require.NoError(t, err)
	assert.Equal(t, []any{"z"}, values(t, ctx, v, "tag"))
}

func TestSet_DeduplicatesValues(t *testing.T) {
	ctx := context.Background()
	g, rec := newTestGraph(t)
	v := mustVertex(t, g, "thing")

	first, err := v.PropertyWith(ctx, Set, "tag", "x")
	require.NoError(t, err)
	edits := len(rec.Edits())

	again, err := v.PropertyWith(ctx, Set, "tag", "x")
	require.NoError(t, err)
	assert.Equal(t, first.ID(), again.ID(), "existing property returned")
	assert.Len(t, values(t, ctx, v, "tag"), 1)
	assert.Len(t, rec.Edits(), edits, "no-op emits no edit")

	_, err = v.PropertyWith(ctx, Set, "tag", "y")
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y"}, values(t, ctx, v, "tag"))
}

func TestSet_ComparesValuesByteForByte(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t)
	v := mustVertex(t, g, "thing")

	// Canonically equivalent but distinct strings are distinct values.
	_, err := v.PropertyWith(ctx, Set, "word", "caf\u00e9")
	require.NoError(t, err)
	_, err = v.PropertyWith(ctx, Set, "word", "cafe\u0301")
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"caf\u00e9", "cafe\u0301"}, values(t, ctx, v, "word"))
}

func TestList_KeepsDuplicates(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t)
	v := mustVertex(t, g, "thing")

	p1, err := v.PropertyWith(ctx, List, "tag", "x")
	require.NoError(t, err)
	p2, err := v.PropertyWith(ctx, List, "tag", "x")
	require.NoError(t, err)

	assert.NotEqual(t, p1.ID(), p2.ID())
	assert.Equal(t, []any{"x", "x"}, values(t, ctx, v, "tag"))
}

func TestProperty_Lookup(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t)
	v := mustVertex(t, g, "thing")

	empty, err := v.Property(ctx, "tag")
	require.NoError(t, err)
	assert.False(t, empty.Present())
	assert.Nil(t, empty.Value())
	assert.Equal(t, "vp[empty]", empty.String())

	_, err = v.PropertyWith(ctx, List, "tag", "x")
	require.NoError(t, err)
	one, err := v.Property(ctx, "tag")
	require.NoError(t, err)
	assert.True(t, one.Present())
	assert.Equal(t, "vp[tag->x]", one.String())
	assert.True(t, one.Element().Equal(v))

	_, err = v.PropertyWith(ctx, List, "tag", "y")
	require.NoError(t, err)
	_, err = v.Property(ctx, "tag")
	assert.ErrorIs(t, err, ErrMultipleProperties)
}

func TestSetProperty_UsesPolicy(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t, WithCardinality(CardinalityPolicy{
		Default: Single,
		Keys:    map[string]Cardinality{"alias": List},
	}))
	v := mustVertex(t, g, "person")

	for _, x := range []string{"a", "a"} {
		_, err := v.SetProperty(ctx, "alias", x)
		require.NoError(t, err)
		_, err = v.SetProperty(ctx, "name", x)
		require.NoError(t, err)
	}
	assert.Len(t, values(t, ctx, v, "alias"), 2)
	assert.Len(t, values(t, ctx, v, "name"), 1)
	assert.Equal(t, List, g.Cardinality("alias"))
}

func TestProperty_TypedValues(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t)
	v := mustVertex(t, g, "thing")

	inputs := map[string]any{
		"s":   "text",
		"b":   true,
		"i":   42,
		"i64": int64(1) << 40,
		"i32": int32(-7),
		"f":   2.5,
		"f32": float32(0.25),
		"u":   uint(9),
		"u32": uint32(5),
		"u16": uint16(512),
		"u8":  uint8(200),
		"u64": uint64(1) << 63,
	}
	for k, x := range inputs {
		_, err := v.SetProperty(ctx, k, x)
		require.NoError(t, err)
	}
	for k, want := range inputs {
		got, err := v.Value(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, want, got, k)
	}
}

func TestPropertyWith_Validation(t *testing.T) {
	ctx := context.Background()
	g, rec := newTestGraph(t)
	v := mustVertex(t, g, "thing")
	_, err := v.SetProperty(ctx, "keep", "me")
	require.NoError(t, err)
	before := len(rec.Edits())

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"empty key", func() error { _, err := v.SetProperty(ctx, "", "x"); return err }, ErrInvalidProperty},
		{"nil value", func() error { _, err := v.SetProperty(ctx, "k", nil); return err }, ErrInvalidProperty},
		{"unsupported value", func() error { _, err := v.SetProperty(ctx, "k", struct{}{}); return err }, ErrInvalidProperty},
		{"odd kvs", func() error { _, err := v.SetProperty(ctx, "k", "x", "since"); return err }, ErrInvalidProperty},
		{"non-string meta key", func() error { _, err := v.SetProperty(ctx, "k", "x", 7, "y"); return err }, ErrInvalidProperty},
		{"user id", func() error { _, err := v.SetProperty(ctx, "keep", "other", ID, "urn:mine"); return err }, ErrUserSuppliedID},
		{"bad cardinality", func() error { _, err := v.PropertyWith(ctx, Cardinality(5), "keep", "x"); return err }, ErrUnsupportedCardinality},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidationError(err))
		})
	}

	assert.Equal(t, []any{"me"}, values(t, ctx, v, "keep"), "property set unchanged")
	assert.Len(t, rec.Edits(), before, "failed writes emit nothing")
}

func TestMetaProperties(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t)
	v := mustVertex(t, g, "person")

	vp, err := v.PropertyWith(ctx, List, "name", "Alice", "since", 2020, "source", "census")
	require.NoError(t, err)

	since, err := vp.Property(ctx, "since")
	require.NoError(t, err)
	assert.Equal(t, 2020, since.Value())
	assert.Equal(t, "p[since->2020]", since.String())

	_, err = vp.SetProperty(ctx, "since", 2021)
	require.NoError(t, err)
	it, err := vp.Properties(ctx)
	metas := collect(t, it, err)
	require.Len(t, metas, 2)

	got := map[string]any{}
	for _, m := range metas {
		got[m.Key()] = m.Value()
		assert.Same(t, vp, m.Element())
	}
	assert.Equal(t, map[string]any{"since": 2021, "source": "census"}, got)

	assert.ErrorIs(t, since.Remove(ctx), ErrElementRemoved, "stale handle names the replaced value")
}

func TestMetaProperties_RemovedWithOwner(t *testing.T) {
	ctx := context.Background()
	g, rec := newTestGraph(t)
	v := mustVertex(t, g, "person")

	vp, err := v.PropertyWith(ctx, Single, "name", "Alice", "since", 2020)
	require.NoError(t, err)
	_, err = v.PropertyWith(ctx, Single, "name", "Bob")
	require.NoError(t, err)

	edits := rec.Edits()
	last := edits[len(edits)-1]
	assert.Len(t, last.Deltas, 3, "old value, its meta-property, new value")

	_, err = vp.Property(ctx, "since")
	assert.ErrorIs(t, err, ErrElementRemoved)
}

func TestVertexProperty_Remove(t *testing.T) {
	ctx := context.Background()
	g, rec := newTestGraph(t)
	v := mustVertex(t, g, "person")

	vp, err := v.PropertyWith(ctx, List, "tag", "x", "weight", 1.5)
	require.NoError(t, err)
	_, err = v.PropertyWith(ctx, List, "tag", "y")
	require.NoError(t, err)

	require.NoError(t, vp.Remove(ctx))
	assert.Equal(t, []any{"y"}, values(t, ctx, v, "tag"))

	edits := rec.Edits()
	last := edits[len(edits)-1]
	assert.Equal(t, listener.ActionRemove, last.Action)
	assert.Equal(t, listener.KindVertexProperty, last.Kind)
	assert.Equal(t, vp.ID(), last.Property)
	assert.Len(t, last.Deltas, 2)

	assert.ErrorIs(t, vp.Remove(ctx), ErrElementRemoved)
	assert.NoError(t, (&VertexProperty{}).Remove(ctx), "empty property")
}

func TestAddVertex(t *testing.T) {
	ctx := context.Background()
	g, rec := newTestGraph(t)

	v, err := g.AddVertex(ctx, "", "name", "Alice", "age", 30)
	require.NoError(t, err)
	assert.Equal(t, DefaultVertexLabel, v.Label())
	assert.Equal(t, rdf.URI("urn:rdfgraph:id/vertex/1"), v.ID())
	assert.Equal(t, "v[urn:rdfgraph:id/vertex/1]", v.String())

	age, err := v.Value(ctx, "age")
	require.NoError(t, err)
	assert.Equal(t, 30, age)

	edits := rec.Edits()
	require.Len(t, edits, 1, "one edit for the vertex and its properties")
	assert.Equal(t, listener.KindVertex, edits[0].Kind)
	assert.Len(t, edits[0].Deltas, 3)

	_, err = g.AddVertex(ctx, "person", ID, "urn:mine")
	assert.ErrorIs(t, err, ErrUserSuppliedID)
	assert.Len(t, rec.Edits(), 1)
}

func TestAddVertex_DuplicateKeysFollowCardinality(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t, WithCardinality(CardinalityPolicy{Keys: map[string]Cardinality{"tag": Set}}))

	v, err := g.AddVertex(ctx, "thing", "name", "a", "name", "b", "tag", "x", "tag", "x", "tag", "y")
	require.NoError(t, err)

	assert.Equal(t, []any{"b"}, values(t, ctx, v, "name"))
	assert.Equal(t, []any{"x", "y"}, values(t, ctx, v, "tag"))
}

func TestAddEdge_NilTarget(t *testing.T) {
	ctx := context.Background()
	g, rec := newTestGraph(t)
	a := mustVertex(t, g, "person")
	before := len(rec.Edits())

	_, err := a.AddEdge(ctx, "knows", nil)
	assert.ErrorIs(t, err, ErrNullArgument)
	assert.Len(t, rec.Edits(), before)
}

func TestEdges_Directions(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t)
	a := mustVertex(t, g, "person")
	b := mustVertex(t, g, "person")
	c := mustVertex(t, g, "place")

	ab, err := a.AddEdge(ctx, "knows", b)
	require.NoError(t, err)
	ac, err := a.AddEdge(ctx, "lives", c)
	require.NoError(t, err)
	ba, err := b.AddEdge(ctx, "knows", a)
	require.NoError(t, err)

	ids := func(d Direction, labels ...string) []rdf.URI {
		it, err := a.Edges(ctx, d, labels...)
		var out []rdf.URI
		for _, e := range collect(t, it, err) {
			out = append(out, e.ID())
		}
		return out
	}

	assert.Equal(t, []rdf.URI{ab.ID(), ac.ID()}, ids(Out))
	assert.Equal(t, []rdf.URI{ab.ID()}, ids(Out, "knows"))
	assert.Equal(t, []rdf.URI{ba.ID()}, ids(In))
	assert.Equal(t, []rdf.URI{ab.ID(), ac.ID(), ba.ID()}, ids(Both))
	assert.Equal(t, []rdf.URI{ac.ID()}, ids(Both, "lives"))
	assert.Empty(t, ids(In, "lives"))
}

func TestSelfLoop(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t)
	a := mustVertex(t, g, "person")

	loop, err := a.AddEdge(ctx, "likes", a)
	require.NoError(t, err)

	for _, d := range []Direction{Out, In, Both} {
		it, err := a.Vertices(ctx, d)
		got := collect(t, it, err)
		require.Len(t, got, 1, d.String())
		assert.True(t, got[0].Equal(a), d.String())
	}

	it, err := a.Edges(ctx, Both)
	got := collect(t, it, err)
	require.Len(t, got, 1, "self-loop returned once")
	assert.Equal(t, loop.ID(), got[0].ID())
}

func TestVertex_RemoveCascades(t *testing.T) {
	ctx := context.Background()
	g, rec := newTestGraph(t)
	a := mustVertex(t, g, "person", "name", "A")
	b := mustVertex(t, g, "person", "name", "B")

	_, err := a.PropertyWith(ctx, List, "tag", "t", "note", "meta")
	require.NoError(t, err)
	_, err = a.AddEdge(ctx, "knows", b, "since", 2020)
	require.NoError(t, err)
	_, err = b.AddEdge(ctx, "knows", a)
	require.NoError(t, err)
	_, err = a.AddEdge(ctx, "likes", a)
	require.NoError(t, err)
	before := len(rec.Edits())

	require.NoError(t, a.Remove(ctx))

	edits := rec.Edits()
	require.Len(t, edits, before+1, "one edit for the whole cascade")
	last := edits[len(edits)-1]
	assert.Equal(t, listener.ActionRemove, last.Action)
	assert.Equal(t, listener.KindVertex, last.Kind)
	// label, name, tag, tag meta, a->b, since, self-loop, b->a
	assert.Len(t, last.Deltas, 8)
	for _, d := range last.Deltas {
		assert.Equal(t, rdf.Delete, d.Op)
	}

	it, err := g.Edges(ctx)
	assert.Empty(t, collect(t, it, err))
	it2, err := g.Vertices(ctx)
	remaining := collect(t, it2, err)
	require.Len(t, remaining, 1)
	assert.True(t, remaining[0].Equal(b))
	assert.Equal(t, []any{"B"}, values(t, ctx, b, "name"))

	_, err = a.SetProperty(ctx, "name", "again")
	assert.ErrorIs(t, err, ErrElementRemoved)
	_, err = b.AddEdge(ctx, "knows", a)
	assert.ErrorIs(t, err, ErrElementRemoved)
	assert.ErrorIs(t, a.Remove(ctx), ErrElementRemoved)
}
