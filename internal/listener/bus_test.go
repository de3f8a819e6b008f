package listener

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfgraph/internal/rdf"
)

func sampleEdit(seq int64) Edit {
	ns := rdf.DefaultNamespace
	v := ns.Identifier("person", "1")
	return Edit{
		Seq:     seq,
		Action:  ActionAdd,
		Kind:    KindVertex,
		Element: v,
		Label:   "person",
		Deltas: rdf.Deltas([]rdf.Statement{
			{Subject: v, Predicate: ns.Label(), Object: rdf.MustLiteral("person")},
		}, nil),
	}
}

// panicky fails on every edit.
type panicky struct {
	Base
}

func (panicky) GraphEdited(Edit, string) { panic("boom") }

func TestBus_DeliversInOrder(t *testing.T) {
	b := NewBus()
	rec := &Recorder{}
	b.Register(rec)

	b.NotifyEdit(sampleEdit(1))
	b.NotifyEdit(sampleEdit(2))
	b.NotifyCommit(99)

	events := rec.Events()
	require.Len(t, events, 3)
	assert.Equal(t, int64(1), events[0].Edit.Seq)
	assert.Equal(t, int64(2), events[1].Edit.Seq)
	assert.Equal(t, EventCommit, events[2].Type)
	assert.Equal(t, int64(99), events[2].CommitTime)
	assert.Equal(t, sampleEdit(1).Rendering(), events[0].Rendering)
}

func TestBus_DeltasCopiedPerListener(t *testing.T) {
	b := NewBus()
	b.Register(Func(func(e Edit, _ string) {
		e.Deltas[0].Op = rdf.Delete
		e.Deltas[0].Statement.Predicate = "urn:other"
	}))
	rec := &Recorder{}
	b.Register(rec)

	edit := sampleEdit(1)
	b.NotifyEdit(edit)

	require.Len(t, rec.Edits(), 1)
	assert.Equal(t, sampleEdit(1).Deltas, rec.Edits()[0].Deltas)
	assert.Equal(t, sampleEdit(1).Deltas, edit.Deltas, "caller's slice untouched")
}

func TestBus_RemoveIsIdempotent(t *testing.T) {
	b := NewBus()
	rec := &Recorder{}
	removeA := b.Register(rec)
	b.Register(rec)
	require.Equal(t, 2, b.Len())

	removeA()
	removeA()
	assert.Equal(t, 1, b.Len())

	b.NotifyAbort()
	assert.Len(t, rec.Events(), 1, "remaining registration still delivers")
}

func TestBus_PanickingListenerIsIsolated(t *testing.T) {
	b := NewBus()
	before := &Recorder{}
	after := &Recorder{}
	b.Register(before)
	b.Register(panicky{})
	b.Register(after)

	assert.NotPanics(t, func() { b.NotifyEdit(sampleEdit(1)) })
	b.NotifyCommit(5)

	assert.Len(t, before.Edits(), 1)
	assert.Len(t, after.Edits(), 1)
	assert.Equal(t, int64(1), b.Failures())
	assert.Equal(t, 3, b.Len(), "registry unchanged by failure")
}

func TestBus_RegisterDuringNotify(t *testing.T) {
	b := NewBus()
	late := &Recorder{}
	var once sync.Once
	b.Register(Func(func(Edit, string) {
		once.Do(func() { b.Register(late) })
	}))

	b.NotifyEdit(sampleEdit(1))
	assert.Empty(t, late.Events(), "snapshot taken before registration")

	b.NotifyEdit(sampleEdit(2))
	require.Len(t, late.Edits(), 1)
	assert.Equal(t, int64(2), late.Edits()[0].Seq)
}

func TestBus_ConcurrentRegistration(t *testing.T) {
	b := NewBus()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			remove := b.Register(&Recorder{})
			remove()
		}()
		go func() {
			defer wg.Done()
			b.NotifyEdit(sampleEdit(1))
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, b.Len())
}

func TestBase_DefaultsAreNoops(t *testing.T) {
	var f Func = func(Edit, string) {}
	assert.NotPanics(t, func() {
		f.TransactionCommitted(1)
		f.TransactionAborted()
		Base{}.TransactionCommitted(1)
		Base{}.TransactionAborted()
	})
}

func TestEdit_Rendering(t *testing.T) {
	e := sampleEdit(1)
	assert.Equal(t,
		`+ <urn:rdfgraph:id/person/1> <urn:rdfgraph:label> "person" .`,
		e.Rendering())
	assert.Equal(t, "add vertex v[urn:rdfgraph:id/person/1] person", e.String())
}

func TestJSONLines(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONLines(&buf)
	j.GraphEdited(sampleEdit(3), sampleEdit(3).Rendering())
	j.TransactionCommitted(7)
	j.TransactionAborted()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "edit", first["type"])
	assert.Equal(t, "vertex", first["kind"])
	assert.Equal(t, float64(3), first["seq"])

	assert.JSONEq(t, `{"type":"commit","commit_time":7}`, lines[1])
	assert.JSONEq(t, `{"type":"abort"}`, lines[2])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestJSONLines_WriteFailureCounted(t *testing.T) {
	b := NewBus()
	b.Register(NewJSONLines(failingWriter{}))
	b.NotifyCommit(1)
	assert.Equal(t, int64(1), b.Failures())
}
