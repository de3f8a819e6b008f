package listener

import (
	"fmt"
	"log/slog"

	"github.com/roach88/rdfgraph/internal/rdf"
)

// Action says whether an element was added or removed.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// Kind identifies the element an Edit is about.
type Kind string

const (
	KindVertex         Kind = "vertex"
	KindEdge           Kind = "edge"
	KindVertexProperty Kind = "vertex-property"
	KindProperty       Kind = "property"
)

// Edit records one graph-level mutation and the raw statements it changed.
//
// Edits are created by the graph at the moment a write is applied and are
// never modified afterwards. The bus hands every listener its own copy of
// Deltas, so a listener mutating it affects no one else.
type Edit struct {
	// Seq orders edits within one graph. Strictly increasing.
	Seq int64

	Action Action
	Kind   Kind

	// Element is the vertex or edge the mutation concerns. For properties it
	// is the owning element.
	Element rdf.URI

	// Label is the vertex or edge label.
	Label string

	// Key and Value describe a property mutation.
	Key   string
	Value any

	// Property identifies a vertex property. Edge properties and
	// meta-properties have none.
	Property rdf.URI

	// Out and In are the endpoints of an edge.
	Out rdf.URI
	In  rdf.URI

	// Deltas are the applied statement changes, deletions first.
	Deltas []rdf.Delta
}

// Rendering returns the N-Quads form of the raw mutation, one line per
// statement prefixed with "+ " or "- ".
func (e Edit) Rendering() string {
	return rdf.Render(e.Deltas)
}

// String returns a short human-readable summary.
func (e Edit) String() string {
	switch e.Kind {
	case KindVertex:
		return fmt.Sprintf("%s %s v[%s] %s", e.Action, e.Kind, e.Element, e.Label)
	case KindEdge:
		return fmt.Sprintf("%s %s e[%s][%s-%s->%s]", e.Action, e.Kind, e.Element, e.Out, e.Label, e.In)
	default:
		return fmt.Sprintf("%s %s %s[%s->%v] on %s", e.Action, e.Kind, e.Kind.short(), e.Key, e.Value, e.Element)
	}
}

func (k Kind) short() string {
	if k == KindVertexProperty {
		return "vp"
	}
	return "p"
}

// LogValue implements slog.LogValuer.
func (e Edit) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("seq", e.Seq),
		slog.String("action", string(e.Action)),
		slog.String("kind", string(e.Kind)),
		slog.String("element", string(e.Element)),
	}
	if e.Label != "" {
		attrs = append(attrs, slog.String("label", e.Label))
	}
	if e.Key != "" {
		attrs = append(attrs, slog.String("key", e.Key), slog.Any("value", e.Value))
	}
	if !e.Property.IsZero() {
		attrs = append(attrs, slog.String("property", string(e.Property)))
	}
	if !e.Out.IsZero() {
		attrs = append(attrs, slog.String("out", string(e.Out)), slog.String("in", string(e.In)))
	}
	attrs = append(attrs, slog.Int("statements", len(e.Deltas)))
	return slog.GroupValue(attrs...)
}
