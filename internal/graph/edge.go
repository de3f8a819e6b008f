package graph

import (
	"context"

	"github.com/roach88/rdfgraph/internal/iterator"
	"github.com/roach88/rdfgraph/internal/rdf"
)

// Edge is a handle on a stored edge. Its endpoints and label are fixed at
// creation.
type Edge struct {
	g     *Graph
	id    rdf.URI
	label string
	out   rdf.URI
	in    rdf.URI
}

// ID returns the store-assigned identifier.
func (e *Edge) ID() rdf.URI { return e.id }

// Label returns the label given at creation.
func (e *Edge) Label() string { return e.label }

// OutID returns the identifier of the tail vertex.
func (e *Edge) OutID() rdf.URI { return e.out }

// InID returns the identifier of the head vertex.
func (e *Edge) InID() rdf.URI { return e.in }

func (e *Edge) String() string {
	return "e[" + string(e.id) + "][" + string(e.out) + "-" + e.label + "->" + string(e.in) + "]"
}

func (e *Edge) live(ctx context.Context, tx Tx) error {
	ok, err := exists(ctx, tx, rdf.Pattern{Subject: e.out, Predicate: e.g.ns.EdgeLabel(e.label), Context: e.id})
	if err != nil {
		return err
	}
	if !ok {
		return removed(e)
	}
	return nil
}

// OutVertex returns the tail vertex.
func (e *Edge) OutVertex(ctx context.Context) (*Vertex, error) {
	return e.endpoint(ctx, e.out)
}

// InVertex returns the head vertex.
func (e *Edge) InVertex(ctx context.Context) (*Vertex, error) {
	return e.endpoint(ctx, e.in)
}

func (e *Edge) endpoint(ctx context.Context, id rdf.URI) (*Vertex, error) {
	var v *Vertex
	err := e.g.withTx(ctx, func(tx Tx) error {
		if err := e.live(ctx, tx); err != nil {
			return err
		}
		var err error
		v, err = e.g.lookupVertex(ctx, tx, id)
		if err == nil && v == nil {
			err = notFound("vertex", string(id))
		}
		return err
	})
	return v, err
}

// Vertices returns the endpoints selected by d: Out gives the tail, In the
// head, Both the tail then the head.
func (e *Edge) Vertices(ctx context.Context, d Direction) (iterator.Iterator[*Vertex], error) {
	var ids []rdf.URI
	switch d {
	case Out:
		ids = []rdf.URI{e.out}
	case In:
		ids = []rdf.URI{e.in}
	case Both:
		ids = []rdf.URI{e.out, e.in}
	default:
		return nil, invalidProperty("", "unknown direction %s", d)
	}

	var out []*Vertex
	for _, id := range ids {
		v, err := e.endpoint(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return iterator.FromSlice(out), nil
}

// Property returns the property for key, or an empty property.
func (e *Edge) Property(ctx context.Context, key string) (*Property, error) {
	return e.g.ownerProperty(ctx, e, key)
}

// Value returns the value of the property for key, or nil when absent.
func (e *Edge) Value(ctx context.Context, key string) (any, error) {
	p, err := e.Property(ctx, key)
	if err != nil {
		return nil, err
	}
	return p.Value(), nil
}

// SetProperty writes a property, replacing any previous value for key.
func (e *Edge) SetProperty(ctx context.Context, key string, value any) (*Property, error) {
	return e.g.setOwnerProperty(ctx, e, key, value)
}

// Properties iterates the properties for keys, or all of them when keys is
// empty.
func (e *Edge) Properties(ctx context.Context, keys ...string) (iterator.Iterator[*Property], error) {
	return e.g.ownerProperties(ctx, e, keys)
}

// Remove deletes the edge and its properties.
func (e *Edge) Remove(ctx context.Context) error {
	return e.g.withTx(ctx, func(tx Tx) error {
		if err := e.live(ctx, tx); err != nil {
			return err
		}
		ch, err := e.g.removeEdgeChange(ctx, tx, e)
		if err != nil {
			return err
		}
		return e.g.apply(ctx, tx, ch)
	})
}
