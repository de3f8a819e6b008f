package graph

import (
	"context"
	"fmt"

	"github.com/roach88/rdfgraph/internal/iterator"
	"github.com/roach88/rdfgraph/internal/rdf"
)

// Vertex is a handle on a stored vertex. Handles hold no resources and may
// be copied freely; two handles with the same ID are the same vertex.
type Vertex struct {
	g     *Graph
	id    rdf.URI
	label string
}

// ID returns the store-assigned identifier.
func (v *Vertex) ID() rdf.URI { return v.id }

// Label returns the label given at creation.
func (v *Vertex) Label() string { return v.label }

func (v *Vertex) String() string { return "v[" + string(v.id) + "]" }

// Equal reports whether both handles refer to the same vertex.
func (v *Vertex) Equal(other *Vertex) bool {
	return other != nil && v.id == other.id
}

func (v *Vertex) live(ctx context.Context, tx Tx) error {
	ok, err := exists(ctx, tx, rdf.Pattern{Subject: v.id, Predicate: v.g.ns.Label()})
	if err != nil {
		return err
	}
	if !ok {
		return removed(v)
	}
	return nil
}

// Property returns the only property for key. It returns an empty property
// when there is none and fails with ErrMultipleProperties when there are
// several.
func (v *Vertex) Property(ctx context.Context, key string) (*VertexProperty, error) {
	if key == "" {
		return nil, invalidProperty(key, "property key can not be empty")
	}
	var vp *VertexProperty
	err := v.g.withTx(ctx, func(tx Tx) error {
		if err := v.live(ctx, tx); err != nil {
			return err
		}
		sts, err := find(ctx, tx, rdf.Pattern{Subject: v.id, Predicate: v.g.ns.Key(key)})
		if err != nil {
			return err
		}
		switch len(sts) {
		case 0:
			vp = &VertexProperty{}
		case 1:
			vp, err = v.propertyFrom(sts[0])
		default:
			err = multipleProperties(key)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return vp, nil
}

// Value returns the value of the only property for key, or nil when absent.
func (v *Vertex) Value(ctx context.Context, key string) (any, error) {
	vp, err := v.Property(ctx, key)
	if err != nil {
		return nil, err
	}
	return vp.Value(), nil
}

// SetProperty writes a property with the graph's cardinality for key.
func (v *Vertex) SetProperty(ctx context.Context, key string, value any, kvs ...any) (*VertexProperty, error) {
	return v.PropertyWith(ctx, v.g.policy.For(key), key, value, kvs...)
}

// PropertyWith writes a property with an explicit cardinality. kvs is an
// alternating key/value list of meta-properties attached to the new
// property; it must not contain ID.
//
// Under Set, writing a value that is already present returns the existing
// property and notifies nobody.
func (v *Vertex) PropertyWith(ctx context.Context, c Cardinality, key string, value any, kvs ...any) (*VertexProperty, error) {
	kv, err := validateProperty(key, value)
	if err != nil {
		return nil, err
	}
	meta, err := parseKeyValues(kvs)
	if err != nil {
		return nil, err
	}
	if _, err := resolveCardinality(c, nil, kv.lit); err != nil {
		return nil, err
	}

	var vp *VertexProperty
	err = v.g.withTx(ctx, func(tx Tx) error {
		if err := v.live(ctx, tx); err != nil {
			return err
		}
		ch, pid, match, err := v.g.vertexPropertyChange(ctx, tx, v, c, kv, meta)
		if err != nil {
			return err
		}
		if match != nil {
			vp, err = v.propertyFrom(*match)
			return err
		}
		if err := v.g.apply(ctx, tx, ch); err != nil {
			return err
		}
		vp = &VertexProperty{vertex: v, id: pid, key: kv.key, value: decoded(kv.lit), lit: kv.lit}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vp, nil
}

// Properties iterates the vertex properties for keys, or all of them when
// keys is empty.
func (v *Vertex) Properties(ctx context.Context, keys ...string) (iterator.Iterator[*VertexProperty], error) {
	var out iterator.Iterator[*VertexProperty]
	err := v.g.withTx(ctx, func(tx Tx) error {
		if err := v.live(ctx, tx); err != nil {
			return err
		}
		sts, err := v.g.queryKeys(ctx, tx, v.id, keys)
		if err != nil {
			return err
		}
		out = iterator.Map(sts, v.propertyFrom)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return track(v.g, out), nil
}

func (v *Vertex) propertyFrom(st rdf.Statement) (*VertexProperty, error) {
	key, lit, err := v.g.decodeProperty(st)
	if err != nil {
		return nil, err
	}
	return &VertexProperty{vertex: v, id: st.Context, key: key, value: decoded(lit), lit: lit}, nil
}

// AddEdge creates an edge from v to in. kvs is an alternating key/value
// list of edge properties.
func (v *Vertex) AddEdge(ctx context.Context, label string, in *Vertex, kvs ...any) (*Edge, error) {
	if in == nil {
		return nil, nullArgument("vertex")
	}
	if label == "" {
		label = DefaultEdgeLabel
	}
	props, err := parseKeyValues(kvs)
	if err != nil {
		return nil, err
	}

	var e *Edge
	err = v.g.withTx(ctx, func(tx Tx) error {
		if err := v.live(ctx, tx); err != nil {
			return err
		}
		if err := in.live(ctx, tx); err != nil {
			return err
		}
		e = &Edge{g: v.g, id: v.g.engine.AllocateIdentifier(label), label: label, out: v.id, in: in.id}
		return v.g.apply(ctx, tx, v.g.addEdgeChange(e, props))
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Edges iterates incident edges in direction d, restricted to labels when
// given. With Both a self-loop is returned once.
func (v *Vertex) Edges(ctx context.Context, d Direction, labels ...string) (iterator.Iterator[*Edge], error) {
	var out iterator.Iterator[*Edge]
	err := v.g.withTx(ctx, func(tx Tx) error {
		if err := v.live(ctx, tx); err != nil {
			return err
		}
		sts, err := v.incident(ctx, tx, d, labels)
		if err != nil {
			return err
		}
		out = iterator.Map(sts, v.g.edgeFromStatement)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return track(v.g, out), nil
}

// Vertices iterates the vertex at the other end of each incident edge.
// For a self-loop the other end is v itself.
func (v *Vertex) Vertices(ctx context.Context, d Direction, labels ...string) (iterator.Iterator[*Vertex], error) {
	var out iterator.Iterator[*Vertex]
	err := v.g.withTx(ctx, func(tx Tx) error {
		if err := v.live(ctx, tx); err != nil {
			return err
		}
		sts, err := v.incident(ctx, tx, d, labels)
		if err != nil {
			return err
		}
		out = iterator.Map(sts, func(st rdf.Statement) (*Vertex, error) {
			e, err := v.g.edgeFromStatement(st)
			if err != nil {
				return nil, err
			}
			other := e.out
			if e.out == v.id {
				other = e.in
			}
			n, err := v.g.lookupVertex(ctx, tx, other)
			if err != nil {
				return nil, err
			}
			if n == nil {
				return nil, storeFailure("neighbors", fmt.Errorf("edge %s points at missing vertex %s", e.id, other))
			}
			return n, nil
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return track(v.g, out), nil
}

// incident opens a cursor over the edge statements touching v.
func (v *Vertex) incident(ctx context.Context, tx Tx, d Direction, labels []string) (iterator.Iterator[rdf.Statement], error) {
	switch d {
	case Out:
		return v.g.queryEdges(ctx, tx, rdf.Pattern{Subject: v.id}, labels)
	case In:
		return v.g.queryEdges(ctx, tx, rdf.Pattern{Object: v.id}, labels)
	case Both:
		out, err := v.g.queryEdges(ctx, tx, rdf.Pattern{Subject: v.id}, labels)
		if err != nil {
			return nil, err
		}
		in, err := v.g.queryEdges(ctx, tx, rdf.Pattern{Object: v.id}, labels)
		if err != nil {
			out.Close()
			return nil, err
		}
		// Self-loops were already returned as outgoing edges.
		in = iterator.Filter(in, func(st rdf.Statement) bool { return st.Subject != v.id })
		return iterator.Concat(out, in), nil
	default:
		return nil, invalidProperty("", "unknown direction %s", d)
	}
}

// Remove deletes the vertex, its properties and every incident edge.
func (v *Vertex) Remove(ctx context.Context) error {
	return v.g.withTx(ctx, func(tx Tx) error {
		if err := v.live(ctx, tx); err != nil {
			return err
		}
		ch, err := v.g.removeVertexChange(ctx, tx, v)
		if err != nil {
			return err
		}
		return v.g.apply(ctx, tx, ch)
	})
}
