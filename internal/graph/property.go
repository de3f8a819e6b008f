package graph

import (
	"context"
	"fmt"

	"github.com/roach88/rdfgraph/internal/iterator"
	"github.com/roach88/rdfgraph/internal/rdf"
)

// VertexProperty is a handle on one value of a vertex property. It has its
// own identifier and may carry meta-properties.
//
// The zero VertexProperty is the empty property returned by reads that find
// nothing; Present reports false for it.
type VertexProperty struct {
	vertex *Vertex
	id     rdf.URI
	key    string
	value  any
	lit    rdf.Literal
}

// ID returns the store-assigned identifier.
func (vp *VertexProperty) ID() rdf.URI { return vp.id }

// Key returns the property key.
func (vp *VertexProperty) Key() string { return vp.key }

// Label is the key, so vertex properties can be treated as elements.
func (vp *VertexProperty) Label() string { return vp.key }

// Value returns the stored value, or nil for the empty property.
func (vp *VertexProperty) Value() any { return vp.value }

// Present reports whether the property exists.
func (vp *VertexProperty) Present() bool { return vp.vertex != nil }

// Element returns the owning vertex, or nil for the empty property.
func (vp *VertexProperty) Element() *Vertex { return vp.vertex }

func (vp *VertexProperty) String() string {
	if !vp.Present() {
		return "vp[empty]"
	}
	return fmt.Sprintf("vp[%s->%v]", vp.key, vp.value)
}

func (vp *VertexProperty) statement() rdf.Statement {
	return rdf.Statement{Subject: vp.vertex.id, Predicate: vp.vertex.g.ns.Key(vp.key), Object: vp.lit, Context: vp.id}
}

func (vp *VertexProperty) graph() *Graph { return vp.vertex.g }

func (vp *VertexProperty) live(ctx context.Context, tx Tx) error {
	st := vp.statement()
	ok, err := exists(ctx, tx, rdf.Pattern{Subject: st.Subject, Predicate: st.Predicate, Object: st.Object, Context: st.Context})
	if err != nil {
		return err
	}
	if !ok {
		return removed(vp)
	}
	return nil
}

func (vp *VertexProperty) mustExist() error {
	if !vp.Present() {
		return notFound("vertex property", "empty")
	}
	return nil
}

// Property returns the meta-property for key, or an empty property.
func (vp *VertexProperty) Property(ctx context.Context, key string) (*Property, error) {
	if err := vp.mustExist(); err != nil {
		return nil, err
	}
	return vp.graph().ownerProperty(ctx, vp, key)
}

// SetProperty writes a meta-property, replacing any previous value for key.
func (vp *VertexProperty) SetProperty(ctx context.Context, key string, value any) (*Property, error) {
	if err := vp.mustExist(); err != nil {
		return nil, err
	}
	return vp.graph().setOwnerProperty(ctx, vp, key, value)
}

// Properties iterates meta-properties for keys, or all of them when keys
// is empty.
func (vp *VertexProperty) Properties(ctx context.Context, keys ...string) (iterator.Iterator[*Property], error) {
	if !vp.Present() {
		return iterator.Empty[*Property](), nil
	}
	return vp.graph().ownerProperties(ctx, vp, keys)
}

// Remove deletes the property value and its meta-properties. Removing the
// empty property does nothing.
func (vp *VertexProperty) Remove(ctx context.Context) error {
	if !vp.Present() {
		return nil
	}
	g := vp.graph()
	return g.withTx(ctx, func(tx Tx) error {
		if err := vp.live(ctx, tx); err != nil {
			return err
		}
		ch, err := g.removeVertexPropertyChange(ctx, tx, vp)
		if err != nil {
			return err
		}
		return g.apply(ctx, tx, ch)
	})
}

// Property is a key/value pair on an edge or on a vertex property.
// Each key holds at most one value.
//
// The zero Property is the empty property; Present reports false for it.
type Property struct {
	owner Element
	key   string
	value any
	lit   rdf.Literal
}

// Key returns the property key.
func (p *Property) Key() string { return p.key }

// Value returns the stored value, or nil for the empty property.
func (p *Property) Value() any { return p.value }

// Present reports whether the property exists.
func (p *Property) Present() bool { return p.owner != nil }

// Element returns the owning *Edge or *VertexProperty.
func (p *Property) Element() Element { return p.owner }

func (p *Property) String() string {
	if !p.Present() {
		return "p[empty]"
	}
	return fmt.Sprintf("p[%s->%v]", p.key, p.value)
}

func (p *Property) statement() rdf.Statement {
	return rdf.Statement{Subject: p.owner.ID(), Predicate: ownerGraph(p.owner).ns.Key(p.key), Object: p.lit}
}

// Remove deletes the property. Removing the empty property does nothing.
func (p *Property) Remove(ctx context.Context) error {
	if !p.Present() {
		return nil
	}
	g := ownerGraph(p.owner)
	return g.withTx(ctx, func(tx Tx) error {
		st := p.statement()
		ok, err := exists(ctx, tx, rdf.Pattern{Subject: st.Subject, Predicate: st.Predicate, Object: st.Object})
		if err != nil {
			return err
		}
		if !ok {
			return removed(p)
		}
		return g.apply(ctx, tx, g.removePropertyChange(p))
	})
}

// propertyOwner is an element that carries single-valued properties.
type propertyOwner interface {
	Element
	live(ctx context.Context, tx Tx) error
}

func ownerGraph(owner Element) *Graph {
	switch o := owner.(type) {
	case *Edge:
		return o.g
	case *VertexProperty:
		return o.graph()
	}
	panic(fmt.Sprintf("graph: %T does not own properties", owner))
}

func (g *Graph) ownerProperty(ctx context.Context, owner propertyOwner, key string) (*Property, error) {
	if key == "" {
		return nil, invalidProperty(key, "property key can not be empty")
	}
	var p *Property
	err := g.withTx(ctx, func(tx Tx) error {
		if err := owner.live(ctx, tx); err != nil {
			return err
		}
		sts, err := find(ctx, tx, rdf.Pattern{Subject: owner.ID(), Predicate: g.ns.Key(key)})
		if err != nil {
			return err
		}
		switch len(sts) {
		case 0:
			p = &Property{}
		case 1:
			p, err = g.propertyFrom(owner, sts[0])
		default:
			err = multipleProperties(key)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (g *Graph) setOwnerProperty(ctx context.Context, owner propertyOwner, key string, value any) (*Property, error) {
	kv, err := validateProperty(key, value)
	if err != nil {
		return nil, err
	}
	var p *Property
	err = g.withTx(ctx, func(tx Tx) error {
		if err := owner.live(ctx, tx); err != nil {
			return err
		}
		ch, err := g.propertyChange(ctx, tx, owner, kv)
		if err != nil {
			return err
		}
		if err := g.apply(ctx, tx, ch); err != nil {
			return err
		}
		p = &Property{owner: owner, key: kv.key, value: decoded(kv.lit), lit: kv.lit}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (g *Graph) ownerProperties(ctx context.Context, owner propertyOwner, keys []string) (iterator.Iterator[*Property], error) {
	var out iterator.Iterator[*Property]
	err := g.withTx(ctx, func(tx Tx) error {
		if err := owner.live(ctx, tx); err != nil {
			return err
		}
		sts, err := g.queryKeys(ctx, tx, owner.ID(), keys)
		if err != nil {
			return err
		}
		out = iterator.Map(sts, func(st rdf.Statement) (*Property, error) {
			return g.propertyFrom(owner, st)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return track(g, out), nil
}

func (g *Graph) propertyFrom(owner Element, st rdf.Statement) (*Property, error) {
	key, lit, err := g.decodeProperty(st)
	if err != nil {
		return nil, err
	}
	return &Property{owner: owner, key: key, value: decoded(lit), lit: lit}, nil
}

func (g *Graph) decodeProperty(st rdf.Statement) (string, rdf.Literal, error) {
	key, ok := g.ns.KeyOf(st.Predicate)
	if !ok {
		return "", rdf.Literal{}, storeFailure("decode property", fmt.Errorf("predicate %s is not a property key", st.Predicate))
	}
	lit, ok := st.Object.(rdf.Literal)
	if !ok {
		return "", rdf.Literal{}, storeFailure("decode property", fmt.Errorf("property %s of %s is not a literal", key, st.Subject))
	}
	return key, lit, nil
}

// queryKeys opens a cursor over the property statements of subject for
// keys, or for every key when keys is empty.
func (g *Graph) queryKeys(ctx context.Context, tx Tx, subject rdf.URI, keys []string) (iterator.Iterator[rdf.Statement], error) {
	if len(keys) == 0 {
		return g.open(ctx, tx, rdf.Pattern{Subject: subject, PredicatePrefix: g.ns.KeyPrefix()})
	}
	patterns := make([]rdf.Pattern, len(keys))
	for i, k := range keys {
		patterns[i] = rdf.Pattern{Subject: subject, Predicate: g.ns.Key(k)}
	}
	return g.openAll(ctx, tx, patterns)
}

// queryEdges opens a cursor over edge statements matching base, restricted
// to labels when given.
func (g *Graph) queryEdges(ctx context.Context, tx Tx, base rdf.Pattern, labels []string) (iterator.Iterator[rdf.Statement], error) {
	if len(labels) == 0 {
		base.PredicatePrefix = g.ns.EdgePrefix()
		return g.open(ctx, tx, base)
	}
	patterns := make([]rdf.Pattern, len(labels))
	for i, l := range labels {
		p := base
		p.Predicate = g.ns.EdgeLabel(l)
		patterns[i] = p
	}
	return g.openAll(ctx, tx, patterns)
}

func (g *Graph) open(ctx context.Context, tx Tx, p rdf.Pattern) (iterator.Iterator[rdf.Statement], error) {
	it, err := tx.Query(ctx, p)
	if err != nil {
		return nil, storeFailure("query", err)
	}
	return it, nil
}

// openAll concatenates one cursor per pattern. On failure every cursor
// opened so far is closed.
func (g *Graph) openAll(ctx context.Context, tx Tx, patterns []rdf.Pattern) (iterator.Iterator[rdf.Statement], error) {
	its := make([]iterator.Iterator[rdf.Statement], 0, len(patterns))
	for _, p := range patterns {
		it, err := g.open(ctx, tx, p)
		if err != nil {
			for _, o := range its {
				o.Close()
			}
			return nil, err
		}
		its = append(its, it)
	}
	return iterator.Concat(its...), nil
}
