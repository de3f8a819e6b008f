package graph

import (
	"context"

	"github.com/roach88/rdfgraph/internal/listener"
	"github.com/roach88/rdfgraph/internal/rdf"
)

// change is one graph-level write translated into statements.
// It is applied as a single batch and reported as a single Edit.
type change struct {
	insertions []rdf.Statement
	deletions  []rdf.Statement
	edit       listener.Edit
}

// statementSet accumulates deletions without duplicates. A self-loop is
// both an outgoing and an incoming edge of its vertex.
type statementSet struct {
	seen map[string]bool
	list []rdf.Statement
}

func (s *statementSet) add(sts ...rdf.Statement) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	for _, st := range sts {
		k := st.String()
		if s.seen[k] {
			continue
		}
		s.seen[k] = true
		s.list = append(s.list, st)
	}
}

func (g *Graph) labelStatement(v rdf.URI, label string) rdf.Statement {
	return rdf.Statement{Subject: v, Predicate: g.ns.Label(), Object: rdf.NewLiteral(label, rdf.XSDString)}
}

func (g *Graph) propertyStatement(subject rdf.URI, kv keyValue, ctx rdf.URI) rdf.Statement {
	return rdf.Statement{Subject: subject, Predicate: g.ns.Key(kv.key), Object: kv.lit, Context: ctx}
}

func (g *Graph) edgeStatement(e *Edge) rdf.Statement {
	return rdf.Statement{Subject: e.out, Predicate: g.ns.EdgeLabel(e.label), Object: e.in, Context: e.id}
}

// addVertexChange translates a new vertex and its initial properties.
// Duplicate keys in props resolve against each other with the key's
// cardinality, as if written one after another.
func (g *Graph) addVertexChange(v *Vertex, props []keyValue) change {
	ins := []rdf.Statement{g.labelStatement(v.id, v.label)}

	byKey := map[string][]rdf.Statement{}
	for _, kv := range props {
		// Policy cardinalities are always valid.
		res, _ := resolveCardinality(g.policy.For(kv.key), byKey[kv.key], kv.lit)
		if !res.insert {
			continue
		}
		for _, old := range res.replace {
			ins = removeStatement(ins, old)
		}
		st := g.propertyStatement(v.id, kv, g.engine.AllocateIdentifier(kv.key))
		byKey[kv.key] = append(without(byKey[kv.key], res.replace), st)
		ins = append(ins, st)
	}

	return change{
		insertions: ins,
		edit: listener.Edit{
			Action:  listener.ActionAdd,
			Kind:    listener.KindVertex,
			Element: v.id,
			Label:   v.label,
		},
	}
}

func removeStatement(sts []rdf.Statement, target rdf.Statement) []rdf.Statement {
	out := make([]rdf.Statement, 0, len(sts))
	for _, st := range sts {
		if st != target {
			out = append(out, st)
		}
	}
	return out
}

func without(sts, drop []rdf.Statement) []rdf.Statement {
	for _, d := range drop {
		sts = removeStatement(sts, d)
	}
	return sts
}

// vertexPropertyChange translates a vertex property write. ok is false when
// the cardinality makes the write a no-op; match is then the existing
// property statement holding the value.
func (g *Graph) vertexPropertyChange(ctx context.Context, tx Tx, v *Vertex, c Cardinality, kv keyValue, meta []keyValue) (ch change, pid rdf.URI, match *rdf.Statement, err error) {
	existing, err := find(ctx, tx, rdf.Pattern{Subject: v.id, Predicate: g.ns.Key(kv.key)})
	if err != nil {
		return change{}, "", nil, err
	}
	res, err := resolveCardinality(c, existing, kv.lit)
	if err != nil {
		return change{}, "", nil, err
	}
	if !res.insert {
		return change{}, "", res.match, nil
	}

	var del statementSet
	for _, old := range res.replace {
		del.add(old)
		owned, err := find(ctx, tx, rdf.Pattern{Subject: old.Context})
		if err != nil {
			return change{}, "", nil, err
		}
		del.add(owned...)
	}

	pid = g.engine.AllocateIdentifier(kv.key)
	ins := []rdf.Statement{g.propertyStatement(v.id, kv, pid)}
	ins = append(ins, g.metaStatements(pid, meta)...)

	return change{
		insertions: ins,
		deletions:  del.list,
		edit: listener.Edit{
			Action:   listener.ActionAdd,
			Kind:     listener.KindVertexProperty,
			Element:  v.id,
			Label:    v.label,
			Key:      kv.key,
			Value:    decoded(kv.lit),
			Property: pid,
		},
	}, pid, nil, nil
}

// metaStatements writes properties on a vertex property. Keys are single
// valued; a later duplicate replaces an earlier one.
func (g *Graph) metaStatements(owner rdf.URI, kvs []keyValue) []rdf.Statement {
	var out []rdf.Statement
	index := map[string]int{}
	for _, kv := range kvs {
		st := g.propertyStatement(owner, kv, "")
		if i, ok := index[kv.key]; ok {
			out[i] = st
			continue
		}
		index[kv.key] = len(out)
		out = append(out, st)
	}
	return out
}

// propertyChange translates a write of a single-valued property on an edge
// or a vertex property.
func (g *Graph) propertyChange(ctx context.Context, tx Tx, owner Element, kv keyValue) (change, error) {
	existing, err := find(ctx, tx, rdf.Pattern{Subject: owner.ID(), Predicate: g.ns.Key(kv.key)})
	if err != nil {
		return change{}, err
	}
	edit := listener.Edit{
		Action:  listener.ActionAdd,
		Kind:    listener.KindProperty,
		Element: owner.ID(),
		Key:     kv.key,
		Value:   decoded(kv.lit),
	}
	if e, ok := owner.(*Edge); ok {
		edit.Label = e.label
	}
	return change{
		insertions: []rdf.Statement{g.propertyStatement(owner.ID(), kv, "")},
		deletions:  existing,
		edit:       edit,
	}, nil
}

// addEdgeChange translates a new edge and its properties.
func (g *Graph) addEdgeChange(e *Edge, props []keyValue) change {
	ins := []rdf.Statement{g.edgeStatement(e)}
	ins = append(ins, g.metaStatements(e.id, props)...)
	return change{
		insertions: ins,
		edit: listener.Edit{
			Action:  listener.ActionAdd,
			Kind:    listener.KindEdge,
			Element: e.id,
			Label:   e.label,
			Out:     e.out,
			In:      e.in,
		},
	}
}

// removeEdgeStatements collects an edge statement and everything it owns.
func (g *Graph) removeEdgeStatements(ctx context.Context, tx Tx, del *statementSet, edge rdf.Statement) error {
	del.add(edge)
	owned, err := find(ctx, tx, rdf.Pattern{Subject: edge.Context})
	if err != nil {
		return err
	}
	del.add(owned...)
	return nil
}

// removeVertexChange translates removal of a vertex, its properties with
// their meta-properties, and every incident edge with its properties.
func (g *Graph) removeVertexChange(ctx context.Context, tx Tx, v *Vertex) (change, error) {
	var del statementSet

	outgoing, err := find(ctx, tx, rdf.Pattern{Subject: v.id})
	if err != nil {
		return change{}, err
	}
	for _, st := range outgoing {
		switch {
		case st.Predicate == g.ns.Label():
			del.add(st)
		case isEdge(g.ns, st):
			if err := g.removeEdgeStatements(ctx, tx, &del, st); err != nil {
				return change{}, err
			}
		default:
			del.add(st)
			if !st.Context.IsZero() {
				meta, err := find(ctx, tx, rdf.Pattern{Subject: st.Context})
				if err != nil {
					return change{}, err
				}
				del.add(meta...)
			}
		}
	}

	incoming, err := find(ctx, tx, rdf.Pattern{Object: v.id, PredicatePrefix: g.ns.EdgePrefix()})
	if err != nil {
		return change{}, err
	}
	for _, st := range incoming {
		if err := g.removeEdgeStatements(ctx, tx, &del, st); err != nil {
			return change{}, err
		}
	}

	return change{
		deletions: del.list,
		edit: listener.Edit{
			Action:  listener.ActionRemove,
			Kind:    listener.KindVertex,
			Element: v.id,
			Label:   v.label,
		},
	}, nil
}

func isEdge(ns rdf.Namespace, st rdf.Statement) bool {
	_, ok := ns.EdgeLabelOf(st.Predicate)
	return ok
}

// removeEdgeChange translates removal of an edge and its properties.
func (g *Graph) removeEdgeChange(ctx context.Context, tx Tx, e *Edge) (change, error) {
	var del statementSet
	if err := g.removeEdgeStatements(ctx, tx, &del, g.edgeStatement(e)); err != nil {
		return change{}, err
	}
	return change{
		deletions: del.list,
		edit: listener.Edit{
			Action:  listener.ActionRemove,
			Kind:    listener.KindEdge,
			Element: e.id,
			Label:   e.label,
			Out:     e.out,
			In:      e.in,
		},
	}, nil
}

// removeVertexPropertyChange translates removal of a vertex property and
// its meta-properties.
func (g *Graph) removeVertexPropertyChange(ctx context.Context, tx Tx, vp *VertexProperty) (change, error) {
	var del statementSet
	del.add(vp.statement())
	meta, err := find(ctx, tx, rdf.Pattern{Subject: vp.id})
	if err != nil {
		return change{}, err
	}
	del.add(meta...)
	return change{
		deletions: del.list,
		edit: listener.Edit{
			Action:   listener.ActionRemove,
			Kind:     listener.KindVertexProperty,
			Element:  vp.vertex.id,
			Label:    vp.vertex.label,
			Key:      vp.key,
			Value:    vp.value,
			Property: vp.id,
		},
	}, nil
}

// removePropertyChange translates removal of an edge property or a
// meta-property.
func (g *Graph) removePropertyChange(p *Property) change {
	edit := listener.Edit{
		Action:  listener.ActionRemove,
		Kind:    listener.KindProperty,
		Element: p.owner.ID(),
		Key:     p.key,
		Value:   p.value,
	}
	if e, ok := p.owner.(*Edge); ok {
		edit.Label = e.label
	}
	return change{
		deletions: []rdf.Statement{p.statement()},
		edit:      edit,
	}
}

// decoded returns the Go value a literal reads back as.
func decoded(lit rdf.Literal) any {
	v, err := lit.Value()
	if err != nil {
		return lit.Lexical
	}
	return v
}
