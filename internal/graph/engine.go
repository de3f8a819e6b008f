package graph

import (
	"context"

	"github.com/roach88/rdfgraph/internal/iterator"
	"github.com/roach88/rdfgraph/internal/rdf"
	"github.com/roach88/rdfgraph/internal/store"
)

// Engine is the triple store the graph is layered over.
// *store.Store satisfies it through SQLite.
type Engine interface {
	Namespace() rdf.Namespace
	AllocateIdentifier(label string) rdf.URI
	Begin(ctx context.Context) (Tx, error)
	LastCommit() int64
	LastSequence() int64
	Close() error
}

// Tx is a store transaction.
type Tx interface {
	Apply(ctx context.Context, insertions, deletions []rdf.Statement) (store.Outcome, error)
	Query(ctx context.Context, p rdf.Pattern) (iterator.Iterator[rdf.Statement], error)
	Dirty() bool
	SetSequence(seq int64)
	Commit(ctx context.Context) (int64, error)
	Abort() error
}

// sqliteEngine adapts *store.Store, whose Begin returns a concrete type.
type sqliteEngine struct {
	*store.Store
}

// SQLite returns an Engine backed by s.
func SQLite(s *store.Store) Engine {
	return sqliteEngine{Store: s}
}

func (e sqliteEngine) Begin(ctx context.Context) (Tx, error) {
	tx, err := e.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
