package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/rdfgraph/internal/config"
	"github.com/roach88/rdfgraph/internal/iterator"
	"github.com/roach88/rdfgraph/internal/listener"
	"github.com/roach88/rdfgraph/internal/rdf"
	"github.com/roach88/rdfgraph/internal/store"
)

// DefaultVertexLabel is used when AddVertex is given an empty label.
const DefaultVertexLabel = "vertex"

// DefaultEdgeLabel is used when AddEdge is given an empty label.
const DefaultEdgeLabel = "edge"

// Graph is a property graph stored as RDF statements.
//
// Thread-safety: Graph is safe for concurrent use. Writes are serialised by
// an internal mutex; iterators are owned by one goroutine each.
type Graph struct {
	mu     sync.Mutex
	engine Engine
	ns     rdf.Namespace
	tx     Tx // opened lazily by the first read or write
	closed bool
	owned  bool // Close closes the engine

	cursors iterator.Tracker
	bus     *listener.Bus
	clock   *Clock
	policy  CardinalityPolicy
}

// Option configures a Graph.
type Option func(*Graph)

// WithCardinality sets the policy for writes that name no cardinality.
//
// Default: Single for every key.
func WithCardinality(p CardinalityPolicy) Option {
	return func(g *Graph) {
		g.policy = p
	}
}

// WithListener registers l before the graph is returned.
func WithListener(l listener.Listener) Option {
	return func(g *Graph) {
		g.bus.Register(l)
	}
}

// WithClock sets the edit sequence clock.
//
// Default: a clock resuming after engine.LastSequence().
func WithClock(c *Clock) Option {
	return func(g *Graph) {
		g.clock = c
	}
}

// New creates a graph over an engine. The caller keeps ownership of the
// engine; Close does not close it.
func New(engine Engine, opts ...Option) *Graph {
	g := &Graph{
		engine: engine,
		ns:     engine.Namespace(),
		bus:    listener.NewBus(),
		clock:  NewClock(engine.LastSequence()),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Open opens the SQLite store named by cfg and returns a graph that owns it.
// Store options are applied after the configured namespace.
func Open(cfg config.Config, storeOpts []store.Option, opts ...Option) (*Graph, error) {
	policy, err := policyFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	sopts := append([]store.Option{store.WithNamespace(rdf.Namespace(cfg.Namespace))}, storeOpts...)
	s, err := store.Open(cfg.Database, sopts...)
	if err != nil {
		return nil, storeFailure("open store", err)
	}

	base := []Option{WithCardinality(policy)}
	if cfg.Listeners.Log {
		base = append(base, WithListener(listener.NewLog(nil)))
	}
	g := New(SQLite(s), append(base, opts...)...)
	g.owned = true
	return g, nil
}

func policyFromConfig(cfg config.Config) (CardinalityPolicy, error) {
	def, err := ParseCardinality(cfg.Cardinality.Default)
	if err != nil {
		return CardinalityPolicy{}, err
	}
	p := CardinalityPolicy{Default: def, Keys: make(map[string]Cardinality, len(cfg.Cardinality.Keys))}
	for k, v := range cfg.Cardinality.Keys {
		c, err := ParseCardinality(v)
		if err != nil {
			return CardinalityPolicy{}, err
		}
		p.Keys[k] = c
	}
	return p, nil
}

// Namespace returns the URI prefix of the underlying store.
func (g *Graph) Namespace() rdf.Namespace {
	return g.ns
}

// Cardinality returns the default cardinality for key.
func (g *Graph) Cardinality(key string) Cardinality {
	return g.policy.For(key)
}

// AddListener registers l. Listeners added during a transaction receive
// only the edits issued after registration.
func (g *Graph) AddListener(l listener.Listener) (remove func()) {
	return g.bus.Register(l)
}

// Listeners returns the number of registered listeners.
func (g *Graph) Listeners() int {
	return g.bus.Len()
}

// ListenerFailures returns how many listener calls panicked.
func (g *Graph) ListenerFailures() int64 {
	return g.bus.Failures()
}

// OpenIterators returns the number of result iterators not yet closed.
func (g *Graph) OpenIterators() int64 {
	return g.cursors.Open()
}

// Close aborts any open transaction and, for graphs created by Open,
// closes the store.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true

	var err error
	if g.tx != nil {
		err = g.abortLocked()
	}
	if g.owned {
		if cerr := g.engine.Close(); cerr != nil && err == nil {
			err = storeFailure("close store", cerr)
		}
	}
	return err
}

// Commit ends the current transaction and notifies listeners with the
// store's commit timestamp. Without pending changes nothing is notified and
// the previous commit timestamp is returned.
func (g *Graph) Commit(ctx context.Context) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.tx == nil {
		return g.engine.LastCommit(), nil
	}
	if n := g.cursors.Open(); n > 0 {
		return 0, &Error{Code: CodeOpenIterators, Message: fmt.Sprintf("%d iterators still open", n)}
	}

	tx := g.tx
	g.tx = nil
	dirty := tx.Dirty()
	if dirty {
		tx.SetSequence(g.clock.Current())
	}

	ts, err := tx.Commit(ctx)
	if err != nil {
		if dirty {
			slog.Warn("commit failed, transaction aborted", "error", err)
			g.bus.NotifyAbort()
		}
		return 0, storeFailure("commit", err)
	}
	if dirty {
		slog.Info("transaction committed", "commit_time", ts)
		g.bus.NotifyCommit(ts)
	}
	return ts, nil
}

// Rollback discards the current transaction. Listeners are told only if
// the transaction had changes.
func (g *Graph) Rollback(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.tx == nil {
		return nil
	}
	if n := g.cursors.Open(); n > 0 {
		return &Error{Code: CodeOpenIterators, Message: fmt.Sprintf("%d iterators still open", n)}
	}
	return g.abortLocked()
}

func (g *Graph) abortLocked() error {
	tx := g.tx
	g.tx = nil
	dirty := tx.Dirty()
	if err := tx.Abort(); err != nil {
		return storeFailure("abort", err)
	}
	if dirty {
		slog.Info("transaction aborted")
		g.bus.NotifyAbort()
	}
	return nil
}

// txLocked returns the open transaction, beginning one if needed.
// Caller must hold g.mu.
func (g *Graph) txLocked(ctx context.Context) (Tx, error) {
	if g.closed {
		return nil, storeFailure("graph", fmt.Errorf("graph is closed"))
	}
	if g.tx != nil {
		return g.tx, nil
	}
	// The transaction outlives the call that opened it.
	tx, err := g.engine.Begin(context.WithoutCancel(ctx))
	if err != nil {
		return nil, storeFailure("begin", err)
	}
	g.tx = tx
	return tx, nil
}

// withTx runs fn under the graph lock with an open transaction.
// Iterators returned from fn outlive the lock; they hold the transaction
// open until closed.
func (g *Graph) withTx(ctx context.Context, fn func(tx Tx) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	tx, err := g.txLocked(ctx)
	if err != nil {
		return err
	}
	return fn(tx)
}

// apply stores one change and notifies listeners with its edit.
// Caller must hold g.mu.
func (g *Graph) apply(ctx context.Context, tx Tx, c change) error {
	if _, err := tx.Apply(ctx, c.insertions, c.deletions); err != nil {
		return storeFailure("apply", err)
	}
	edit := c.edit
	edit.Seq = g.clock.Next()
	edit.Deltas = rdf.Deltas(c.insertions, c.deletions)
	slog.Debug("graph edited", "edit", edit)
	g.bus.NotifyEdit(edit)
	return nil
}

// find collects every statement matching p.
func find(ctx context.Context, tx Tx, p rdf.Pattern) ([]rdf.Statement, error) {
	it, err := tx.Query(ctx, p)
	if err != nil {
		return nil, storeFailure("query", err)
	}
	sts, err := iterator.Collect(it)
	if err != nil {
		return nil, storeFailure("query", err)
	}
	return sts, nil
}

// exists reports whether any statement matches p.
func exists(ctx context.Context, tx Tx, p rdf.Pattern) (bool, error) {
	it, err := tx.Query(ctx, p)
	if err != nil {
		return false, storeFailure("query", err)
	}
	_, ok, err := iterator.First(it)
	if err != nil {
		return false, storeFailure("query", err)
	}
	return ok, nil
}

// track registers a result iterator so Commit can refuse while it is open.
func track[T any](g *Graph, it iterator.Iterator[T]) iterator.Iterator[T] {
	return iterator.Track(&g.cursors, it)
}

// AddVertex creates a vertex. kvs is an alternating key/value list of
// initial properties, written with the graph's cardinality policy.
func (g *Graph) AddVertex(ctx context.Context, label string, kvs ...any) (*Vertex, error) {
	if label == "" {
		label = DefaultVertexLabel
	}
	props, err := parseKeyValues(kvs)
	if err != nil {
		return nil, err
	}

	var v *Vertex
	err = g.withTx(ctx, func(tx Tx) error {
		id := g.engine.AllocateIdentifier(label)
		v = &Vertex{g: g, id: id, label: label}
		return g.apply(ctx, tx, g.addVertexChange(v, props))
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Vertex returns the vertex with the given identifier.
func (g *Graph) Vertex(ctx context.Context, id rdf.URI) (*Vertex, error) {
	var v *Vertex
	err := g.withTx(ctx, func(tx Tx) error {
		var err error
		v, err = g.lookupVertex(ctx, tx, id)
		if err != nil {
			return err
		}
		if v == nil {
			return notFound("vertex", string(id))
		}
		return nil
	})
	return v, err
}

// Vertices iterates the given vertices, or every vertex when ids is empty.
// Unknown identifiers are skipped.
func (g *Graph) Vertices(ctx context.Context, ids ...rdf.URI) (iterator.Iterator[*Vertex], error) {
	var out iterator.Iterator[*Vertex]
	err := g.withTx(ctx, func(tx Tx) error {
		if len(ids) == 0 {
			it, err := tx.Query(ctx, rdf.Pattern{Predicate: g.ns.Label()})
			if err != nil {
				return storeFailure("query", err)
			}
			out = iterator.Map(it, func(st rdf.Statement) (*Vertex, error) {
				return g.vertexFromLabel(st), nil
			})
			return nil
		}
		found := iterator.Map(iterator.FromSlice(ids), func(id rdf.URI) (*Vertex, error) {
			return g.lookupVertex(ctx, tx, id)
		})
		out = iterator.Filter(found, func(v *Vertex) bool { return v != nil })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return track(g, out), nil
}

// Edge returns the edge with the given identifier.
func (g *Graph) Edge(ctx context.Context, id rdf.URI) (*Edge, error) {
	var e *Edge
	err := g.withTx(ctx, func(tx Tx) error {
		var err error
		e, err = g.lookupEdge(ctx, tx, id)
		if err != nil {
			return err
		}
		if e == nil {
			return notFound("edge", string(id))
		}
		return nil
	})
	return e, err
}

// Edges iterates the given edges, or every edge when ids is empty.
// Unknown identifiers are skipped.
func (g *Graph) Edges(ctx context.Context, ids ...rdf.URI) (iterator.Iterator[*Edge], error) {
	var out iterator.Iterator[*Edge]
	err := g.withTx(ctx, func(tx Tx) error {
		if len(ids) == 0 {
			it, err := tx.Query(ctx, rdf.Pattern{PredicatePrefix: g.ns.EdgePrefix()})
			if err != nil {
				return storeFailure("query", err)
			}
			out = iterator.Map(it, g.edgeFromStatement)
			return nil
		}
		found := iterator.Map(iterator.FromSlice(ids), func(id rdf.URI) (*Edge, error) {
			return g.lookupEdge(ctx, tx, id)
		})
		out = iterator.Filter(found, func(e *Edge) bool { return e != nil })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return track(g, out), nil
}

// lookupVertex returns nil without error when the vertex does not exist.
func (g *Graph) lookupVertex(ctx context.Context, tx Tx, id rdf.URI) (*Vertex, error) {
	it, err := tx.Query(ctx, rdf.Pattern{Subject: id, Predicate: g.ns.Label()})
	if err != nil {
		return nil, storeFailure("query", err)
	}
	st, ok, err := iterator.First(it)
	if err != nil {
		return nil, storeFailure("query", err)
	}
	if !ok {
		return nil, nil
	}
	return g.vertexFromLabel(st), nil
}

func (g *Graph) vertexFromLabel(st rdf.Statement) *Vertex {
	var label string
	if lit, ok := st.Object.(rdf.Literal); ok {
		label = lit.Lexical
	}
	return &Vertex{g: g, id: st.Subject, label: label}
}

// lookupEdge returns nil without error when the edge does not exist.
func (g *Graph) lookupEdge(ctx context.Context, tx Tx, id rdf.URI) (*Edge, error) {
	it, err := tx.Query(ctx, rdf.Pattern{Context: id, PredicatePrefix: g.ns.EdgePrefix()})
	if err != nil {
		return nil, storeFailure("query", err)
	}
	st, ok, err := iterator.First(it)
	if err != nil {
		return nil, storeFailure("query", err)
	}
	if !ok {
		return nil, nil
	}
	return g.edgeFromStatement(st)
}

func (g *Graph) edgeFromStatement(st rdf.Statement) (*Edge, error) {
	label, ok := g.ns.EdgeLabelOf(st.Predicate)
	if !ok {
		return nil, storeFailure("decode edge", fmt.Errorf("predicate %s is not an edge label", st.Predicate))
	}
	in, ok := st.Object.(rdf.URI)
	if !ok {
		return nil, storeFailure("decode edge", fmt.Errorf("edge %s has a literal target", st.Context))
	}
	return &Edge{g: g, id: st.Context, label: label, out: st.Subject, in: in}, nil
}
