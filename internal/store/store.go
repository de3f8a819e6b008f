package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/rdfgraph/internal/iterator"
	"github.com/roach88/rdfgraph/internal/rdf"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable quad storage.
// Uses SQLite with WAL mode and a single connection.
type Store struct {
	db  *sql.DB
	ids IDGenerator
	ns  rdf.Namespace
	now func() time.Time

	mu         sync.Mutex
	lastCommit int64
	lastSeq    int64
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets the source of unique identifier suffixes.
//
// Default: UUIDv7Generator.
// Use a SequenceGenerator in tests for stable identifiers.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		s.ids = g
	}
}

// WithNamespace sets the URI prefix for allocated identifiers.
func WithNamespace(ns rdf.Namespace) Option {
	return func(s *Store) {
		s.ns = ns
	}
}

// WithClock sets the wall clock used for commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time; a Tx holds this connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{
		db:  db,
		ids: UUIDv7Generator{},
		ns:  rdf.DefaultNamespace,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := db.QueryRow(
		"SELECT COALESCE(MAX(commit_time), 0), COALESCE(MAX(last_seq), 0) FROM commits",
	).Scan(&s.lastCommit, &s.lastSeq); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read last commit: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Namespace returns the URI prefix used for identifiers.
func (s *Store) Namespace() rdf.Namespace {
	return s.ns
}

// AllocateIdentifier returns a fresh, never-reused URI for a new element.
// The label is embedded for readability only; uniqueness comes from the
// generator.
func (s *Store) AllocateIdentifier(label string) rdf.URI {
	return s.ns.Identifier(label, s.ids.Generate())
}

// Begin starts a read-write transaction. The transaction owns the single
// connection until Commit or Abort.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{store: s, tx: tx}, nil
}

// Query returns a cursor over committed statements matching p.
// Must not be called while a Tx is open.
func (s *Store) Query(ctx context.Context, p rdf.Pattern) (iterator.Iterator[rdf.Statement], error) {
	return query(ctx, s.db, p)
}

// Count returns the number of committed statements.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM statements").Scan(&n); err != nil {
		return 0, fmt.Errorf("count statements: %w", err)
	}
	return n, nil
}

// LastCommit returns the timestamp of the latest commit, or 0 if none.
func (s *Store) LastCommit() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCommit
}

// LastSequence returns the highest edit sequence number recorded by a
// commit, or 0 if none. A graph reopened on this store resumes after it.
func (s *Store) LastSequence() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeq
}

// nextCommitTime returns a timestamp strictly greater than every previous one.
func (s *Store) nextCommitTime() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now().UnixMilli()
	if ts <= s.lastCommit {
		ts = s.lastCommit + 1
	}
	return ts
}

func (s *Store) recordCommit(ts, seq int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ts > s.lastCommit {
		s.lastCommit = ts
	}
	if seq > s.lastSeq {
		s.lastSeq = seq
	}
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables and indexes if they don't exist.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
