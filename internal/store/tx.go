package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rdfgraph/internal/iterator"
	"github.com/roach88/rdfgraph/internal/rdf"
)

// ErrTxDone is returned when a finished transaction is used.
var ErrTxDone = errors.New("store: transaction already committed or aborted")

// ErrInvalidStatement is returned for statements the store cannot encode.
var ErrInvalidStatement = errors.New("store: invalid statement")

// Outcome reports the rows actually changed by Apply.
// Inserting an existing statement or deleting a missing one changes nothing.
type Outcome struct {
	Inserted int
	Deleted  int
}

// Tx is a read-write transaction. Reads through Query see the transaction's
// own uncommitted writes.
//
// Thread-safety: Tx is not safe for concurrent Apply calls; the graph
// serialises writers.
type Tx struct {
	store    *Store
	tx       *sql.Tx
	inserted int
	deleted  int
	seq      int64
	done     bool
}

// Apply atomically deletes then inserts the given statements.
// On failure the transaction is left exactly as it was before the call.
func (t *Tx) Apply(ctx context.Context, insertions, deletions []rdf.Statement) (Outcome, error) {
	if t.done {
		return Outcome{}, ErrTxDone
	}

	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT apply_batch"); err != nil {
		return Outcome{}, fmt.Errorf("apply: savepoint: %w", err)
	}

	out, err := t.apply(ctx, insertions, deletions)
	if err != nil {
		// The caller's context may be the reason for the failure.
		undo := context.WithoutCancel(ctx)
		if _, rbErr := t.tx.ExecContext(undo, "ROLLBACK TO apply_batch"); rbErr != nil {
			return Outcome{}, errors.Join(err, fmt.Errorf("apply: rollback to savepoint: %w", rbErr))
		}
		_, _ = t.tx.ExecContext(undo, "RELEASE apply_batch")
		return Outcome{}, err
	}

	if _, err := t.tx.ExecContext(ctx, "RELEASE apply_batch"); err != nil {
		return Outcome{}, fmt.Errorf("apply: release savepoint: %w", err)
	}

	t.inserted += out.Inserted
	t.deleted += out.Deleted
	return out, nil
}

func (t *Tx) apply(ctx context.Context, insertions, deletions []rdf.Statement) (Outcome, error) {
	var out Outcome

	for _, st := range deletions {
		row, err := encode(st)
		if err != nil {
			return Outcome{}, fmt.Errorf("apply: delete: %w", err)
		}
		res, err := t.tx.ExecContext(ctx, `
			DELETE FROM statements
			WHERE subject = ? AND predicate = ? AND object = ? AND datatype = ? AND context = ?
		`, row.subject, row.predicate, row.object, row.datatype, row.context)
		if err != nil {
			return Outcome{}, fmt.Errorf("apply: delete: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return Outcome{}, fmt.Errorf("apply: rows affected: %w", err)
		}
		out.Deleted += int(n)
	}

	for _, st := range insertions {
		row, err := encode(st)
		if err != nil {
			return Outcome{}, fmt.Errorf("apply: insert: %w", err)
		}
		// ON CONFLICT DO NOTHING: a statement is present at most once.
		res, err := t.tx.ExecContext(ctx, `
			INSERT INTO statements (subject, predicate, object, datatype, context)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, row.subject, row.predicate, row.object, row.datatype, row.context)
		if err != nil {
			return Outcome{}, fmt.Errorf("apply: insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return Outcome{}, fmt.Errorf("apply: rows affected: %w", err)
		}
		out.Inserted += int(n)
	}

	return out, nil
}

// Query returns a cursor over statements matching p, including this
// transaction's uncommitted writes. The cursor must be closed before Commit.
func (t *Tx) Query(ctx context.Context, p rdf.Pattern) (iterator.Iterator[rdf.Statement], error) {
	if t.done {
		return nil, ErrTxDone
	}
	return query(ctx, t.tx, p)
}

// Dirty reports whether any Apply in this transaction changed a row.
func (t *Tx) Dirty() bool {
	return t.inserted > 0 || t.deleted > 0
}

// SetSequence records the highest edit sequence number written in this
// transaction. It is stored with the commit.
func (t *Tx) SetSequence(seq int64) {
	t.seq = seq
}

// Commit makes the transaction durable and returns its commit timestamp.
// A transaction that changed nothing commits without recording a new
// timestamp and returns the previous one.
func (t *Tx) Commit(ctx context.Context) (int64, error) {
	if t.done {
		return 0, ErrTxDone
	}
	t.done = true

	if !t.Dirty() {
		if err := t.tx.Commit(); err != nil {
			return 0, fmt.Errorf("commit: %w", err)
		}
		return t.store.LastCommit(), nil
	}

	ts := t.store.nextCommitTime()
	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO commits (commit_time, inserted, deleted, last_seq) VALUES (?, ?, ?, ?)
	`, ts, t.inserted, t.deleted, t.seq); err != nil {
		_ = t.tx.Rollback()
		return 0, fmt.Errorf("commit: record: %w", err)
	}

	if err := t.tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	t.store.recordCommit(ts, t.seq)
	return ts, nil
}

// Abort discards every write made in the transaction.
func (t *Tx) Abort() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("abort: %w", err)
	}
	return nil
}
