package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/rdfgraph/internal/iterator"
	"github.com/roach88/rdfgraph/internal/rdf"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// row is the column encoding of one statement.
type row struct {
	subject   string
	predicate string
	object    string
	datatype  string
	context   string
}

func encode(st rdf.Statement) (row, error) {
	if st.Subject.IsZero() || st.Predicate.IsZero() {
		return row{}, fmt.Errorf("%w: unbound subject or predicate", ErrInvalidStatement)
	}
	r := row{
		subject:   string(st.Subject),
		predicate: string(st.Predicate),
		context:   string(st.Context),
	}
	switch o := st.Object.(type) {
	case rdf.URI:
		if o.IsZero() {
			return row{}, fmt.Errorf("%w: unbound object", ErrInvalidStatement)
		}
		r.object = string(o)
	case rdf.Literal:
		r.object = o.Lexical
		r.datatype = string(o.Datatype)
		if r.datatype == "" {
			r.datatype = string(rdf.XSDString)
		}
	default:
		return row{}, fmt.Errorf("%w: object %T", ErrInvalidStatement, st.Object)
	}
	return r, nil
}

func (r row) statement() rdf.Statement {
	st := rdf.Statement{
		Subject:   rdf.URI(r.subject),
		Predicate: rdf.URI(r.predicate),
		Context:   rdf.URI(r.context),
	}
	if r.datatype == "" {
		st.Object = rdf.URI(r.object)
	} else {
		st.Object = rdf.Literal{Lexical: r.object, Datatype: rdf.URI(r.datatype)}
	}
	return st
}

// buildQuery translates a pattern into SQL. Results are ordered by id so
// reads are deterministic and follow insertion order.
func buildQuery(p rdf.Pattern) (string, []any, error) {
	var where []string
	var args []any

	if !p.Subject.IsZero() {
		where = append(where, "subject = ?")
		args = append(args, string(p.Subject))
	}
	if !p.Predicate.IsZero() {
		where = append(where, "predicate = ?")
		args = append(args, string(p.Predicate))
	} else if p.PredicatePrefix != "" {
		// Byte-wise: substr on TEXT counts characters, len counts bytes.
		where = append(where, "substr(CAST(predicate AS BLOB), 1, ?) = CAST(? AS BLOB)")
		args = append(args, len(p.PredicatePrefix), p.PredicatePrefix)
	}
	if p.Object != nil {
		o, err := encode(rdf.Statement{Subject: "_", Predicate: "_", Object: p.Object})
		if err != nil {
			return "", nil, err
		}
		where = append(where, "object = ?", "datatype = ?")
		args = append(args, o.object, o.datatype)
	}
	if !p.Context.IsZero() {
		where = append(where, "context = ?")
		args = append(args, string(p.Context))
	}

	q := "SELECT subject, predicate, object, datatype, context FROM statements"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id ASC"
	return q, args, nil
}

// query opens a cursor. The returned iterator owns the rows and closes them
// on Close.
func query(ctx context.Context, db queryer, p rdf.Pattern) (iterator.Iterator[rdf.Statement], error) {
	q, args, err := buildQuery(p)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}

	return iterator.NewCursor(func() (rdf.Statement, bool, error) {
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return rdf.Statement{}, false, fmt.Errorf("iterate statements: %w", err)
			}
			return rdf.Statement{}, false, nil
		}
		var r row
		if err := rows.Scan(&r.subject, &r.predicate, &r.object, &r.datatype, &r.context); err != nil {
			return rdf.Statement{}, false, fmt.Errorf("scan statement: %w", err)
		}
		return r.statement(), true, nil
	}, rows.Close), nil
}
