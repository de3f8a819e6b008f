package graph

import (
	"fmt"
	"strings"

	"github.com/roach88/rdfgraph/internal/rdf"
)

// Cardinality is the multiplicity policy for a vertex property key.
type Cardinality int

const (
	// Single keeps at most one value per key. Writing replaces.
	Single Cardinality = iota
	// Set keeps distinct values. Writing an existing value is a no-op.
	Set
	// List keeps every value written, duplicates included.
	List
)

func (c Cardinality) String() string {
	switch c {
	case Single:
		return "single"
	case Set:
		return "set"
	case List:
		return "list"
	default:
		return fmt.Sprintf("Cardinality(%d)", int(c))
	}
}

// ParseCardinality parses "single", "set" or "list".
func ParseCardinality(s string) (Cardinality, error) {
	switch strings.ToLower(s) {
	case "single":
		return Single, nil
	case "set":
		return Set, nil
	case "list":
		return List, nil
	}
	return 0, &Error{Code: CodeUnsupportedCardinality, Message: fmt.Sprintf("cardinality %q is not supported", s)}
}

// CardinalityPolicy chooses the cardinality used when a caller writes a
// vertex property without naming one.
type CardinalityPolicy struct {
	Default Cardinality
	Keys    map[string]Cardinality
}

// For returns the cardinality for key.
func (p CardinalityPolicy) For(key string) Cardinality {
	if c, ok := p.Keys[key]; ok {
		return c
	}
	return p.Default
}

// resolution is the outcome of reconciling a new value with the existing
// property statements for one (vertex, key) pair.
type resolution struct {
	// replace lists existing property statements to delete.
	replace []rdf.Statement

	// insert is false when the write is a no-op.
	insert bool

	// match is the existing statement holding an equal value, for set no-ops.
	match *rdf.Statement
}

// resolveCardinality decides how a new value combines with existing ones.
// The caller applies the result as one batch.
func resolveCardinality(c Cardinality, existing []rdf.Statement, value rdf.Literal) (resolution, error) {
	switch c {
	case Single:
		return resolution{replace: existing, insert: true}, nil
	case Set:
		for i := range existing {
			if lit, ok := existing[i].Object.(rdf.Literal); ok && lit.Equal(value) {
				return resolution{match: &existing[i]}, nil
			}
		}
		return resolution{insert: true}, nil
	case List:
		return resolution{insert: true}, nil
	default:
		return resolution{}, &Error{Code: CodeUnsupportedCardinality, Message: fmt.Sprintf("cardinality %s is not supported", c)}
	}
}
