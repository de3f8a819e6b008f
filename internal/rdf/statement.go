package rdf

import (
	"strings"
)

// Statement is a quad. Context is empty for the default graph.
type Statement struct {
	Subject   URI
	Predicate URI
	Object    Term
	Context   URI
}

// String renders the statement as one N-Quads line.
func (s Statement) String() string {
	var b strings.Builder
	b.WriteString(s.Subject.String())
	b.WriteByte(' ')
	b.WriteString(s.Predicate.String())
	b.WriteByte(' ')
	if s.Object != nil {
		b.WriteString(s.Object.String())
	}
	if !s.Context.IsZero() {
		b.WriteByte(' ')
		b.WriteString(s.Context.String())
	}
	b.WriteString(" .")
	return b.String()
}

// Pattern selects statements. Zero-valued fields match anything.
type Pattern struct {
	Subject   URI
	Predicate URI
	Object    Term
	Context   URI

	// PredicatePrefix restricts matches to predicates starting with the
	// prefix. Ignored when Predicate is set.
	PredicatePrefix string
}

// Matches reports whether st satisfies the pattern.
func (p Pattern) Matches(st Statement) bool {
	if !p.Subject.IsZero() && p.Subject != st.Subject {
		return false
	}
	if !p.Predicate.IsZero() {
		if p.Predicate != st.Predicate {
			return false
		}
	} else if p.PredicatePrefix != "" && !strings.HasPrefix(string(st.Predicate), p.PredicatePrefix) {
		return false
	}
	if p.Object != nil && p.Object != st.Object {
		return false
	}
	if !p.Context.IsZero() && p.Context != st.Context {
		return false
	}
	return true
}

// Op is the direction of a raw mutation.
type Op int

const (
	// Insert adds a statement.
	Insert Op = iota
	// Delete removes a statement.
	Delete
)

// Delta is one raw statement-level mutation.
type Delta struct {
	Op        Op
	Statement Statement
}

// String renders "+ <quad>" or "- <quad>".
func (d Delta) String() string {
	if d.Op == Delete {
		return "- " + d.Statement.String()
	}
	return "+ " + d.Statement.String()
}

// Deltas builds the delta list for a batch: deletions first, then insertions,
// which is the order the store applies them.
func Deltas(insertions, deletions []Statement) []Delta {
	out := make([]Delta, 0, len(insertions)+len(deletions))
	for _, st := range deletions {
		out = append(out, Delta{Op: Delete, Statement: st})
	}
	for _, st := range insertions {
		out = append(out, Delta{Op: Insert, Statement: st})
	}
	return out
}

// Render joins deltas into the textual form of a raw mutation, one per line.
func Render(deltas []Delta) string {
	lines := make([]string, len(deltas))
	for i, d := range deltas {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}
