package graph

import (
	"fmt"
	"strings"

	"github.com/roach88/rdfgraph/internal/rdf"
)

// Element is the behaviour shared by vertices, edges and vertex properties.
type Element interface {
	ID() rdf.URI
	Label() string
	fmt.Stringer
}

// Direction selects incident edges relative to a vertex.
type Direction int

const (
	// Out selects edges leaving the vertex.
	Out Direction = iota
	// In selects edges arriving at the vertex.
	In
	// Both selects every incident edge once.
	Both
)

func (d Direction) String() string {
	switch d {
	case Out:
		return "OUT"
	case In:
		return "IN"
	case Both:
		return "BOTH"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection parses "out", "in" or "both", case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "out":
		return Out, nil
	case "in":
		return In, nil
	case "both":
		return Both, nil
	}
	return 0, invalidProperty("", "unknown direction %q", s)
}
