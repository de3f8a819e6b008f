package rdf

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// XSD datatypes used for typed literals.
const (
	XSDString   URI = "http://www.w3.org/2001/XMLSchema#string"
	XSDBoolean  URI = "http://www.w3.org/2001/XMLSchema#boolean"
	XSDInteger  URI = "http://www.w3.org/2001/XMLSchema#integer"
	XSDLong     URI = "http://www.w3.org/2001/XMLSchema#long"
	XSDInt      URI = "http://www.w3.org/2001/XMLSchema#int"
	XSDShort    URI = "http://www.w3.org/2001/XMLSchema#short"
	XSDByte     URI = "http://www.w3.org/2001/XMLSchema#byte"

	XSDNonNegativeInteger URI = "http://www.w3.org/2001/XMLSchema#nonNegativeInteger"
	XSDUnsignedLong       URI = "http://www.w3.org/2001/XMLSchema#unsignedLong"
	XSDUnsignedInt        URI = "http://www.w3.org/2001/XMLSchema#unsignedInt"
	XSDUnsignedShort      URI = "http://www.w3.org/2001/XMLSchema#unsignedShort"
	XSDUnsignedByte       URI = "http://www.w3.org/2001/XMLSchema#unsignedByte"

	XSDFloat    URI = "http://www.w3.org/2001/XMLSchema#float"
	XSDDouble   URI = "http://www.w3.org/2001/XMLSchema#double"
	XSDDateTime URI = "http://www.w3.org/2001/XMLSchema#dateTime"
)

// Term is a sealed interface for statement objects.
// Only URI and Literal implement it.
type Term interface {
	term()
	String() string
}

// URI is an absolute identifier. The zero value means "unbound" in patterns
// and "default graph" in a statement context.
type URI string

func (URI) term() {}

// String returns the N-Triples form <uri>.
func (u URI) String() string {
	return "<" + string(u) + ">"
}

// IsZero reports whether u is unbound.
func (u URI) IsZero() bool {
	return u == ""
}

// Literal is a typed RDF literal.
type Literal struct {
	Lexical  string
	Datatype URI
}

func (Literal) term() {}

// NewLiteral creates a literal. The lexical form is kept byte for byte;
// only keys and labels are normalised (see Escape).
func NewLiteral(lexical string, datatype URI) Literal {
	if datatype == "" {
		datatype = XSDString
	}
	return Literal{Lexical: lexical, Datatype: datatype}
}

// String returns the N-Triples form. xsd:string literals are written without
// a datatype as RDF 1.1 allows.
func (l Literal) String() string {
	var b strings.Builder
	b.WriteByte('"')
	b.WriteString(escapeLexical(l.Lexical))
	b.WriteByte('"')
	if l.Datatype != "" && l.Datatype != XSDString {
		b.WriteString("^^")
		b.WriteString(l.Datatype.String())
	}
	return b.String()
}

// Equal reports value equality: same datatype and same lexical form.
func (l Literal) Equal(other Literal) bool {
	return l.Datatype == other.Datatype && l.Lexical == other.Lexical
}

func escapeLexical(s string) string {
	if !strings.ContainsAny(s, "\\\"\n\r\t") {
		return s
	}
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return r.Replace(s)
}

// Namespace builds the URIs of the graph vocabulary under a common prefix.
type Namespace string

// DefaultNamespace is used when no namespace is configured.
const DefaultNamespace Namespace = "urn:rdfgraph:"

const (
	propSegment  = "prop/"
	edgeSegment  = "edge/"
	idSegment    = "id/"
	labelSegment = "label"
)

// Label is the predicate linking a vertex to its label literal.
func (n Namespace) Label() URI {
	return URI(string(n) + labelSegment)
}

// Key returns the predicate for a property key.
func (n Namespace) Key(key string) URI {
	return URI(string(n) + propSegment + Escape(key))
}

// KeyPrefix is the predicate prefix shared by all property keys.
func (n Namespace) KeyPrefix() string {
	return string(n) + propSegment
}

// EdgeLabel returns the predicate for an edge label.
func (n Namespace) EdgeLabel(label string) URI {
	return URI(string(n) + edgeSegment + Escape(label))
}

// EdgePrefix is the predicate prefix shared by all edge labels.
func (n Namespace) EdgePrefix() string {
	return string(n) + edgeSegment
}

// Identifier returns the URI for an element of the given label.
func (n Namespace) Identifier(label, unique string) URI {
	return URI(string(n) + idSegment + Escape(label) + "/" + unique)
}

// KeyOf extracts the property key from a key predicate.
func (n Namespace) KeyOf(p URI) (string, bool) {
	return n.unescapeAfter(p, n.KeyPrefix())
}

// EdgeLabelOf extracts the edge label from an edge predicate.
func (n Namespace) EdgeLabelOf(p URI) (string, bool) {
	return n.unescapeAfter(p, n.EdgePrefix())
}

func (n Namespace) unescapeAfter(p URI, prefix string) (string, bool) {
	s, ok := strings.CutPrefix(string(p), prefix)
	if !ok {
		return "", false
	}
	v, err := url.PathUnescape(s)
	if err != nil {
		return "", false
	}
	return v, true
}

// Escape makes a key or label safe to embed in a URI path segment.
// Input is NFC normalised first so equivalent keys map to one predicate.
func Escape(s string) string {
	return url.PathEscape(norm.NFC.String(s))
}
