package graph

import (
	"github.com/roach88/rdfgraph/internal/rdf"
)

// T names reserved element tokens that may appear in key/value lists.
type T string

// ID is the identifier token. Supplying it is always rejected because
// identifiers are assigned by the store.
const ID T = "T.id"

// keyValue is one validated entry of a key/value list.
type keyValue struct {
	key   string
	value any
	lit   rdf.Literal
}

// parseKeyValues validates an alternating key/value list.
// Keys must be non-empty strings; values must map to a literal.
func parseKeyValues(kvs []any) ([]keyValue, error) {
	if len(kvs)%2 != 0 {
		return nil, invalidProperty("", "key/value list must have an even number of entries, got %d", len(kvs))
	}
	out := make([]keyValue, 0, len(kvs)/2)
	for i := 0; i < len(kvs); i += 2 {
		switch k := kvs[i].(type) {
		case T:
			if k == ID {
				return nil, userSuppliedID()
			}
			return nil, invalidProperty(string(k), "token %s is not a property key", k)
		case string:
			kv, err := validateProperty(k, kvs[i+1])
			if err != nil {
				return nil, err
			}
			out = append(out, kv)
		default:
			return nil, invalidProperty("", "key at position %d must be a string, got %T", i, kvs[i])
		}
	}
	return out, nil
}

// validateProperty checks a key and value before any store access.
func validateProperty(key string, value any) (keyValue, error) {
	if key == "" {
		return keyValue{}, invalidProperty(key, "property key can not be empty")
	}
	if value == nil {
		return keyValue{}, invalidProperty(key, "property value can not be nil")
	}
	lit, err := rdf.LiteralOf(value)
	if err != nil {
		return keyValue{}, invalidProperty(key, "%v", err)
	}
	return keyValue{key: key, value: value, lit: lit}, nil
}
