package rdf

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ErrUnsupportedValue is returned when a Go value has no literal mapping.
var ErrUnsupportedValue = errors.New("rdf: unsupported value type")

// LiteralOf converts a Go value into a typed literal.
//
// Supported types: string, bool, signed and unsigned integers of every
// width, float32, float64 and time.Time. Each Go type has its own datatype
// so that every stored value decodes back to the type it was written with.
// Composite values are rejected.
func LiteralOf(v any) (Literal, error) {
	switch val := v.(type) {
	case nil:
		return Literal{}, fmt.Errorf("%w: nil", ErrUnsupportedValue)
	case string:
		return NewLiteral(val, XSDString), nil
	case bool:
		return NewLiteral(strconv.FormatBool(val), XSDBoolean), nil
	case int:
		return NewLiteral(strconv.FormatInt(int64(val), 10), XSDInteger), nil
	case int64:
		return NewLiteral(strconv.FormatInt(val, 10), XSDLong), nil
	case int32:
		return NewLiteral(strconv.FormatInt(int64(val), 10), XSDInt), nil
	case int16:
		return NewLiteral(strconv.FormatInt(int64(val), 10), XSDShort), nil
	case int8:
		return NewLiteral(strconv.FormatInt(int64(val), 10), XSDByte), nil
	case uint:
		return NewLiteral(strconv.FormatUint(uint64(val), 10), XSDNonNegativeInteger), nil
	case uint64:
		return NewLiteral(strconv.FormatUint(val, 10), XSDUnsignedLong), nil
	case uint32:
		return NewLiteral(strconv.FormatUint(uint64(val), 10), XSDUnsignedInt), nil
	case uint16:
		return NewLiteral(strconv.FormatUint(uint64(val), 10), XSDUnsignedShort), nil
	case uint8:
		return NewLiteral(strconv.FormatUint(uint64(val), 10), XSDUnsignedByte), nil
	case float64:
		return NewLiteral(formatFloat(val, 64), XSDDouble), nil
	case float32:
		return NewLiteral(formatFloat(float64(val), 32), XSDFloat), nil
	case time.Time:
		return NewLiteral(val.UTC().Format(time.RFC3339Nano), XSDDateTime), nil
	default:
		return Literal{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// MustLiteral is like LiteralOf but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustLiteral(v any) Literal {
	l, err := LiteralOf(v)
	if err != nil {
		panic(err)
	}
	return l
}

// Value decodes the literal back into the Go type LiteralOf accepted.
func (l Literal) Value() (any, error) {
	switch l.Datatype {
	case XSDString, "":
		return l.Lexical, nil
	case XSDBoolean:
		return strconv.ParseBool(l.Lexical)
	case XSDInteger:
		n, err := strconv.ParseInt(l.Lexical, 10, 64)
		return int(n), err
	case XSDLong:
		return strconv.ParseInt(l.Lexical, 10, 64)
	case XSDInt:
		n, err := strconv.ParseInt(l.Lexical, 10, 32)
		return int32(n), err
	case XSDShort:
		n, err := strconv.ParseInt(l.Lexical, 10, 16)
		return int16(n), err
	case XSDByte:
		n, err := strconv.ParseInt(l.Lexical, 10, 8)
		return int8(n), err
	case XSDNonNegativeInteger:
		n, err := strconv.ParseUint(l.Lexical, 10, strconv.IntSize)
		return uint(n), err
	case XSDUnsignedLong:
		return strconv.ParseUint(l.Lexical, 10, 64)
	case XSDUnsignedInt:
		n, err := strconv.ParseUint(l.Lexical, 10, 32)
		return uint32(n), err
	case XSDUnsignedShort:
		n, err := strconv.ParseUint(l.Lexical, 10, 16)
		return uint16(n), err
	case XSDUnsignedByte:
		n, err := strconv.ParseUint(l.Lexical, 10, 8)
		return uint8(n), err
	case XSDDouble:
		return parseFloat(l.Lexical, 64)
	case XSDFloat:
		f, err := parseFloat(l.Lexical, 32)
		return float32(f), err
	case XSDDateTime:
		return time.Parse(time.RFC3339Nano, l.Lexical)
	default:
		return nil, fmt.Errorf("%w: datatype %s", ErrUnsupportedValue, l.Datatype)
	}
}

// XSD spells infinities INF and -INF.
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func parseFloat(s string, bits int) (float64, error) {
	switch s {
	case "INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, bits)
}
