package graph

import (
	"errors"
	"fmt"
)

// Code categorizes graph errors.
type Code string

const (
	// CodeInvalidProperty indicates a malformed key, value or key/value list.
	CodeInvalidProperty Code = "INVALID_PROPERTY"

	// CodeMultipleProperties indicates a single-valued read found several values.
	CodeMultipleProperties Code = "MULTIPLE_PROPERTIES"

	// CodeUserSuppliedID indicates the caller tried to choose an identifier.
	CodeUserSuppliedID Code = "USER_SUPPLIED_ID"

	// CodeNullArgument indicates a required argument was nil.
	CodeNullArgument Code = "NULL_ARGUMENT"

	// CodeUnsupportedCardinality indicates an unknown cardinality value.
	CodeUnsupportedCardinality Code = "UNSUPPORTED_CARDINALITY"

	// CodeElementRemoved indicates the element no longer exists.
	CodeElementRemoved Code = "ELEMENT_REMOVED"

	// CodeNotFound indicates a lookup by identifier matched nothing.
	CodeNotFound Code = "NOT_FOUND"

	// CodeStoreFailure wraps an error returned by the triple store.
	CodeStoreFailure Code = "STORE_FAILURE"

	// CodeOpenIterators indicates a transaction boundary was requested while
	// result iterators were still open.
	CodeOpenIterators Code = "OPEN_ITERATORS"
)

// Error is the single error type returned by the graph.
//
// Match categories with errors.Is against the sentinels below, or with the
// Is* helpers. Store failures keep the engine error reachable via Unwrap.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Key is the property key involved, if any.
	Key string

	// Err is the underlying store error for CodeStoreFailure.
	Err error
}

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrInvalidProperty        = &Error{Code: CodeInvalidProperty}
	ErrMultipleProperties     = &Error{Code: CodeMultipleProperties}
	ErrUserSuppliedID         = &Error{Code: CodeUserSuppliedID}
	ErrNullArgument           = &Error{Code: CodeNullArgument}
	ErrUnsupportedCardinality = &Error{Code: CodeUnsupportedCardinality}
	ErrElementRemoved         = &Error{Code: CodeElementRemoved}
	ErrNotFound               = &Error{Code: CodeNotFound}
	ErrStoreFailure           = &Error{Code: CodeStoreFailure}
	ErrOpenIterators          = &Error{Code: CodeOpenIterators}
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" (key=%s)", e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying store error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the Code of a graph error, or "" for other errors.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// IsValidationError returns true for errors raised before any store access.
func IsValidationError(err error) bool {
	switch CodeOf(err) {
	case CodeInvalidProperty, CodeUserSuppliedID, CodeNullArgument, CodeUnsupportedCardinality:
		return true
	}
	return false
}

// IsStoreFailure returns true if the error originated in the triple store.
func IsStoreFailure(err error) bool {
	return CodeOf(err) == CodeStoreFailure
}

func invalidProperty(key, format string, args ...any) *Error {
	return &Error{Code: CodeInvalidProperty, Message: fmt.Sprintf(format, args...), Key: key}
}

func multipleProperties(key string) *Error {
	return &Error{Code: CodeMultipleProperties, Message: "multiple properties exist for the provided key, use Properties", Key: key}
}

func userSuppliedID() *Error {
	return &Error{Code: CodeUserSuppliedID, Message: "identifiers are assigned by the store"}
}

func nullArgument(name string) *Error {
	return &Error{Code: CodeNullArgument, Message: fmt.Sprintf("argument %q can not be nil", name)}
}

func removed(what fmt.Stringer) *Error {
	return &Error{Code: CodeElementRemoved, Message: fmt.Sprintf("%s has been removed", what)}
}

func notFound(kind, id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s %s does not exist", kind, id)}
}

// storeFailure wraps err unless it already is a graph error.
func storeFailure(op string, err error) error {
	var ge *Error
	if errors.As(err, &ge) {
		return err
	}
	return &Error{Code: CodeStoreFailure, Message: op, Err: err}
}
