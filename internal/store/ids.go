package store

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces the unique suffix of allocated identifiers.
// Implemented by UUIDv7Generator (production) and SequenceGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 suffixes.
//
// UUIDv7 embeds a timestamp in the most significant bits, so identifiers
// allocated later sort later. This keeps dumps readable.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator returns "1", "2", "3", ... for deterministic tests and
// golden files.
//
// Thread-safety: SequenceGenerator is safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu   sync.Mutex
	next int
}

// NewSequenceGenerator creates a generator whose first value is "1".
func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{}
}

// Generate returns the next number in the sequence.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return strconv.Itoa(g.next)
}
