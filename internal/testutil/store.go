package testutil

import (
	"github.com/roach88/rdfgraph/internal/store"
)

// StoreOptions returns options that make a store deterministic: identifiers
// are "1", "2", "3", ... and every commit timestamp derives from a frozen
// Epoch clock.
//
// The same scenario run against a fresh database with these options
// produces byte-identical dumps and edit renderings.
func StoreOptions() []store.Option {
	return []store.Option{
		store.WithIDGenerator(store.NewSequenceGenerator()),
		store.WithClock(NewWallClock(Epoch, 0).Now),
	}
}
