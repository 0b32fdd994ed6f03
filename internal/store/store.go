package store

import (
	"github.com/provkit/provisiond/internal/credentials"
)

// Store persists the last successfully connected credential pair.
//
// The agent reads it once at boot, writes it only after a connection
// attempt succeeds, and clears it only on factory reset. Writes are
// last-one-wins and replace both fields together.
type Store interface {
	// Get returns the persisted credentials. The second return value is
	// false when nothing has been persisted yet.
	Get() (credentials.Credentials, bool, error)

	// Put persists the pair, replacing any previous record.
	Put(credentials.Credentials) error

	// Clear erases the record. Clearing an empty store is not an error.
	Clear() error
}
