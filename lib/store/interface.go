package store

import (
	"github.com/kyamasaki/goht/lib/table"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// StoreFactory is a function type that creates a new IStore. It abstracts the
// construction of the underlying table away from code that only consumes the
// store, the test suites in particular.
type StoreFactory func() IStore

// IStore is the embeddable convenience surface over one string-keyed table.
// It smooths the engine's contract in two places: Get reports absence through
// a boolean instead of an error, and reads return copies so callers can
// mutate what they get back. Everything else, errors included, is the
// engine's behavior; errors are *table.Error values and carry a table.Code.
type IStore interface {
	// Set inserts or updates a key-value pair in copy mode.
	Set(key string, value []byte) (err error)
	// SetIfAbsent inserts a key-value pair only if the key does not exist and
	// reports whether it did. The check and the insert are one atomic step.
	SetIfAbsent(key string, value []byte) (inserted bool, err error)
	// SetRaw stores the given reference verbatim (raw mode). The store never
	// copies or owns what it refers to.
	SetRaw(key string, value any) (err error)
	// Get returns a copy of the value for a key. The boolean reports whether
	// the key was found; an absent key is not an error. Raw-mode values are
	// returned only if they are byte slices.
	Get(key string) (value []byte, loaded bool, err error)
	// Has reports whether the key exists.
	Has(key string) (loaded bool, err error)
	// Delete removes a key-value pair. Deleting an absent key reports
	// table.CodeKeyNotFound.
	Delete(key string) (err error)
	// Values returns a copy of every copy-mode value currently stored, in no
	// particular order.
	Values() (values [][]byte, err error)
	// Info returns statistics about the underlying table.
	Info() (info table.TableInfo, err error)
	// Close destroys the underlying table.
	Close() (err error)
}
