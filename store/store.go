// Package store declares the dataset I/O collaborator interface and ships
// a plain filesystem implementation.
//
// Upload bookkeeping and spreadsheet styling live in the consuming
// application; this package fixes the contract the core depends on.
package store

import (
	"context"

	"github.com/tabula-org/tabula/dataset"
)

// Provider loads and persists datasets by id. Implementations own the
// storage layout; the core never touches files directly.
type Provider interface {
	// Load materializes a stored dataset.
	Load(ctx context.Context, id string) (*dataset.Dataset, error)

	// Save persists a dataset in the given format ("csv" or "xlsx") and
	// returns an opaque handle for later retrieval.
	Save(ctx context.Context, ds *dataset.Dataset, format string) (string, error)
}
