// internal/storage/archive/interface.go
package archive

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no object exists at the path.
var ErrNotFound = errors.New("archive: object not found")

// Storage defines the interface for blob storage backends holding
// serialised scan results
type Storage interface {
	// Write stores data at the given path, replacing any previous object
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix, in lexical order
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path. Deleting a missing
	// object is not an error.
	Delete(ctx context.Context, path string) error
}
