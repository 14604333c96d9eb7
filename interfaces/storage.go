package interfaces

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrBackendUnavailable is returned when a storage backend is not accessible.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a base directory cannot be mapped to a backend.
	// Supported forms: a plain filesystem path, file:///path or s3://bucket/prefix.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// ArtefactStore reads and replaces artefacts under a single base directory.
// Paths are route storage paths: slash separated, starting with "/".
type ArtefactStore interface {
	// Open returns a reader over the artefact and its size in bytes, or -1 when
	// the size is not known in advance. Returns ErrArtefactNotFound if absent.
	Open(ctx context.Context, path string) (io.ReadCloser, int64, error)

	// Write replaces the whole artefact with data, creating any missing parents.
	Write(ctx context.Context, path string, data []byte) error

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// ArtefactStoreFactory resolves a base directory setting to a backend.
type ArtefactStoreFactory interface {
	// BackendFor returns the store for baseDirectory. Repeated calls with the
	// same value return the same store.
	BackendFor(baseDirectory string) (ArtefactStore, error)
}
