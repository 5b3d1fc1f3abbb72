package storage

import (
	"context"
	"io"
)

// FileStore is the object-storage collaborator. It accepts a byte stream
// plus filename and content type and returns a stable key; keys are opaque
// to callers.
type FileStore interface {
	// Save writes the stream and returns the stored object's key.
	Save(ctx context.Context, r io.Reader, filename, contentType string) (string, error)

	// Open returns a reader for the stored object.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether the key resolves to a stored object.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the stored object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
