package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for storing and retrieving named blobs.
type BlobStore interface {
	// Open opens an existing blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Create creates a new blob for streaming writes. The blob becomes
	// visible under name when Close returns nil.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a blob in one call, replacing any previous content
	// atomically where the backend allows it.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a stored blob.
type Blob interface {
	io.ReaderAt
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a streaming write handle returned by Create.
type WritableBlob interface {
	io.Writer
	io.Closer
	// Sync flushes buffered data to stable storage where the backend
	// supports it; otherwise a no-op.
	Sync() error
}

// Mappable is an optional interface for Blobs that expose their contents as
// a byte slice without copying. The slice is valid until the Blob is closed.
type Mappable interface {
	Bytes() ([]byte, error)
}

// ReadFull reads the entire blob into memory, using the zero-copy path when
// the blob supports it (the returned slice may then alias the mapping and is
// only valid until the blob is closed).
func ReadFull(b Blob) ([]byte, error) {
	if m, ok := b.(Mappable); ok {
		return m.Bytes()
	}
	data := make([]byte, b.Size())
	if _, err := io.ReadFull(io.NewSectionReader(b, 0, b.Size()), data); err != nil {
		return nil, err
	}
	return data, nil
}
