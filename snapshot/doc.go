// Package snapshot wraps an encoded node tree in a durable file envelope:
// a fixed header with magic and format version, optional compression, and a
// CRC32 of the stored payload.
//
// The envelope is deliberately dumb. Everything structural lives in the
// wire encoding; this layer only answers "is this one of our files, can
// this build read it, and did the bytes survive storage".
//
// Library manages a set of named snapshots on a blobstore.BlobStore with a
// versioned manifest and a CURRENT pointer, so readers always see a
// complete, consistent set.
package snapshot
