// Package blobstore abstracts the byte sinks and sources snapshots are
// persisted to.
//
// The core serialization layers only ever see io.Writer/io.Reader; this
// package is the host-side answer to "where do the bytes live". Backends:
//
//   - MemoryStore: in-process map, for tests and ephemeral state
//   - LocalStore: local filesystem, memory-mapped reads, atomic writes
//   - blobstore/s3: AWS S3, optionally with a DynamoDB commit pointer
//   - blobstore/minio: MinIO and other S3-compatible object stores
//   - RateLimitedStore: throughput-capped wrapper for background traffic
package blobstore
