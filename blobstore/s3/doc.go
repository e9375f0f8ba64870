// Package s3 provides an AWS S3 backend for blobstore.BlobStore.
//
// Plain S3 gives durable storage but no compare-and-swap, so two writers
// racing on the CURRENT pointer can silently drop a commit. CommitStore
// layers a DynamoDB conditional write over the pointer update to make
// concurrent snapshot libraries safe.
package s3
