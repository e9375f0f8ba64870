// Package minio provides a blobstore.BlobStore backend for MinIO and other
// S3-compatible object stores.
//
// Unlike the AWS backend it speaks the S3 protocol through the MinIO client,
// which works against self-hosted deployments without AWS credentials
// plumbing.
package minio
