// Package mmap provides read-only memory-mapped file access.
//
// Snapshot files are parsed in a single pass; mapping them avoids copying
// the whole payload through a read buffer first. The package presents one
// API across platforms:
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile (advise is a no-op)
//
// Mapping is safe for concurrent reads. Close is idempotent, but callers
// must ensure no goroutine touches Bytes() after Close returns.
package mmap
