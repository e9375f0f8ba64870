package blobstore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pyrite-engine/pyrite/internal/mmap"
)

const writeBufferSize = 256 * 1024

// LocalStore is a filesystem-backed BlobStore rooted at a directory.
//
// Reads are memory-mapped. Writes go through a temp file in the same
// directory and are published with an atomic rename, so readers never
// observe a half-written blob.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a blob store rooted at dir, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the root directory of the store.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) path(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return filepath.Join(s.dir, clean), nil
}

// Open opens a blob for memory-mapped reading.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Open(p)
	if err != nil {
		return nil, err
	}
	return &localBlob{mapping: m}, nil
}

// Create creates a blob for streaming writes. The blob is staged in a temp
// file and renamed into place when Close returns nil.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), filepath.Base(p)+".tmp-*")
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{
		f:    tmp,
		w:    bufio.NewWriterSize(tmp, writeBufferSize),
		dest: p,
	}, nil
}

// Put writes a blob atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	wb, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := wb.Write(data); err != nil {
		wb.(*localWritableBlob).abort()
		return err
	}
	return wb.Close()
}

// Delete removes a blob. Missing blobs are ignored.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns all blob names with the given prefix, sorted. Names use
// forward slashes regardless of platform.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

type localBlob struct {
	mapping *mmap.Mapping
}

func (b *localBlob) ReadAt(p []byte, off int64) (int, error) {
	data := b.mapping.Bytes()
	if data == nil && b.mapping.Size() > 0 {
		return 0, mmap.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *localBlob) Close() error { return b.mapping.Close() }

func (b *localBlob) Size() int64 { return int64(b.mapping.Size()) }

// Bytes exposes the mapping for zero-copy reads.
func (b *localBlob) Bytes() ([]byte, error) {
	data := b.mapping.Bytes()
	if data == nil && b.mapping.Size() > 0 {
		return nil, mmap.ErrClosed
	}
	return data, nil
}

// Advise passes an access pattern hint to the kernel.
func (b *localBlob) Advise(pattern mmap.AccessPattern) error {
	return b.mapping.Advise(pattern)
}

type localWritableBlob struct {
	f    *os.File
	w    *bufio.Writer
	dest string
}

func (b *localWritableBlob) Write(p []byte) (int, error) {
	return b.w.Write(p)
}

func (b *localWritableBlob) Sync() error {
	if err := b.w.Flush(); err != nil {
		return err
	}
	return b.f.Sync()
}

func (b *localWritableBlob) Close() error {
	if err := b.Sync(); err != nil {
		b.abort()
		return err
	}
	if err := b.f.Close(); err != nil {
		os.Remove(b.f.Name())
		return err
	}
	if err := os.Rename(b.f.Name(), b.dest); err != nil {
		os.Remove(b.f.Name())
		return err
	}
	return syncDir(filepath.Dir(b.dest))
}

func (b *localWritableBlob) abort() {
	b.f.Close()
	os.Remove(b.f.Name())
}

// syncDir fsyncs a directory so a rename survives a crash. Best effort on
// platforms that do not support it.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer d.Close()
	d.Sync()
	return nil
}
