package snapshot

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pyrite-engine/pyrite/internal/mmap"
	"github.com/pyrite-engine/pyrite/visit"
)

const fileBufferSize = 256 * 1024

// SaveFile writes a snapshot to path atomically: the bytes go to a temp
// file in the same directory, are fsynced, and replace path with a rename.
// A crash mid-save leaves the previous file intact.
func SaveFile(path string, root *visit.Node, opts ...Option) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := bufio.NewWriterSize(tmp, fileBufferSize)
	if err := Write(w, root, opts...); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	// Persist the rename itself. Best effort where unsupported.
	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}
	return nil
}

// LoadFile reads a snapshot from path. The file is memory-mapped for the
// duration of the decode.
func LoadFile(path string) (*visit.Node, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	m.Advise(mmap.AccessSequential)
	return ReadBytes(m.Bytes())
}
