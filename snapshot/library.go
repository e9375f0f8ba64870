package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pyrite-engine/pyrite/blobstore"
	"github.com/pyrite-engine/pyrite/visit"
)

const (
	// CurrentPointer names the blob holding the current manifest name.
	CurrentPointer = "CURRENT"

	manifestFormatVersion = 1
	defaultConcurrency    = 4
)

// ErrDocumentNotFound is returned when a named document is not in the
// current manifest.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentInfo describes one snapshot in a manifest.
type DocumentInfo struct {
	Name     string `json:"name"`
	Blob     string `json:"blob"`
	Size     int64  `json:"size"`
	Checksum uint32 `json:"checksum"`
}

// Manifest is the versioned catalog of a library's snapshots. It is stored
// as JSON next to the blobs; CURRENT points at the latest one.
type Manifest struct {
	FormatVersion int            `json:"format_version"`
	Version       uint64         `json:"version"`
	CreatedAt     time.Time      `json:"created_at"`
	Documents     []DocumentInfo `json:"documents"`
}

func (m *Manifest) document(name string) (DocumentInfo, bool) {
	for _, d := range m.Documents {
		if d.Name == name {
			return d, true
		}
	}
	return DocumentInfo{}, false
}

// LibraryOptions configure a Library.
type LibraryOptions struct {
	// Compression is applied to every saved snapshot.
	Compression Compression
	// Concurrency bounds parallel uploads in SaveAll.
	Concurrency int
}

// LibraryOption modifies library options.
type LibraryOption func(*LibraryOptions)

// WithLibraryCompression selects the codec for saved snapshots.
func WithLibraryCompression(c Compression) LibraryOption {
	return func(o *LibraryOptions) {
		o.Compression = c
	}
}

// WithConcurrency bounds parallel uploads in SaveAll.
func WithConcurrency(n int) LibraryOption {
	return func(o *LibraryOptions) {
		o.Concurrency = n
	}
}

// Library manages a set of named snapshots on a blob store.
//
// Every save writes new blobs and then commits a new manifest version by
// updating the CURRENT pointer, so a reader that follows CURRENT always
// sees a complete set. On stores with atomic pointer updates (local
// rename, the S3 commit store) concurrent writers are detected rather
// than silently lost.
type Library struct {
	store blobstore.BlobStore
	opts  LibraryOptions

	mu       sync.Mutex
	manifest Manifest
}

// OpenLibrary opens the library stored in store, loading the current
// manifest. A store with no CURRENT pointer yields an empty library.
func OpenLibrary(ctx context.Context, store blobstore.BlobStore, opts ...LibraryOption) (*Library, error) {
	o := LibraryOptions{
		Compression: CompressionZstd,
		Concurrency: defaultConcurrency,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}

	lib := &Library{store: store, opts: o}
	m, err := loadCurrentManifest(ctx, store)
	if err != nil {
		return nil, err
	}
	lib.manifest = m
	return lib, nil
}

func loadCurrentManifest(ctx context.Context, store blobstore.BlobStore) (Manifest, error) {
	empty := Manifest{FormatVersion: manifestFormatVersion}

	current, err := readBlob(ctx, store, CurrentPointer)
	if errors.Is(err, blobstore.ErrNotFound) {
		return empty, nil
	}
	if err != nil {
		return empty, fmt.Errorf("read %s: %w", CurrentPointer, err)
	}

	data, err := readBlob(ctx, store, string(bytes.TrimSpace(current)))
	if err != nil {
		return empty, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return empty, fmt.Errorf("decode manifest: %w", err)
	}
	if m.FormatVersion != manifestFormatVersion {
		return empty, fmt.Errorf("unsupported manifest format version %d", m.FormatVersion)
	}
	return m, nil
}

func readBlob(ctx context.Context, store blobstore.BlobStore, name string) ([]byte, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return blobstore.ReadFull(b)
}

// Save stores root under name and commits a new manifest version.
func (l *Library) Save(ctx context.Context, name string, root *visit.Node) error {
	return l.SaveAll(ctx, map[string]*visit.Node{name: root})
}

// SaveAll stores every document and commits them in a single manifest
// version. Blobs upload concurrently; the commit is all-or-nothing.
func (l *Library) SaveAll(ctx context.Context, docs map[string]*visit.Node) error {
	if len(docs) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	newVersion := l.manifest.Version + 1

	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]DocumentInfo, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for i, name := range names {
		g.Go(func() error {
			data, err := Encode(docs[name], WithCompression(l.opts.Compression))
			if err != nil {
				return fmt.Errorf("encode %q: %w", name, err)
			}
			blobName := fmt.Sprintf("blobs/%s-%06d.pyr", name, newVersion)
			if err := l.store.Put(gctx, blobName, data); err != nil {
				return fmt.Errorf("upload %q: %w", name, err)
			}
			infos[i] = DocumentInfo{
				Name:     name,
				Blob:     blobName,
				Size:     int64(len(data)),
				Checksum: Checksum(data),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	next := Manifest{
		FormatVersion: manifestFormatVersion,
		Version:       newVersion,
		CreatedAt:     time.Now().UTC(),
		Documents:     merge(l.manifest.Documents, infos),
	}

	manifestName := fmt.Sprintf("MANIFEST-%06d.json", next.Version)
	manifestData, err := json.MarshalIndent(&next, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := l.store.Put(ctx, manifestName, manifestData); err != nil {
		return fmt.Errorf("upload manifest: %w", err)
	}
	if err := l.store.Put(ctx, CurrentPointer, []byte(manifestName)); err != nil {
		return fmt.Errorf("commit %s: %w", CurrentPointer, err)
	}

	l.gc(ctx, l.manifest, next)
	l.manifest = next
	return nil
}

// merge replaces existing entries with fresh ones and keeps the rest,
// sorted by name.
func merge(existing, fresh []DocumentInfo) []DocumentInfo {
	byName := make(map[string]DocumentInfo, len(existing)+len(fresh))
	for _, d := range existing {
		byName[d.Name] = d
	}
	for _, d := range fresh {
		byName[d.Name] = d
	}
	out := make([]DocumentInfo, 0, len(byName))
	for _, d := range byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// gc deletes blobs and the manifest superseded by the commit. Best effort:
// a failed delete leaves garbage, never a broken library.
func (l *Library) gc(ctx context.Context, old, next Manifest) {
	if old.Version == 0 {
		return
	}
	live := make(map[string]bool, len(next.Documents))
	for _, d := range next.Documents {
		live[d.Blob] = true
	}
	for _, d := range old.Documents {
		if !live[d.Blob] {
			_ = l.store.Delete(ctx, d.Blob)
		}
	}
	_ = l.store.Delete(ctx, fmt.Sprintf("MANIFEST-%06d.json", old.Version))
}

// Load reads the document stored under name and materializes its tree.
func (l *Library) Load(ctx context.Context, name string) (*visit.Node, error) {
	l.mu.Lock()
	doc, ok := l.manifest.document(name)
	l.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDocumentNotFound, name)
	}

	data, err := readBlob(ctx, l.store, doc.Blob)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", name, err)
	}
	if int64(len(data)) != doc.Size {
		return nil, fmt.Errorf("read %q: blob size %d does not match manifest %d", name, len(data), doc.Size)
	}
	if err := verifyChecksum(data, doc.Checksum); err != nil {
		return nil, fmt.Errorf("read %q: %w", name, err)
	}
	return ReadBytes(data)
}

// Refresh reloads the manifest from the store, picking up commits made by
// other writers.
func (l *Library) Refresh(ctx context.Context) error {
	m, err := loadCurrentManifest(ctx, l.store)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.manifest = m
	l.mu.Unlock()
	return nil
}

// Documents returns the names in the current manifest, sorted.
func (l *Library) Documents() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, len(l.manifest.Documents))
	for i, d := range l.manifest.Documents {
		names[i] = d.Name
	}
	return names
}

// Version returns the current manifest version. Zero means no commit yet.
func (l *Library) Version() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.manifest.Version
}
