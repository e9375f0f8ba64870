package blobstore

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedStore caps the byte throughput of another BlobStore. Useful for
// background snapshot traffic that must not starve foreground work.
type RateLimitedStore struct {
	inner   BlobStore
	limiter *rate.Limiter
}

// NewRateLimitedStore wraps inner with a token bucket of bytesPerSecond
// sustained throughput and burst capacity.
func NewRateLimitedStore(inner BlobStore, bytesPerSecond float64, burst int) *RateLimitedStore {
	return &RateLimitedStore{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSecond), burst),
	}
}

// Open opens a blob whose reads are throttled.
func (s *RateLimitedStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &rateLimitedBlob{inner: b, store: s, ctx: ctx}, nil
}

// Create creates a blob whose writes are throttled.
func (s *RateLimitedStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	wb, err := s.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &rateLimitedWritableBlob{inner: wb, store: s, ctx: ctx}, nil
}

// Put writes a blob after reserving its full size from the budget.
func (s *RateLimitedStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.wait(ctx, len(data)); err != nil {
		return err
	}
	return s.inner.Put(ctx, name, data)
}

// Delete removes a blob. Deletes are not throttled.
func (s *RateLimitedStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

// List returns blob names. Listing is not throttled.
func (s *RateLimitedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// wait blocks until n bytes of budget are available. Requests larger than
// the burst are split so they cannot deadlock the limiter.
func (s *RateLimitedStore) wait(ctx context.Context, n int) error {
	burst := s.limiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := s.limiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

type rateLimitedBlob struct {
	inner Blob
	store *RateLimitedStore
	ctx   context.Context
}

func (b *rateLimitedBlob) ReadAt(p []byte, off int64) (int, error) {
	if err := b.store.wait(b.ctx, len(p)); err != nil {
		return 0, err
	}
	return b.inner.ReadAt(p, off)
}

func (b *rateLimitedBlob) Close() error { return b.inner.Close() }

func (b *rateLimitedBlob) Size() int64 { return b.inner.Size() }

type rateLimitedWritableBlob struct {
	inner WritableBlob
	store *RateLimitedStore
	ctx   context.Context
}

func (b *rateLimitedWritableBlob) Write(p []byte) (int, error) {
	if err := b.store.wait(b.ctx, len(p)); err != nil {
		return 0, err
	}
	return b.inner.Write(p)
}

func (b *rateLimitedWritableBlob) Sync() error { return b.inner.Sync() }

func (b *rateLimitedWritableBlob) Close() error { return b.inner.Close() }
