package pool

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Mask is a compressed set of slot indices over one pool, for selection-style
// bookkeeping (everything tagged, everything dirty, everything in a cell).
// It stores indices only, not generations: membership is a hint, and
// Resolve revalidates every index against the pool at iteration time, so
// entries whose slot has been freed or recycled since they were added are
// silently skipped.
//
// Like the pool itself, a Mask performs no internal locking.
type Mask[T any] struct {
	bits *roaring.Bitmap
}

// NewMask creates an empty mask.
func NewMask[T any]() *Mask[T] {
	return &Mask[T]{bits: roaring.New()}
}

// Add records the handle's slot index. Sentinel handles are ignored.
func (m *Mask[T]) Add(h Handle[T]) {
	if h.IsNone() {
		return
	}
	m.bits.Add(h.index)
}

// Remove drops the handle's slot index.
func (m *Mask[T]) Remove(h Handle[T]) {
	m.bits.Remove(h.index)
}

// Contains reports whether the handle's slot index is recorded. It says
// nothing about liveness; use Resolve for validated access.
func (m *Mask[T]) Contains(h Handle[T]) bool {
	return !h.IsNone() && m.bits.Contains(h.index)
}

// Len returns the number of recorded indices, stale entries included.
func (m *Mask[T]) Len() int {
	return int(m.bits.GetCardinality())
}

// Clear removes all recorded indices.
func (m *Mask[T]) Clear() {
	m.bits.Clear()
}

// Or merges another mask's indices into this one.
func (m *Mask[T]) Or(o *Mask[T]) {
	m.bits.Or(o.bits)
}

// And intersects this mask with another.
func (m *Mask[T]) And(o *Mask[T]) {
	m.bits.And(o.bits)
}

// AndNot removes another mask's indices from this one.
func (m *Mask[T]) AndNot(o *Mask[T]) {
	m.bits.AndNot(o.bits)
}

// Clone returns an independent copy.
func (m *Mask[T]) Clone() *Mask[T] {
	return &Mask[T]{bits: m.bits.Clone()}
}

// Compact drops every index whose slot is not currently live in p, and
// shrinks the bitmap's internal containers.
func (m *Mask[T]) Compact(p *Pool[T]) {
	it := m.bits.Iterator()
	var stale []uint32
	for it.HasNext() {
		idx := it.Next()
		if p.HandleAt(idx).IsNone() {
			stale = append(stale, idx)
		}
	}
	for _, idx := range stale {
		m.bits.Remove(idx)
	}
	m.bits.RunOptimize()
}

// Resolve returns an iterator over the live (handle, entry) pairs the mask
// currently selects in p, in ascending slot order. Indices whose slot is
// free are skipped; the usual iteration contract applies (no structural
// pool mutation while the sequence is in flight).
func (m *Mask[T]) Resolve(p *Pool[T]) iter.Seq2[Handle[T], *T] {
	return func(yield func(Handle[T], *T) bool) {
		it := m.bits.Iterator()
		for it.HasNext() {
			idx := it.Next()
			h := p.HandleAt(idx)
			if h.IsNone() {
				continue
			}
			if !yield(h, p.Get(h)) {
				return
			}
		}
	}
}
