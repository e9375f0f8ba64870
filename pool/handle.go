package pool

import (
	"fmt"
	"math"

	"github.com/pyrite-engine/pyrite/visit"
)

const (
	// noneIndex is the slot index of the sentinel "no reference" handle.
	noneIndex = math.MaxUint32
	// noneGeneration is the generation of the sentinel handle. Slot
	// generations skip this value on wraparound, so the sentinel can never
	// match a live slot.
	noneGeneration = math.MaxUint32
)

// Handle is a typed, copyable, non-owning reference into a Pool[T]: a slot
// index plus the generation the slot had when the handle was issued. The
// type parameter exists purely so a handle into one pool cannot be passed to
// a pool of another payload type.
//
// Handles are comparable and usable as map keys. Two handles are equal iff
// both index and generation match.
type Handle[T any] struct {
	index      uint32
	generation uint32
}

// None returns the sentinel "no reference" handle. It is reported invalid
// by every pool.
func None[T any]() Handle[T] {
	return Handle[T]{index: noneIndex, generation: noneGeneration}
}

// IsNone reports whether h is the sentinel handle.
func (h Handle[T]) IsNone() bool {
	return h.index == noneIndex && h.generation == noneGeneration
}

// Index returns the slot index.
func (h Handle[T]) Index() uint32 { return h.index }

// Generation returns the generation counter.
func (h Handle[T]) Generation() uint32 { return h.generation }

// Compare orders handles by (index, generation). It returns -1, 0 or 1,
// suitable for deterministic iteration and sorted containers.
func (h Handle[T]) Compare(o Handle[T]) int {
	switch {
	case h.index < o.index:
		return -1
	case h.index > o.index:
		return 1
	case h.generation < o.generation:
		return -1
	case h.generation > o.generation:
		return 1
	default:
		return 0
	}
}

// Raw returns the untyped (index, generation) pair used by the persistence
// layer. The pair carries no pool identity; re-binding to a live pool after
// a load is the caller's responsibility.
func (h Handle[T]) Raw() visit.Ref {
	return visit.Ref{Index: h.index, Generation: h.generation}
}

// FromRaw reconstructs a typed handle from a persisted (index, generation)
// pair.
func FromRaw[T any](r visit.Ref) Handle[T] {
	return Handle[T]{index: r.Index, generation: r.Generation}
}

// String implements fmt.Stringer.
func (h Handle[T]) String() string {
	if h.IsNone() {
		return "Handle(none)"
	}
	return fmt.Sprintf("Handle(%d:%d)", h.index, h.generation)
}
