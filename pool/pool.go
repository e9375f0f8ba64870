package pool

import "iter"

// slot is one entry in the dense payload array. A live slot holds the
// generation that was current at allocation; a freed slot keeps that
// generation until reuse, at which point it increments by exactly one.
type slot[T any] struct {
	value      T
	generation uint32
	live       bool
}

// Pool is a generational arena over payloads of type T. The zero value is
// ready to use. A Pool exclusively owns the values it holds; handles are
// weak, validated-lookup references.
type Pool[T any] struct {
	slots []slot[T]
	// free is a LIFO stack of reusable slot indices. LIFO keeps generation
	// growth localized to hot slots.
	free []uint32
}

// New creates an empty pool.
func New[T any]() *Pool[T] {
	return &Pool[T]{}
}

// WithCapacity creates an empty pool with room for n entries before the
// slot array reallocates.
func WithCapacity[T any](n int) *Pool[T] {
	return &Pool[T]{slots: make([]slot[T], 0, n)}
}

// nextGeneration returns the generation a slot takes on reuse. Generations
// wrap at the integer width rather than saturating; a collision needs ~4
// billion reuses of one slot while an original handle is still held, which
// is accepted as astronomically unlikely. The sentinel generation is
// skipped so None can never match a live slot.
func nextGeneration(g uint32) uint32 {
	g++
	if g == noneGeneration {
		g = 0
	}
	return g
}

// Spawn places value into the pool and returns its handle. The head of the
// free list is reused when available (with the slot's generation bumped);
// otherwise a new slot is appended at generation 0. Spawn never fails.
func (p *Pool[T]) Spawn(value T) Handle[T] {
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		s := &p.slots[idx]
		s.value = value
		s.generation = nextGeneration(s.generation)
		s.live = true
		return Handle[T]{index: idx, generation: s.generation}
	}
	idx := uint32(len(p.slots))
	p.slots = append(p.slots, slot[T]{value: value, generation: 0, live: true})
	return Handle[T]{index: idx, generation: 0}
}

// at returns the slot h points to, or nil when h is stale: index out of
// range, generation mismatch, or slot not live.
func (p *Pool[T]) at(h Handle[T]) *slot[T] {
	if uint64(h.index) >= uint64(len(p.slots)) {
		return nil
	}
	s := &p.slots[h.index]
	if !s.live || s.generation != h.generation {
		return nil
	}
	return s
}

// IsValid reports whether h currently refers to a live entry.
func (p *Pool[T]) IsValid(h Handle[T]) bool {
	return p.at(h) != nil
}

// Get returns a pointer to the entry h refers to, or nil for a stale
// handle. The pointer is valid until the next Spawn (the slot array may
// move) or until the entry is freed.
func (p *Pool[T]) Get(h Handle[T]) *T {
	s := p.at(h)
	if s == nil {
		return nil
	}
	return &s.value
}

// Value returns a copy of the entry h refers to.
func (p *Pool[T]) Value(h Handle[T]) (T, bool) {
	s := p.at(h)
	if s == nil {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Free removes the entry h refers to and returns it. The slot keeps its
// generation until reuse, so h (and every copy of it) is stale from now on.
// Freeing a stale or already-freed handle is an idempotent no-op returning
// the zero value and false.
func (p *Pool[T]) Free(h Handle[T]) (T, bool) {
	s := p.at(h)
	if s == nil {
		var zero T
		return zero, false
	}
	value := s.value
	var zero T
	s.value = zero // drop the payload so the pool does not pin it
	s.live = false
	p.free = append(p.free, h.index)
	return value, true
}

// HandleAt returns the handle of the live occupant of the given slot, or
// None when the slot is out of range or free.
func (p *Pool[T]) HandleAt(index uint32) Handle[T] {
	if uint64(index) >= uint64(len(p.slots)) || !p.slots[index].live {
		return None[T]()
	}
	return Handle[T]{index: index, generation: p.slots[index].generation}
}

// All returns an iterator over the live (handle, entry) pairs in slot
// order. The sequence is finite and restartable; each call reflects the
// pool state at iteration time. Spawning or freeing while the sequence is
// in flight is a caller error (see the package concurrency contract).
func (p *Pool[T]) All() iter.Seq2[Handle[T], *T] {
	return func(yield func(Handle[T], *T) bool) {
		for i := range p.slots {
			s := &p.slots[i]
			if !s.live {
				continue
			}
			h := Handle[T]{index: uint32(i), generation: s.generation}
			if !yield(h, &s.value) {
				return
			}
		}
	}
}

// Retain frees every live entry for which keep returns false, in slot
// order, each through the single-item free path so freed slots re-enter the
// free list normally.
func (p *Pool[T]) Retain(keep func(h Handle[T], value *T) bool) {
	for i := range p.slots {
		s := &p.slots[i]
		if !s.live {
			continue
		}
		h := Handle[T]{index: uint32(i), generation: s.generation}
		if !keep(h, &s.value) {
			p.Free(h)
		}
	}
}

// Len returns the number of live entries.
func (p *Pool[T]) Len() int {
	return len(p.slots) - len(p.free)
}

// Capacity returns the total number of slots, live and free.
func (p *Pool[T]) Capacity() int {
	return len(p.slots)
}

// Clear frees every live entry. Generations are preserved, so handles into
// the cleared pool stay stale after their slots are reused.
func (p *Pool[T]) Clear() {
	p.Retain(func(Handle[T], *T) bool { return false })
}
