package pool

import (
	"fmt"
	"strconv"

	"github.com/pyrite-engine/pyrite/internal/conv"
	"github.com/pyrite-engine/pyrite/visit"
)

// VisitHandle visits a handle field as its raw (index, generation) pair.
// Which pool the pair belongs to is not recorded; a loaded handle is valid
// against the matching pool once that pool has been loaded too.
func VisitHandle[T any](v *visit.Visitor, name string, h *Handle[T]) error {
	r := h.Raw()
	if err := v.Ref(name, &r); err != nil {
		return err
	}
	if v.Reading() {
		*h = FromRaw[T](r)
	}
	return nil
}

// VisitPool visits a whole pool, preserving slot identity: the slot count,
// each slot's generation and liveness, and the live payloads. Handles taken
// before a save therefore still resolve after the matching load, and slots
// that were free at save time re-enter the free list so post-load spawns
// cannot collide with persisted handles.
//
// item visits one payload and is invoked symmetrically in both directions.
func VisitPool[T any](v *visit.Visitor, name string, p *Pool[T], item func(v *visit.Visitor, value *T) error) error {
	return v.Region(name, func() error {
		if v.Reading() {
			return readPool(v, p, item)
		}
		return writePool(v, p, item)
	})
}

// PoolOf is VisitPool for payload types that describe themselves.
func PoolOf[T any, PT interface {
	*T
	visit.Visitable
}](v *visit.Visitor, name string, p *Pool[T]) error {
	return VisitPool(v, name, p, func(v *visit.Visitor, value *T) error {
		return PT(value).Visit(v)
	})
}

func writePool[T any](v *visit.Visitor, p *Pool[T], item func(v *visit.Visitor, value *T) error) error {
	n, err := conv.IntToUint32(len(p.slots))
	if err != nil {
		return err
	}
	if err := v.Uint32("len", &n); err != nil {
		return err
	}
	for i := range p.slots {
		s := &p.slots[i]
		err := v.Region(strconv.Itoa(i), func() error {
			gen := s.generation
			live := s.live
			if err := v.Uint32("gen", &gen); err != nil {
				return err
			}
			if err := v.Bool("live", &live); err != nil {
				return err
			}
			if !live {
				return nil
			}
			return v.Region("value", func() error {
				return item(v, &s.value)
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func readPool[T any](v *visit.Visitor, p *Pool[T], item func(v *visit.Visitor, value *T) error) error {
	var n uint32
	if err := v.Uint32("len", &n); err != nil {
		return err
	}
	count, err := conv.Uint32ToInt(n)
	if err != nil {
		return err
	}
	if got := v.ChildCount(); count > got {
		return fmt.Errorf("%w: pool claims %d slots, stream holds %d",
			visit.ErrCountMismatch, count, got)
	}

	slots := make([]slot[T], count)
	var free []uint32
	for i := range slots {
		s := &slots[i]
		err := v.Region(strconv.Itoa(i), func() error {
			if err := v.Uint32("gen", &s.generation); err != nil {
				return err
			}
			if err := v.Bool("live", &s.live); err != nil {
				return err
			}
			if !s.live {
				return nil
			}
			return v.Region("value", func() error {
				return item(v, &s.value)
			})
		})
		if err != nil {
			return fmt.Errorf("pool slot %d: %w", i, err)
		}
		if !s.live {
			free = append(free, uint32(i))
		}
	}

	p.slots = slots
	p.free = free
	return nil
}
