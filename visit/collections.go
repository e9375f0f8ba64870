package visit

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pyrite-engine/pyrite/internal/conv"
)

// Slice visits a sequence of elements as a named region holding an explicit
// element count plus one numbered child region per element. In write mode
// the count drives the children written; in read mode the count read from
// the stream drives the loop and *items is resized to match.
//
// elem is invoked once per element in both directions and must visit the
// element's state symmetrically.
func Slice[E any](v *Visitor, name string, items *[]E, elem func(v *Visitor, e *E) error) error {
	return v.Region(name, func() error {
		if v.Reading() {
			var n uint32
			if err := v.Uint32("len", &n); err != nil {
				return err
			}
			count, err := conv.Uint32ToInt(n)
			if err != nil {
				return err
			}
			if got := v.ChildCount(); count > got {
				return fmt.Errorf("%w: region %q claims %d elements, stream holds %d",
					ErrCountMismatch, name, count, got)
			}
			out := make([]E, count)
			for i := range out {
				err := v.Region(strconv.Itoa(i), func() error {
					return elem(v, &out[i])
				})
				if err != nil {
					return err
				}
			}
			*items = out
			return nil
		}

		n, err := conv.IntToUint32(len(*items))
		if err != nil {
			return err
		}
		if err := v.Uint32("len", &n); err != nil {
			return err
		}
		for i := range *items {
			err := v.Region(strconv.Itoa(i), func() error {
				return elem(v, &(*items)[i])
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Strings visits a []string as a Slice of string fields.
func Strings(v *Visitor, name string, items *[]string) error {
	return Slice(v, name, items, func(v *Visitor, s *string) error {
		return v.String("value", s)
	})
}

// Refs visits a []Ref as a Slice of reference fields.
func Refs(v *Visitor, name string, items *[]Ref) error {
	return Slice(v, name, items, func(v *Visitor, r *Ref) error {
		return v.Ref("value", r)
	})
}

// Variant visits a polymorphic object: an explicit discriminator field is
// written (or read) first, then fn visits the concrete variant's state. In
// write mode *tag must already identify the variant; in read mode fn
// receives the tag recovered from the stream and selects the variant to
// populate. fn returning an error for an unrecognized tag is the caller's
// policy decision.
func Variant(v *Visitor, name string, tag *uint32, fn func(tag uint32) error) error {
	if err := v.Uint32(name, tag); err != nil {
		return err
	}
	return fn(*tag)
}

// Map visits a string-keyed map as a Slice of key/value pairs in sorted key
// order, so writes are deterministic.
func Map[V any](v *Visitor, name string, m *map[string]V, val func(v *Visitor, e *V) error) error {
	type pair struct {
		key string
		val V
	}
	var pairs []pair
	if !v.Reading() {
		pairs = make([]pair, 0, len(*m))
		for k, e := range *m {
			pairs = append(pairs, pair{key: k, val: e})
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })
	}
	err := Slice(v, name, &pairs, func(v *Visitor, p *pair) error {
		if err := v.String("key", &p.key); err != nil {
			return err
		}
		return val(v, &p.val)
	})
	if err != nil {
		return err
	}
	if v.Reading() {
		out := make(map[string]V, len(pairs))
		for _, p := range pairs {
			if _, dup := out[p.key]; dup {
				return fmt.Errorf("%w: map key %q", ErrDuplicateField, p.key)
			}
			out[p.key] = p.val
		}
		*m = out
	}
	return nil
}
