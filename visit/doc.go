// Package visit implements a symmetric traversal protocol for saving and
// loading object graphs.
//
// A type describes its own state once, in a single Visit method, and that
// method serves both directions: in write mode each field call records the
// value into an in-memory node tree, in read mode the same call decodes the
// value back out of an already-parsed tree. One traversal per type means the
// save and load paths can never diverge.
//
//	type Actor struct {
//	    Health int32
//	    Name   string
//	}
//
//	func (a *Actor) Visit(v *visit.Visitor) error {
//	    if err := v.Int32("health", &a.Health); err != nil {
//	        return err
//	    }
//	    return v.String("name", &a.Name)
//	}
//
// Missing regions and fields in read mode are reported as ErrRegionMissing
// and ErrFieldMissing rather than failing the traversal; callers keep the
// value they passed in as the default. This is how newer schemas read byte
// streams produced by older ones.
//
// The node tree produced or consumed here carries no type metadata beyond a
// per-field kind tag; package wire flattens it to and from bytes.
package visit
