// Package pyrite provides the core object model of a real-time engine:
// generational object pools with stable typed handles, and symmetric
// visitor-based binary serialization for everything built on them.
//
// The packages layer cleanly:
//
//   - pool: generational arenas, Handle[T], dense iteration
//   - visit: the symmetric Visit protocol and the node tree it builds
//   - wire: the versioned binary encoding of a node tree
//   - snapshot: file envelope (magic, compression, checksum) and libraries
//   - blobstore: storage backends (memory, local disk, S3, MinIO)
//
// This package ties them together for the common case:
//
//	type World struct {
//		Actors pool.Pool[Actor]
//	}
//
//	func (w *World) Visit(v *visit.Visitor) error {
//		return pool.VisitPool(v, "actors", &w.Actors, func(v *visit.Visitor, a *Actor) error {
//			return a.Visit(v)
//		})
//	}
//
//	err := pyrite.SaveFile(ctx, "world.pyr", "world", &world)
//	err = pyrite.LoadFile(ctx, "world.pyr", "world", &world)
package pyrite
