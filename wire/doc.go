// Package wire flattens a visit.Node tree to and from a linear byte stream.
//
// The stream is a single root region record. Every region and every field
// carries a byte-length prefix covering exactly its payload, so a reader can
// skip an unknown field kind, or seek past an entire region, without
// understanding its contents. Parsing materializes the full tree before any
// traversal begins; the visitor never touches the raw stream.
//
// Layout (all integers little-endian):
//
//	Region := NameLen(u16) Name RegionLen(u32) VersionTag(u32)
//	          ChildCount(u32) FieldCount(u32) Field* Child*
//	Field  := NameLen(u16) Name TypeTag(u8) Length(u32) Payload
//	Child  := Region
//
// RegionLen covers everything after itself up to the end of the region,
// children included. Fields with a TypeTag above the kinds this version
// understands decode as opaque values and re-encode byte-exactly, which is
// what keeps streams from newer writers loadable.
//
// The stream is deliberately plain: no compression, no checksum, no file
// magic. Package snapshot wraps it in that envelope.
package wire
