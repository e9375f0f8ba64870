package wire

import (
	"encoding/binary"
	"errors"
)

// byteOrder is the wire byte order. Little-endian is native on x86/ARM.
var byteOrder = binary.LittleEndian

var (
	// ErrMalformedStream is returned when length prefixes are inconsistent
	// with the actual bytes, or a record does not parse. Fatal: the whole
	// load is aborted and no partial tree is exposed.
	ErrMalformedStream = errors.New("wire: malformed stream")
	// ErrNameTooLong is returned when a region or field name exceeds the
	// 16-bit name length prefix.
	ErrNameTooLong = errors.New("wire: name exceeds 65535 bytes")
	// ErrRegionTooLarge is returned when an encoded region would exceed the
	// 32-bit region length prefix.
	ErrRegionTooLarge = errors.New("wire: region exceeds 4 GiB")
)

const (
	// minFieldBytes is the smallest possible field record (empty name,
	// empty payload): NameLen + TypeTag + Length.
	minFieldBytes = 2 + 1 + 4
	// minChildBytes is the smallest possible child record (empty name,
	// empty body): NameLen + RegionLen.
	minChildBytes = 2 + 4
	// regionHeaderBytes is VersionTag + ChildCount + FieldCount.
	regionHeaderBytes = 4 + 4 + 4
)
