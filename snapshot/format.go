package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// MagicNumber identifies snapshot files (ASCII: "PYR1").
	MagicNumber = 0x50595231
	// FormatVersion is the current file format version (v1.0.0).
	FormatVersion = 0x00010000

	headerSize = 32
)

var (
	ErrInvalidMagic       = errors.New("invalid magic number")
	ErrInvalidVersion     = errors.New("unsupported format version")
	ErrUnknownCompression = errors.New("unknown compression codec")
)

// Compression selects the codec applied to the payload.
type Compression uint8

const (
	// CompressionNone stores the payload verbatim.
	CompressionNone Compression = 0
	// CompressionZstd favors ratio, still fast to decode.
	CompressionZstd Compression = 1
	// CompressionLZ4 favors speed over ratio.
	CompressionLZ4 Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// FileHeader is the 32-byte header at the start of every snapshot file.
// All integers are little-endian. Checksum is the CRC32 (IEEE) of the
// stored payload, after compression.
type FileHeader struct {
	Magic       uint32
	Version     uint32
	Compression uint8
	Padding     [3]byte
	PayloadLen  uint64
	Checksum    uint32
	Reserved    [8]byte
}

func writeHeader(w io.Writer, h *FileHeader) error {
	return binary.Write(w, binary.LittleEndian, h)
}

// readHeader reads and validates the header. Payload length and checksum
// are the caller's problem; this only vets identity and version.
func readHeader(r io.Reader) (*FileHeader, error) {
	var h FileHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: file shorter than header", ErrInvalidMagic)
		}
		return nil, err
	}
	if h.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("%w: 0x%08x", ErrInvalidVersion, h.Version)
	}
	switch Compression(h.Compression) {
	case CompressionNone, CompressionZstd, CompressionLZ4:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, h.Compression)
	}
	return &h, nil
}
