package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/pyrite-engine/pyrite/visit"
	"github.com/pyrite-engine/pyrite/wire"
)

// Options configure snapshot encoding.
type Options struct {
	// Compression selects the payload codec. Defaults to CompressionZstd.
	Compression Compression
}

// Option modifies snapshot encoding options.
type Option func(*Options)

// WithCompression selects the payload codec.
func WithCompression(c Compression) Option {
	return func(o *Options) {
		o.Compression = c
	}
}

func applyOptions(opts []Option) Options {
	o := Options{Compression: CompressionZstd}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Write encodes the node tree and writes a complete snapshot to w.
func Write(w io.Writer, root *visit.Node, opts ...Option) error {
	o := applyOptions(opts)

	payload, err := wire.EncodeBytes(root)
	if err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	stored, err := compress(payload, o.Compression)
	if err != nil {
		return err
	}

	header := FileHeader{
		Magic:       MagicNumber,
		Version:     FormatVersion,
		Compression: uint8(o.Compression),
		PayloadLen:  uint64(len(stored)),
		Checksum:    Checksum(stored),
	}
	if err := writeHeader(w, &header); err != nil {
		return err
	}
	_, err = w.Write(stored)
	return err
}

// Encode returns a complete snapshot as a byte slice.
func Encode(root *visit.Node, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, root, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read reads a complete snapshot from r and materializes the node tree.
func Read(r io.Reader) (*visit.Node, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	// The header is unauthenticated, so its payload length cannot be
	// trusted for allocation. Copy through a limited reader and let the
	// buffer grow with the bytes actually present.
	if h.PayloadLen > math.MaxInt64 {
		return nil, fmt.Errorf("read payload: length %d: %w", h.PayloadLen, io.ErrUnexpectedEOF)
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, int64(h.PayloadLen)))
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if uint64(n) != h.PayloadLen {
		return nil, fmt.Errorf("read payload: got %d of %d bytes: %w", n, h.PayloadLen, io.ErrUnexpectedEOF)
	}
	return unpack(h, buf.Bytes())
}

// ReadBytes materializes the node tree from an in-memory snapshot, e.g. a
// memory-mapped file. The tree does not retain data.
func ReadBytes(data []byte) (*visit.Node, error) {
	r := bytes.NewReader(data)
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if uint64(r.Len()) < h.PayloadLen {
		return nil, fmt.Errorf("read payload: %w", io.ErrUnexpectedEOF)
	}
	stored := data[headerSize : headerSize+int(h.PayloadLen)]
	return unpack(h, stored)
}

func unpack(h *FileHeader, stored []byte) (*visit.Node, error) {
	if err := verifyChecksum(stored, h.Checksum); err != nil {
		return nil, err
	}
	payload, err := decompress(stored, Compression(h.Compression))
	if err != nil {
		return nil, err
	}
	return wire.DecodeBytes(payload)
}

func compress(payload []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return payload, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(payload, make([]byte, 0, len(payload)/2)), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(payload); err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}
}

func decompress(stored []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return stored, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		payload, err := dec.DecodeAll(stored, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return payload, nil
	case CompressionLZ4:
		payload, err := io.ReadAll(lz4.NewReader(bytes.NewReader(stored)))
		if err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}
}
