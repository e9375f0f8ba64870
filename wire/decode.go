package wire

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/pyrite-engine/pyrite/internal/conv"
	"github.com/pyrite-engine/pyrite/visit"
)

// Decode reads a single region record from r and materializes the full node
// tree. Truncation mid-record reports ErrMalformedStream; other read errors
// propagate verbatim.
func Decode(r io.Reader) (*visit.Node, error) {
	name, err := readName(r)
	if err != nil {
		return nil, err
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, truncated(err)
	}
	bodyLen, err := conv.Uint32ToInt(byteOrder.Uint32(lenBuf[:]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStream, err)
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, truncated(err)
	}

	node := visit.NewNode(name)
	if err := parseBody(node, body); err != nil {
		return nil, err
	}
	return node, nil
}

// DecodeBytes materializes the node tree from an in-memory stream, e.g. a
// memory-mapped snapshot payload. The tree copies what it needs; data is
// not retained.
func DecodeBytes(data []byte) (*visit.Node, error) {
	node, rest, err := parseRegion(data)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after root region", ErrMalformedStream, len(rest))
	}
	return node, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: stream truncated", ErrMalformedStream)
	}
	return err
}

func readName(r io.Reader) (string, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", truncated(err)
	}
	n := byteOrder.Uint16(lenBuf[:])
	if n == 0 {
		return "", nil
	}
	name := make([]byte, n)
	if _, err := io.ReadFull(r, name); err != nil {
		return "", truncated(err)
	}
	return string(name), nil
}

// parseRegion parses one full region record (name prefix included) from the
// front of data and returns the remaining bytes.
func parseRegion(data []byte) (*visit.Node, []byte, error) {
	name, data, err := takeName(data)
	if err != nil {
		return nil, nil, err
	}
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("%w: region %q: missing length prefix", ErrMalformedStream, name)
	}
	bodyLen, err := conv.Uint32ToInt(byteOrder.Uint32(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedStream, err)
	}
	data = data[4:]
	if bodyLen > len(data) {
		return nil, nil, fmt.Errorf("%w: region %q: length %d exceeds remaining %d bytes",
			ErrMalformedStream, name, bodyLen, len(data))
	}

	node := visit.NewNode(name)
	if err := parseBody(node, data[:bodyLen]); err != nil {
		return nil, nil, err
	}
	return node, data[bodyLen:], nil
}

// parseBody parses a region body (everything RegionLen covers) into node.
// The body must be consumed exactly; leftovers mean the length prefix lied.
func parseBody(node *visit.Node, body []byte) error {
	if len(body) < regionHeaderBytes {
		return fmt.Errorf("%w: region %q: body shorter than header", ErrMalformedStream, node.Name())
	}
	node.SetVersion(byteOrder.Uint32(body))
	childCount := byteOrder.Uint32(body[4:])
	fieldCount := byteOrder.Uint32(body[8:])
	body = body[regionHeaderBytes:]

	// Counts can at most describe what fits in the remaining bytes.
	if uint64(fieldCount)*minFieldBytes > uint64(len(body)) ||
		uint64(childCount)*minChildBytes > uint64(len(body)) {
		return fmt.Errorf("%w: region %q: counts exceed body size", ErrMalformedStream, node.Name())
	}

	for i := uint32(0); i < fieldCount; i++ {
		var err error
		body, err = parseField(node, body)
		if err != nil {
			return err
		}
	}
	for i := uint32(0); i < childCount; i++ {
		childName, rest, err := takeName(body)
		if err != nil {
			return err
		}
		if len(rest) < 4 {
			return fmt.Errorf("%w: region %q: missing length prefix", ErrMalformedStream, childName)
		}
		childLen, err := conv.Uint32ToInt(byteOrder.Uint32(rest))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedStream, err)
		}
		rest = rest[4:]
		if childLen > len(rest) {
			return fmt.Errorf("%w: region %q: length %d exceeds remaining %d bytes",
				ErrMalformedStream, childName, childLen, len(rest))
		}
		child, err := node.AddChild(childName)
		if err != nil {
			// Duplicate child names cannot come from a well-formed writer.
			return fmt.Errorf("%w: %v", ErrMalformedStream, err)
		}
		if err := parseBody(child, rest[:childLen]); err != nil {
			return err
		}
		body = rest[childLen:]
	}
	if len(body) != 0 {
		return fmt.Errorf("%w: region %q: %d unaccounted bytes", ErrMalformedStream, node.Name(), len(body))
	}
	return nil
}

func takeName(data []byte) (string, []byte, error) {
	if len(data) < 2 {
		return "", nil, fmt.Errorf("%w: missing name prefix", ErrMalformedStream)
	}
	n := int(byteOrder.Uint16(data))
	data = data[2:]
	if n > len(data) {
		return "", nil, fmt.Errorf("%w: name length %d exceeds remaining %d bytes", ErrMalformedStream, n, len(data))
	}
	return string(data[:n]), data[n:], nil
}

func parseField(node *visit.Node, data []byte) ([]byte, error) {
	name, data, err := takeName(data)
	if err != nil {
		return nil, err
	}
	if len(data) < 5 {
		return nil, fmt.Errorf("%w: field %q: missing tag or length", ErrMalformedStream, name)
	}
	kind := visit.Kind(data[0])
	payloadLen, err := conv.Uint32ToInt(byteOrder.Uint32(data[1:]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStream, err)
	}
	data = data[5:]
	if payloadLen > len(data) {
		return nil, fmt.Errorf("%w: field %q: payload length %d exceeds remaining %d bytes",
			ErrMalformedStream, name, payloadLen, len(data))
	}
	payload := data[:payloadLen]

	value, err := decodePayload(kind, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q in region %q: %v", ErrMalformedStream, name, node.Name(), err)
	}
	if err := node.SetField(name, value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStream, err)
	}
	return data[payloadLen:], nil
}

func decodePayload(kind visit.Kind, payload []byte) (visit.Value, error) {
	wantLen := func(n int) error {
		if len(payload) != n {
			return fmt.Errorf("kind %s wants %d payload bytes, got %d", kind, n, len(payload))
		}
		return nil
	}
	switch kind {
	case visit.KindBool:
		if err := wantLen(1); err != nil {
			return visit.Value{}, err
		}
		return visit.BoolValue(payload[0] != 0), nil
	case visit.KindInt8:
		if err := wantLen(1); err != nil {
			return visit.Value{}, err
		}
		return visit.Int8Value(int8(payload[0])), nil
	case visit.KindInt16:
		if err := wantLen(2); err != nil {
			return visit.Value{}, err
		}
		return visit.Int16Value(int16(byteOrder.Uint16(payload))), nil
	case visit.KindInt32:
		if err := wantLen(4); err != nil {
			return visit.Value{}, err
		}
		return visit.Int32Value(int32(byteOrder.Uint32(payload))), nil
	case visit.KindInt64:
		if err := wantLen(8); err != nil {
			return visit.Value{}, err
		}
		return visit.Int64Value(int64(byteOrder.Uint64(payload))), nil
	case visit.KindUint8:
		if err := wantLen(1); err != nil {
			return visit.Value{}, err
		}
		return visit.Uint8Value(payload[0]), nil
	case visit.KindUint16:
		if err := wantLen(2); err != nil {
			return visit.Value{}, err
		}
		return visit.Uint16Value(byteOrder.Uint16(payload)), nil
	case visit.KindUint32:
		if err := wantLen(4); err != nil {
			return visit.Value{}, err
		}
		return visit.Uint32Value(byteOrder.Uint32(payload)), nil
	case visit.KindUint64:
		if err := wantLen(8); err != nil {
			return visit.Value{}, err
		}
		return visit.Uint64Value(byteOrder.Uint64(payload)), nil
	case visit.KindFloat32:
		if err := wantLen(4); err != nil {
			return visit.Value{}, err
		}
		return visit.Float32Value(math.Float32frombits(byteOrder.Uint32(payload))), nil
	case visit.KindFloat64:
		if err := wantLen(8); err != nil {
			return visit.Value{}, err
		}
		return visit.Float64Value(math.Float64frombits(byteOrder.Uint64(payload))), nil
	case visit.KindString:
		return visit.StringValue(string(payload)), nil
	case visit.KindBytes:
		return visit.BytesValue(payload), nil
	case visit.KindFloat32Array:
		if len(payload)%4 != 0 {
			return visit.Value{}, fmt.Errorf("float32array payload length %d not a multiple of 4", len(payload))
		}
		fs := make([]float32, len(payload)/4)
		for i := range fs {
			fs[i] = math.Float32frombits(byteOrder.Uint32(payload[4*i:]))
		}
		return visit.Float32ArrayValue(fs), nil
	case visit.KindRef:
		if err := wantLen(8); err != nil {
			return visit.Value{}, err
		}
		return visit.RefValue(visit.Ref{
			Index:      byteOrder.Uint32(payload),
			Generation: byteOrder.Uint32(payload[4:]),
		}), nil
	case visit.KindInvalid:
		return visit.Value{}, errors.New("invalid kind tag 0")
	default:
		// Unknown kind from a newer writer: keep the payload opaque so it
		// survives a re-encode byte-exactly.
		return visit.OpaqueValue(kind, payload), nil
	}
}
