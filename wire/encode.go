package wire

import (
	"fmt"
	"io"
	"math"

	"github.com/pyrite-engine/pyrite/internal/conv"
	"github.com/pyrite-engine/pyrite/visit"
)

// Encode writes the node tree as a single region record. The encoding is a
// pure function of the tree; field and child order is registration order.
func Encode(w io.Writer, root *visit.Node) error {
	data, err := EncodeBytes(root)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// EncodeBytes encodes the node tree into a freshly allocated buffer.
func EncodeBytes(root *visit.Node) ([]byte, error) {
	size, err := regionSize(root)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, size)
	buf, err = appendRegion(buf, root)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// regionSize returns the full encoded size of a region record, its own name
// and length prefix included.
func regionSize(n *visit.Node) (int, error) {
	body, err := regionBodySize(n)
	if err != nil {
		return 0, err
	}
	if len(n.Name()) > math.MaxUint16 {
		return 0, fmt.Errorf("%w: region %q", ErrNameTooLong, n.Name())
	}
	return 2 + len(n.Name()) + 4 + body, nil
}

func regionBodySize(n *visit.Node) (int, error) {
	size := regionHeaderBytes
	for _, f := range n.Fields() {
		if len(f.Name) > math.MaxUint16 {
			return 0, fmt.Errorf("%w: field %q in region %q", ErrNameTooLong, f.Name, n.Name())
		}
		p, err := payloadSize(f.Value)
		if err != nil {
			return 0, fmt.Errorf("field %q in region %q: %w", f.Name, n.Name(), err)
		}
		size += 2 + len(f.Name) + 1 + 4 + p
	}
	for _, c := range n.Children() {
		cs, err := regionSize(c)
		if err != nil {
			return 0, err
		}
		size += cs
	}
	if size > math.MaxUint32 {
		return 0, fmt.Errorf("%w: region %q", ErrRegionTooLarge, n.Name())
	}
	return size, nil
}

func payloadSize(v visit.Value) (int, error) {
	switch v.Kind() {
	case visit.KindBool, visit.KindInt8, visit.KindUint8:
		return 1, nil
	case visit.KindInt16, visit.KindUint16:
		return 2, nil
	case visit.KindInt32, visit.KindUint32, visit.KindFloat32:
		return 4, nil
	case visit.KindInt64, visit.KindUint64, visit.KindFloat64, visit.KindRef:
		return 8, nil
	case visit.KindString:
		s, _ := v.AsString()
		return len(s), nil
	case visit.KindBytes:
		b, _ := v.AsBytes()
		return len(b), nil
	case visit.KindFloat32Array:
		f, _ := v.AsFloat32Array()
		return 4 * len(f), nil
	default:
		raw, ok := v.AsOpaque()
		if !ok {
			return 0, fmt.Errorf("cannot encode value of kind %s", v.Kind())
		}
		return len(raw), nil
	}
}

func appendRegion(buf []byte, n *visit.Node) ([]byte, error) {
	var err error
	buf, err = appendName(buf, n.Name())
	if err != nil {
		return nil, err
	}

	body, err := regionBodySize(n)
	if err != nil {
		return nil, err
	}
	bodyLen, err := conv.IntToUint32(body)
	if err != nil {
		return nil, fmt.Errorf("%w: region %q", ErrRegionTooLarge, n.Name())
	}
	buf = byteOrder.AppendUint32(buf, bodyLen)

	buf = byteOrder.AppendUint32(buf, n.Version())
	childCount, err := conv.IntToUint32(len(n.Children()))
	if err != nil {
		return nil, err
	}
	buf = byteOrder.AppendUint32(buf, childCount)
	fieldCount, err := conv.IntToUint32(len(n.Fields()))
	if err != nil {
		return nil, err
	}
	buf = byteOrder.AppendUint32(buf, fieldCount)

	for _, f := range n.Fields() {
		buf, err = appendField(buf, f)
		if err != nil {
			return nil, fmt.Errorf("field %q in region %q: %w", f.Name, n.Name(), err)
		}
	}
	for _, c := range n.Children() {
		buf, err = appendRegion(buf, c)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func appendName(buf []byte, name string) ([]byte, error) {
	n, err := conv.IntToUint16(len(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNameTooLong, name)
	}
	buf = byteOrder.AppendUint16(buf, n)
	return append(buf, name...), nil
}

func appendField(buf []byte, f visit.Field) ([]byte, error) {
	buf, err := appendName(buf, f.Name)
	if err != nil {
		return nil, err
	}
	buf = append(buf, byte(f.Value.Kind()))

	size, err := payloadSize(f.Value)
	if err != nil {
		return nil, err
	}
	payloadLen, err := conv.IntToUint32(size)
	if err != nil {
		return nil, err
	}
	buf = byteOrder.AppendUint32(buf, payloadLen)
	return appendPayload(buf, f.Value)
}

func appendPayload(buf []byte, v visit.Value) ([]byte, error) {
	switch v.Kind() {
	case visit.KindBool:
		b, _ := v.AsBool()
		if b {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	case visit.KindInt8:
		i, _ := v.AsInt()
		return append(buf, byte(int8(i))), nil
	case visit.KindInt16:
		i, _ := v.AsInt()
		return byteOrder.AppendUint16(buf, uint16(int16(i))), nil
	case visit.KindInt32:
		i, _ := v.AsInt()
		return byteOrder.AppendUint32(buf, uint32(int32(i))), nil
	case visit.KindInt64:
		i, _ := v.AsInt()
		return byteOrder.AppendUint64(buf, uint64(i)), nil
	case visit.KindUint8:
		u, _ := v.AsUint()
		return append(buf, uint8(u)), nil
	case visit.KindUint16:
		u, _ := v.AsUint()
		return byteOrder.AppendUint16(buf, uint16(u)), nil
	case visit.KindUint32:
		u, _ := v.AsUint()
		return byteOrder.AppendUint32(buf, uint32(u)), nil
	case visit.KindUint64:
		u, _ := v.AsUint()
		return byteOrder.AppendUint64(buf, u), nil
	case visit.KindFloat32:
		f, _ := v.AsFloat()
		return byteOrder.AppendUint32(buf, math.Float32bits(float32(f))), nil
	case visit.KindFloat64:
		f, _ := v.AsFloat()
		return byteOrder.AppendUint64(buf, math.Float64bits(f)), nil
	case visit.KindString:
		s, _ := v.AsString()
		return append(buf, s...), nil
	case visit.KindBytes:
		b, _ := v.AsBytes()
		return append(buf, b...), nil
	case visit.KindFloat32Array:
		fs, _ := v.AsFloat32Array()
		for _, f := range fs {
			buf = byteOrder.AppendUint32(buf, math.Float32bits(f))
		}
		return buf, nil
	case visit.KindRef:
		r, _ := v.AsRef()
		buf = byteOrder.AppendUint32(buf, r.Index)
		return byteOrder.AppendUint32(buf, r.Generation), nil
	default:
		raw, ok := v.AsOpaque()
		if !ok {
			return nil, fmt.Errorf("cannot encode value of kind %s", v.Kind())
		}
		return append(buf, raw...), nil
	}
}
