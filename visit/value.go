package visit

import (
	"fmt"
	"math"
)

// Kind identifies the type of a field Value. The numeric values double as
// wire type tags and must never be renumbered.
type Kind uint8

const (
	// KindInvalid is the zero Kind; no valid field carries it.
	KindInvalid Kind = 0

	KindBool         Kind = 1
	KindInt8         Kind = 2
	KindInt16        Kind = 3
	KindInt32        Kind = 4
	KindInt64        Kind = 5
	KindUint8        Kind = 6
	KindUint16       Kind = 7
	KindUint32       Kind = 8
	KindUint64       Kind = 9
	KindFloat32      Kind = 10
	KindFloat64      Kind = 11
	KindString       Kind = 12
	KindBytes        Kind = 13
	KindFloat32Array Kind = 14
	KindRef          Kind = 15
)

// maxKnownKind is the highest Kind this version understands. Fields with a
// higher tag decode as opaque values and re-encode byte-exactly.
const maxKnownKind = KindRef

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindFloat32Array:
		return "float32array"
	case KindRef:
		return "ref"
	case KindInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Known reports whether this version understands the kind.
func (k Kind) Known() bool {
	return k > KindInvalid && k <= maxKnownKind
}

// Ref is the persisted form of a pool handle: a slot index and a generation
// counter, with no knowledge of which pool they belong to. Re-binding a
// loaded Ref to a live pool is the caller's post-load step.
type Ref struct {
	Index      uint32
	Generation uint32
}

// String implements fmt.Stringer.
func (r Ref) String() string {
	return fmt.Sprintf("(%d:%d)", r.Index, r.Generation)
}

// Value is a closed variant over the field kinds the protocol can carry.
// Values are immutable once constructed.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	by   []byte // Bytes payload, or raw payload for unknown kinds
	f32  []float32
	ref  Ref
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// BoolValue wraps a bool.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// Int8Value wraps an int8.
func Int8Value(i int8) Value { return Value{kind: KindInt8, i: int64(i)} }

// Int16Value wraps an int16.
func Int16Value(i int16) Value { return Value{kind: KindInt16, i: int64(i)} }

// Int32Value wraps an int32.
func Int32Value(i int32) Value { return Value{kind: KindInt32, i: int64(i)} }

// Int64Value wraps an int64.
func Int64Value(i int64) Value { return Value{kind: KindInt64, i: i} }

// Uint8Value wraps a uint8.
func Uint8Value(u uint8) Value { return Value{kind: KindUint8, u: uint64(u)} }

// Uint16Value wraps a uint16.
func Uint16Value(u uint16) Value { return Value{kind: KindUint16, u: uint64(u)} }

// Uint32Value wraps a uint32.
func Uint32Value(u uint32) Value { return Value{kind: KindUint32, u: uint64(u)} }

// Uint64Value wraps a uint64.
func Uint64Value(u uint64) Value { return Value{kind: KindUint64, u: u} }

// Float32Value wraps a float32.
func Float32Value(f float32) Value { return Value{kind: KindFloat32, f: float64(f)} }

// Float64Value wraps a float64.
func Float64Value(f float64) Value { return Value{kind: KindFloat64, f: f} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// BytesValue wraps a byte buffer. The slice is copied.
func BytesValue(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBytes, by: cp}
}

// Float32ArrayValue wraps a fixed-size float32 blob (vectors, matrices,
// colors). The slice is copied.
func Float32ArrayValue(f []float32) Value {
	cp := make([]float32, len(f))
	copy(cp, f)
	return Value{kind: KindFloat32Array, f32: cp}
}

// RefValue wraps a handle reference.
func RefValue(r Ref) Value { return Value{kind: KindRef, ref: r} }

// OpaqueValue wraps a raw payload under a kind tag this version does not
// understand. It exists so streams written by newer schemas survive a
// round-trip untouched; user code never constructs one.
func OpaqueValue(kind Kind, payload []byte) Value {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	return Value{kind: kind, by: cp}
}

// AsBool returns the bool payload; ok is false on a kind mismatch.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the signed payload widened to int64 for any signed kind.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return v.i, true
	default:
		return 0, false
	}
}

// AsUint returns the unsigned payload widened to uint64 for any unsigned kind.
func (v Value) AsUint() (uint64, bool) {
	switch v.kind {
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return v.u, true
	default:
		return 0, false
	}
}

// AsFloat returns the float payload widened to float64 for either float kind.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat32, KindFloat64:
		return v.f, true
	default:
		return 0, false
	}
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsBytes returns the byte buffer payload. The slice must not be mutated.
func (v Value) AsBytes() ([]byte, bool) { return v.by, v.kind == KindBytes }

// AsFloat32Array returns the float blob payload. The slice must not be mutated.
func (v Value) AsFloat32Array() ([]float32, bool) {
	return v.f32, v.kind == KindFloat32Array
}

// AsRef returns the reference payload.
func (v Value) AsRef() (Ref, bool) { return v.ref, v.kind == KindRef }

// AsOpaque returns the raw payload of a value with an unknown kind.
func (v Value) AsOpaque() ([]byte, bool) { return v.by, !v.kind.Known() && v.kind != KindInvalid }

// Equal reports whether two values have the same kind and payload.
// Float comparison is bit-exact (NaN equals NaN), matching what a
// write/read round trip preserves.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return v.i == o.i
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return v.u == o.u
	case KindFloat32, KindFloat64:
		return math.Float64bits(v.f) == math.Float64bits(o.f)
	case KindString:
		return v.s == o.s
	case KindRef:
		return v.ref == o.ref
	case KindFloat32Array:
		if len(v.f32) != len(o.f32) {
			return false
		}
		for i := range v.f32 {
			if math.Float32bits(v.f32[i]) != math.Float32bits(o.f32[i]) {
				return false
			}
		}
		return true
	default: // KindBytes and opaque payloads
		if len(v.by) != len(o.by) {
			return false
		}
		for i := range v.by {
			if v.by[i] != o.by[i] {
				return false
			}
		}
		return true
	}
}

// String implements fmt.Stringer for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("bool(%t)", v.b)
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return fmt.Sprintf("%s(%d)", v.kind, v.i)
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return fmt.Sprintf("%s(%d)", v.kind, v.u)
	case KindFloat32, KindFloat64:
		return fmt.Sprintf("%s(%g)", v.kind, v.f)
	case KindString:
		return fmt.Sprintf("string(%q)", v.s)
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.by))
	case KindFloat32Array:
		return fmt.Sprintf("float32array(%d)", len(v.f32))
	case KindRef:
		return fmt.Sprintf("ref%s", v.ref)
	default:
		return fmt.Sprintf("%s(%d bytes)", v.kind, len(v.by))
	}
}
