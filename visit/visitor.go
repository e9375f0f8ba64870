package visit

import (
	"errors"
	"fmt"
)

// Mode selects the direction of a traversal. It is fixed at the root call
// and propagates unchanged into every nested region.
type Mode uint8

const (
	// Write populates the node tree from the visited objects.
	Write Mode = iota + 1
	// Read populates the visited objects from an already-parsed node tree.
	Read
)

var (
	// ErrRegionMissing is returned in read mode when a named child region is
	// absent from the parsed tree. Expected against older streams; callers
	// apply their default state.
	ErrRegionMissing = errors.New("visit: region not found")
	// ErrFieldMissing is returned in read mode when a named field is absent
	// from the current region. Expected against older streams; the target
	// variable is left unchanged.
	ErrFieldMissing = errors.New("visit: field not found")
	// ErrKindMismatch is returned in read mode when a field exists but holds
	// a different kind than the one requested.
	ErrKindMismatch = errors.New("visit: field kind mismatch")
	// ErrCountMismatch is returned in read mode when a count recorded in the
	// stream exceeds what the stream actually carries. Fatal: the stream is
	// malformed.
	ErrCountMismatch = errors.New("visit: recorded count exceeds stream contents")
)

// Visitable is implemented by types that can describe their own state.
// The same Visit method runs for both saving and loading; it must issue the
// identical sequence of region and field calls in both modes.
type Visitable interface {
	Visit(v *Visitor) error
}

// Visitor walks named regions of a node tree, recording fields in write mode
// and resolving them in read mode. A Visitor is single-use and not safe for
// concurrent use; callers needing parallelism run one Visitor per goroutine
// over disjoint trees.
type Visitor struct {
	mode  Mode
	root  *Node
	stack []*Node
}

// NewWriter creates a write-mode visitor over a fresh tree whose root region
// has the given name.
func NewWriter(rootName string) *Visitor {
	root := NewNode(rootName)
	return &Visitor{mode: Write, root: root, stack: []*Node{root}}
}

// NewReader creates a read-mode visitor over an already-parsed tree.
func NewReader(root *Node) *Visitor {
	return &Visitor{mode: Read, root: root, stack: []*Node{root}}
}

// Mode returns the traversal direction.
func (v *Visitor) Mode() Mode { return v.mode }

// Reading reports whether the visitor decodes into the visited objects.
func (v *Visitor) Reading() bool { return v.mode == Read }

// Root returns the tree the visitor operates on.
func (v *Visitor) Root() *Node { return v.root }

func (v *Visitor) current() *Node { return v.stack[len(v.stack)-1] }

// ChildCount returns the number of child regions under the current region.
// Read-mode collection helpers vet counts recorded in the stream against it
// before allocating.
func (v *Visitor) ChildCount() int { return len(v.current().Children()) }

// Enter descends into the named child region. In write mode it creates the
// region, failing with ErrDuplicateRegion if the name was already used at
// this level. In read mode it resolves the region in the parsed tree,
// failing with ErrRegionMissing if the stream never contained it; the
// visitor position is unchanged in that case.
func (v *Visitor) Enter(name string) error {
	cur := v.current()
	if v.mode == Write {
		child, err := cur.AddChild(name)
		if err != nil {
			return err
		}
		v.stack = append(v.stack, child)
		return nil
	}
	child, ok := cur.Child(name)
	if !ok {
		return fmt.Errorf("%w: %q in region %q", ErrRegionMissing, name, cur.Name())
	}
	v.stack = append(v.stack, child)
	return nil
}

// Leave restores the parent region as current. Leaving the root panics: it
// means unbalanced Enter/Leave calls, which is a programming error on par
// with a duplicate region name.
func (v *Visitor) Leave() {
	if len(v.stack) == 1 {
		panic("visit: Leave without matching Enter")
	}
	v.stack = v.stack[:len(v.stack)-1]
}

// Region runs fn inside the named child region, handling Enter/Leave
// pairing. A missing region in read mode is returned without invoking fn.
func (v *Visitor) Region(name string, fn func() error) error {
	if err := v.Enter(name); err != nil {
		return err
	}
	defer v.Leave()
	return fn()
}

// SetVersion tags the current region with a schema version. Meaningful in
// write mode; a no-op way to keep traversal code symmetric is to call it
// unconditionally and branch on Version when reading.
func (v *Visitor) SetVersion(ver uint32) {
	if v.mode == Write {
		v.current().SetVersion(ver)
	}
}

// Version returns the current region's schema version tag. For trees parsed
// from old streams this is whatever the writer recorded at the time.
func (v *Visitor) Version() uint32 {
	return v.current().Version()
}

// Optional filters the recoverable read-mode conditions: it returns nil for
// ErrRegionMissing and ErrFieldMissing and passes everything else through.
// Use it when the caller-supplied default is the intended fallback.
func Optional(err error) error {
	if errors.Is(err, ErrRegionMissing) || errors.Is(err, ErrFieldMissing) {
		return nil
	}
	return err
}

func (v *Visitor) readField(name string, want Kind) (Value, error) {
	cur := v.current()
	val, ok := cur.Field(name)
	if !ok {
		return Value{}, fmt.Errorf("%w: %q in region %q", ErrFieldMissing, name, cur.Name())
	}
	if val.Kind() != want {
		return Value{}, fmt.Errorf("%w: field %q in region %q holds %s, want %s",
			ErrKindMismatch, name, cur.Name(), val.Kind(), want)
	}
	return val, nil
}

// Bool visits a bool field.
func (v *Visitor) Bool(name string, p *bool) error {
	if v.mode == Write {
		return v.current().SetField(name, BoolValue(*p))
	}
	val, err := v.readField(name, KindBool)
	if err != nil {
		return err
	}
	*p, _ = val.AsBool()
	return nil
}

// Int8 visits an int8 field.
func (v *Visitor) Int8(name string, p *int8) error {
	if v.mode == Write {
		return v.current().SetField(name, Int8Value(*p))
	}
	val, err := v.readField(name, KindInt8)
	if err != nil {
		return err
	}
	i, _ := val.AsInt()
	*p = int8(i)
	return nil
}

// Int16 visits an int16 field.
func (v *Visitor) Int16(name string, p *int16) error {
	if v.mode == Write {
		return v.current().SetField(name, Int16Value(*p))
	}
	val, err := v.readField(name, KindInt16)
	if err != nil {
		return err
	}
	i, _ := val.AsInt()
	*p = int16(i)
	return nil
}

// Int32 visits an int32 field.
func (v *Visitor) Int32(name string, p *int32) error {
	if v.mode == Write {
		return v.current().SetField(name, Int32Value(*p))
	}
	val, err := v.readField(name, KindInt32)
	if err != nil {
		return err
	}
	i, _ := val.AsInt()
	*p = int32(i)
	return nil
}

// Int64 visits an int64 field.
func (v *Visitor) Int64(name string, p *int64) error {
	if v.mode == Write {
		return v.current().SetField(name, Int64Value(*p))
	}
	val, err := v.readField(name, KindInt64)
	if err != nil {
		return err
	}
	*p, _ = val.AsInt()
	return nil
}

// Uint8 visits a uint8 field.
func (v *Visitor) Uint8(name string, p *uint8) error {
	if v.mode == Write {
		return v.current().SetField(name, Uint8Value(*p))
	}
	val, err := v.readField(name, KindUint8)
	if err != nil {
		return err
	}
	u, _ := val.AsUint()
	*p = uint8(u)
	return nil
}

// Uint16 visits a uint16 field.
func (v *Visitor) Uint16(name string, p *uint16) error {
	if v.mode == Write {
		return v.current().SetField(name, Uint16Value(*p))
	}
	val, err := v.readField(name, KindUint16)
	if err != nil {
		return err
	}
	u, _ := val.AsUint()
	*p = uint16(u)
	return nil
}

// Uint32 visits a uint32 field.
func (v *Visitor) Uint32(name string, p *uint32) error {
	if v.mode == Write {
		return v.current().SetField(name, Uint32Value(*p))
	}
	val, err := v.readField(name, KindUint32)
	if err != nil {
		return err
	}
	u, _ := val.AsUint()
	*p = uint32(u)
	return nil
}

// Uint64 visits a uint64 field.
func (v *Visitor) Uint64(name string, p *uint64) error {
	if v.mode == Write {
		return v.current().SetField(name, Uint64Value(*p))
	}
	val, err := v.readField(name, KindUint64)
	if err != nil {
		return err
	}
	*p, _ = val.AsUint()
	return nil
}

// Float32 visits a float32 field.
func (v *Visitor) Float32(name string, p *float32) error {
	if v.mode == Write {
		return v.current().SetField(name, Float32Value(*p))
	}
	val, err := v.readField(name, KindFloat32)
	if err != nil {
		return err
	}
	f, _ := val.AsFloat()
	*p = float32(f)
	return nil
}

// Float64 visits a float64 field.
func (v *Visitor) Float64(name string, p *float64) error {
	if v.mode == Write {
		return v.current().SetField(name, Float64Value(*p))
	}
	val, err := v.readField(name, KindFloat64)
	if err != nil {
		return err
	}
	*p, _ = val.AsFloat()
	return nil
}

// String visits a string field.
func (v *Visitor) String(name string, p *string) error {
	if v.mode == Write {
		return v.current().SetField(name, StringValue(*p))
	}
	val, err := v.readField(name, KindString)
	if err != nil {
		return err
	}
	*p, _ = val.AsString()
	return nil
}

// Bytes visits a byte-buffer field. Both directions copy the buffer.
func (v *Visitor) Bytes(name string, p *[]byte) error {
	if v.mode == Write {
		return v.current().SetField(name, BytesValue(*p))
	}
	val, err := v.readField(name, KindBytes)
	if err != nil {
		return err
	}
	b, _ := val.AsBytes()
	cp := make([]byte, len(b))
	copy(cp, b)
	*p = cp
	return nil
}

// Float32Array visits a fixed-size float blob field (vectors, matrices,
// colors decomposed by the caller). Both directions copy the slice.
func (v *Visitor) Float32Array(name string, p *[]float32) error {
	if v.mode == Write {
		return v.current().SetField(name, Float32ArrayValue(*p))
	}
	val, err := v.readField(name, KindFloat32Array)
	if err != nil {
		return err
	}
	f, _ := val.AsFloat32Array()
	cp := make([]float32, len(f))
	copy(cp, f)
	*p = cp
	return nil
}

// Ref visits a handle-reference field as a plain (index, generation) pair.
func (v *Visitor) Ref(name string, p *Ref) error {
	if v.mode == Write {
		return v.current().SetField(name, RefValue(*p))
	}
	val, err := v.readField(name, KindRef)
	if err != nil {
		return err
	}
	*p, _ = val.AsRef()
	return nil
}

// WriteTree runs a full write traversal of root and returns the resulting
// node tree, ready for wire encoding.
func WriteTree(rootName string, root Visitable) (*Node, error) {
	v := NewWriter(rootName)
	if err := root.Visit(v); err != nil {
		return nil, err
	}
	return v.Root(), nil
}

// ReadTree runs a full read traversal of root against a parsed node tree.
func ReadTree(tree *Node, root Visitable) error {
	return root.Visit(NewReader(tree))
}
