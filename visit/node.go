package visit

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateField is returned when a field name is registered twice
	// within one region. This is a programming error, not a data error.
	ErrDuplicateField = errors.New("visit: duplicate field name")
	// ErrDuplicateRegion is returned when a child region name is registered
	// twice within one region. This is a programming error, not a data error.
	ErrDuplicateRegion = errors.New("visit: duplicate region name")
)

// Field is a named value inside a node.
type Field struct {
	Name  string
	Value Value
}

// Node is one named region in the serialization tree. Field names are unique
// within a node, as are child names. A node tree lives only for the duration
// of a single write or a single load.
type Node struct {
	name    string
	version uint32

	fields     []Field
	fieldIndex map[string]int

	children   []*Node
	childIndex map[string]int
}

// NewNode creates an empty node with the given region name.
func NewNode(name string) *Node {
	return &Node{name: name}
}

// Name returns the region name.
func (n *Node) Name() string { return n.name }

// Version returns the region's schema version tag.
func (n *Node) Version() uint32 { return n.version }

// SetVersion sets the region's schema version tag.
func (n *Node) SetVersion(v uint32) { n.version = v }

// SetField records a field value under name. Registering the same name twice
// fails with ErrDuplicateField.
func (n *Node) SetField(name string, v Value) error {
	if _, ok := n.fieldIndex[name]; ok {
		return fmt.Errorf("%w: %q in region %q", ErrDuplicateField, name, n.name)
	}
	if n.fieldIndex == nil {
		n.fieldIndex = make(map[string]int)
	}
	n.fieldIndex[name] = len(n.fields)
	n.fields = append(n.fields, Field{Name: name, Value: v})
	return nil
}

// Field returns the value stored under name.
func (n *Node) Field(name string) (Value, bool) {
	i, ok := n.fieldIndex[name]
	if !ok {
		return Value{}, false
	}
	return n.fields[i].Value, true
}

// Fields returns the fields in registration order. The slice must not be
// mutated.
func (n *Node) Fields() []Field { return n.fields }

// AddChild creates and attaches a child region. Registering the same name
// twice fails with ErrDuplicateRegion.
func (n *Node) AddChild(name string) (*Node, error) {
	if _, ok := n.childIndex[name]; ok {
		return nil, fmt.Errorf("%w: %q in region %q", ErrDuplicateRegion, name, n.name)
	}
	if n.childIndex == nil {
		n.childIndex = make(map[string]int)
	}
	child := NewNode(name)
	n.childIndex[name] = len(n.children)
	n.children = append(n.children, child)
	return child, nil
}

// Child returns the child region with the given name.
func (n *Node) Child(name string) (*Node, bool) {
	i, ok := n.childIndex[name]
	if !ok {
		return nil, false
	}
	return n.children[i], true
}

// Children returns the child regions in registration order. The slice must
// not be mutated.
func (n *Node) Children() []*Node { return n.children }
