package formts

import (
	"fmt"
	"time"

	"github.com/VirtusLab-Open-Source/formts-sub001/atom"
)

// Kind classifies a schema node.
type Kind int

const (
	// KindLeaf is a single value: string, number, bool, date or choice.
	KindLeaf Kind = iota
	// KindObject is a keyed container of named properties.
	KindObject
	// KindArray is an ordered container of elements sharing one node.
	KindArray
)

// Node describes one position in a form's value tree.
type Node struct {
	kind    Kind
	decode  Decoder
	def     any
	hasDef  bool
	props   []Property
	elem    *Node
	choices []string
}

// Property names a child node of an object.
type Property struct {
	Name string
	Node *Node
}

// Prop declares an object property.
func Prop(name string, node *Node) Property {
	return Property{Name: name, Node: node}
}

// String declares a text field. Default "".
func String() *Node {
	return &Node{kind: KindLeaf, decode: decodeString, def: "", hasDef: true}
}

// Number declares a numeric field. Numeric strings decode to float64 and
// the blank string is accepted, so the default is "".
func Number() *Node {
	return &Node{kind: KindLeaf, decode: decodeNumber, def: "", hasDef: true}
}

// Bool declares a checkbox-like field. Default false.
func Bool() *Node {
	return &Node{kind: KindLeaf, decode: decodeBool, def: false, hasDef: true}
}

// Date declares a date field holding a time.Time. Default nil.
func Date() *Node {
	return &Node{kind: KindLeaf, decode: decodeDate}
}

// Choice declares a field restricted to the given values. Default is the
// first value.
func Choice(values ...string) *Node {
	n := &Node{kind: KindLeaf, decode: choiceDecoder(values), choices: values}
	if len(values) > 0 {
		n.def, n.hasDef = values[0], true
	}
	return n
}

// Object declares a nested group of properties.
func Object(props ...Property) *Node {
	return &Node{kind: KindObject, decode: objectDecoder(props), props: props}
}

// Array declares a list whose elements follow elem.
func Array(elem *Node) *Node {
	return &Node{kind: KindArray, decode: arrayDecoder(elem), elem: elem}
}

// Custom declares a leaf with a caller-supplied decoder and default.
func Custom(decode Decoder, def any) *Node {
	return &Node{kind: KindLeaf, decode: decode, def: def, hasDef: true}
}

// Default returns a copy of the node with a different default value.
func (n *Node) Default(v any) *Node {
	c := *n
	c.def, c.hasDef = v, true
	return &c
}

// Kind returns the node kind.
func (n *Node) Kind() Kind {
	return n.kind
}

// Choices returns the allowed values of a Choice node.
func (n *Node) Choices() []string {
	return n.choices
}

// Decode narrows v to this node's value type.
func (n *Node) Decode(v any) (any, error) {
	return n.decode(v)
}

// Defaults builds the default value tree for the node.
func (n *Node) Defaults() any {
	if n.hasDef {
		return cloneDefault(n.def)
	}
	switch n.kind {
	case KindObject:
		out := make(map[string]any, len(n.props))
		for _, p := range n.props {
			out[p.Name] = p.Node.Defaults()
		}
		return out
	case KindArray:
		return []any{}
	default:
		return nil
	}
}

func (n *Node) prop(name string) (*Node, bool) {
	for _, p := range n.props {
		if p.Name == name {
			return p.Node, true
		}
	}
	return nil, false
}

// cloneDefault copies container defaults so separate forms never share
// one mutable tree.
func cloneDefault(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, c := range t {
			out[k] = cloneDefault(c)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, c := range t {
			out[i] = cloneDefault(c)
		}
		return out
	case time.Time:
		return t
	default:
		return v
	}
}

// Field is the descriptor of one form field: its path, the node that
// decodes its values and the lens that focuses it within the values tree.
type Field struct {
	path string
	segs []Segment
	node *Node
	lens atom.Lens[any, any]
}

func newField(segs []Segment, node *Node) *Field {
	return &Field{
		path: FormatPath(segs),
		segs: segs,
		node: node,
		lens: segmentsLens(segs),
	}
}

// Path returns the field path, e.g. "address.street" or "coupons[2]".
func (f *Field) Path() string { return f.path }

// Node returns the schema node backing the field.
func (f *Field) Node() *Node { return f.node }

// Lens returns the lens focusing the field within a values tree.
func (f *Field) Lens() atom.Lens[any, any] { return f.lens }

// Decode narrows v to the field's value type.
func (f *Field) Decode(v any) (any, error) {
	out, err := f.node.Decode(v)
	if err != nil {
		if f.path == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return out, nil
}

// Segments returns a copy of the parsed path.
func (f *Field) Segments() []Segment {
	return append([]Segment(nil), f.segs...)
}

// Children returns the descriptors of an object field's properties in
// declaration order. Array elements are not listed; use ElementOf.
func (f *Field) Children() []*Field {
	if f.node.kind != KindObject {
		return nil
	}
	out := make([]*Field, len(f.node.props))
	for i, p := range f.node.props {
		out[i] = newField(appendSeg(f.segs, Segment{Key: p.Name}), p.Node)
	}
	return out
}

func appendSeg(segs []Segment, s Segment) []Segment {
	out := make([]Segment, len(segs), len(segs)+1)
	copy(out, segs)
	return append(out, s)
}

// ChildOf returns the descriptor for property key of an object field.
func ChildOf(f *Field, key string) (*Field, error) {
	if f.node.kind != KindObject {
		return nil, fmt.Errorf("%w: %q is not an object", ErrUnknownField, f.path)
	}
	node, ok := f.node.prop(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, JoinKey(f.path, key))
	}
	return newField(appendSeg(f.segs, Segment{Key: key}), node), nil
}

// ElementOf returns the descriptor for element i of an array field.
func ElementOf(f *Field, i int) (*Field, error) {
	if f.node.kind != KindArray {
		return nil, fmt.Errorf("%w: %q is not an array", ErrUnknownField, f.path)
	}
	if i < 0 {
		return nil, fmt.Errorf("%w: negative index %d", ErrInvalidPath, i)
	}
	return newField(appendSeg(f.segs, Segment{Index: i, IsIndex: true}), f.node.elem), nil
}

// Schema is the root object of a form.
type Schema struct {
	root   *Field
	fields []*Field
}

// NewSchema creates a schema whose root object has the given properties.
func NewSchema(props ...Property) *Schema {
	root := newField(nil, Object(props...))
	return &Schema{root: root, fields: root.Children()}
}

// Root returns the descriptor of the whole form, path "".
func (s *Schema) Root() *Field {
	return s.root
}

// Fields returns the top-level field descriptors in declaration order.
func (s *Schema) Fields() []*Field {
	return s.fields
}

// Defaults returns a fresh default values tree.
func (s *Schema) Defaults() any {
	return s.root.node.Defaults()
}

// Field resolves a path to its descriptor.
func (s *Schema) Field(path string) (*Field, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	f := s.root
	for _, seg := range segs {
		if seg.IsIndex {
			f, err = ElementOf(f, seg.Index)
		} else {
			f, err = ChildOf(f, seg.Key)
		}
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

// MustField is like Field but panics when the path does not resolve.
func (s *Schema) MustField(path string) *Field {
	f, err := s.Field(path)
	if err != nil {
		panic(err)
	}
	return f
}
