// Package schema defines the declarative layout nodes that describe the
// shape and ownership of values in linear memory.
//
// Nodes are pure read-only metadata with caller lifetime: the free engine
// never mutates, stores, or releases them. A node set may be recursive
// (a mapping whose field refers back to the same mapping models a linked
// list or tree), which describes recursively nested data; the data itself
// is assumed acyclic.
package schema

// PointerSize is the byte width of an address in 32-bit linear memory.
const PointerSize = 4

// Node describes one value within a structure. It is a closed set:
// Scalar, Mapping, Sequence, and SequenceFixed are the only
// implementations.
type Node interface {
	// Kind reports which arm of the closed set this node is.
	Kind() Kind
	// Pointer reports whether the value is stored as an address of a
	// separately allocated block rather than inline.
	Pointer() bool
	// ByteSize is the inline byte size of one instance of the value's
	// content. For pointer-owned values this is the size of the pointed-to
	// content; the footprint in the containing structure is PointerSize.
	ByteSize() uint32

	isNode()
}

// Stride returns the byte distance between consecutive elements of a
// sequence whose element schema is n: one pointer width when elements are
// separately allocated, the inline content size otherwise. A sequence
// element is the exception: its count field sits inline next to the array
// pointer, so even a pointer-owned sequence occupies its full header in
// the containing array.
func Stride(n Node) uint32 {
	if s, ok := n.(*Sequence); ok {
		return s.Size
	}
	if n.Pointer() {
		return PointerSize
	}
	return n.ByteSize()
}

// Scalar is a leaf value needing no nested release: integers, floats,
// characters, enum discriminants, flag words, resource handles.
type Scalar struct {
	Size uint32
	Ptr  bool
}

func (s *Scalar) Kind() Kind       { return KindScalar }
func (s *Scalar) Pointer() bool    { return s.Ptr }
func (s *Scalar) ByteSize() uint32 { return s.Size }
func (*Scalar) isNode()            {}

// Field is one named member of a Mapping at a declared byte offset.
type Field struct {
	Node   Node
	Name   string
	Offset uint32
}

// Mapping is a record shape: a fixed set of named fields at declared
// offsets. Field order bounds traversal order only; it carries no other
// meaning.
type Mapping struct {
	Fields []Field
	Size   uint32
	Ptr    bool
}

func (m *Mapping) Kind() Kind       { return KindMapping }
func (m *Mapping) Pointer() bool    { return m.Ptr }
func (m *Mapping) ByteSize() uint32 { return m.Size }
func (*Mapping) isNode()            {}

// Sequence is a variable-length homogeneous array whose element count is
// stored in the buffer itself: an unsigned integer of CountWidth bytes at
// CountOffset relative to the sequence's own location. When Ptr is set the
// array body lives in a separately allocated block whose address is stored
// at the sequence's location; the sequence's own pointer flag and the
// element node's pointer flag are independent (they govern the array block
// and each element block respectively).
type Sequence struct {
	Elem        Node
	CountOffset uint32
	CountWidth  uint32
	Size        uint32
	Ptr         bool
}

func (s *Sequence) Kind() Kind       { return KindSequence }
func (s *Sequence) Pointer() bool    { return s.Ptr }
func (s *Sequence) ByteSize() uint32 { return s.Size }
func (*Sequence) isNode()            {}

// SequenceFixed is a homogeneous array whose element count is a
// schema-declared constant.
type SequenceFixed struct {
	Elem  Node
	Count uint32
	Ptr   bool
}

func (s *SequenceFixed) Kind() Kind    { return KindSequenceFixed }
func (s *SequenceFixed) Pointer() bool { return s.Ptr }

// ByteSize is the inline footprint of the whole fixed array.
func (s *SequenceFixed) ByteSize() uint32 {
	return s.Count * Stride(s.Elem)
}

func (*SequenceFixed) isNode() {}
