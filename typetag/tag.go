// Package typetag normalizes Go type descriptors into a closed, recursive
// tree of type tags that drives the binary codec.
//
// A Tag is immutable once built and safe to share between goroutines. The
// serializer and deserializer walk the same tree so the two directions stay
// structurally identical.
package typetag

import (
	"reflect"
	"strings"
)

// Tag is one node of a type tag tree. List nodes have exactly one child,
// Map nodes exactly two (key first, value second).
type Tag struct {
	kind   Kind
	elem   *Tag
	key    *Tag
	value  *Tag
	goType reflect.Type
}

// Shared leaf tags.
var (
	Boolean   = &Tag{kind: KindBoolean}
	String    = &Tag{kind: KindString}
	ByteArray = &Tag{kind: KindByteArray}
	Byte      = &Tag{kind: KindByte}
	Short     = &Tag{kind: KindShort}
	Int       = &Tag{kind: KindInt}
	Long      = &Tag{kind: KindLong}
	Float     = &Tag{kind: KindFloat}
	Double    = &Tag{kind: KindDouble}
)

var leaves = [...]*Tag{
	KindBoolean:   Boolean,
	KindString:    String,
	KindByteArray: ByteArray,
	KindByte:      Byte,
	KindShort:     Short,
	KindInt:       Int,
	KindLong:      Long,
	KindFloat:     Float,
	KindDouble:    Double,
}

// Scalar returns the shared leaf tag for k, or nil if k is not a scalar kind.
func Scalar(k Kind) *Tag {
	if !k.IsScalar() {
		return nil
	}
	return leaves[k]
}

// List builds a list tag. It panics if elem is nil.
func List(elem *Tag) *Tag {
	if elem == nil {
		panic("typetag: nil list element tag")
	}
	return &Tag{kind: KindList, elem: elem}
}

// Map builds a map tag. It panics if key or value is nil.
func Map(key, value *Tag) *Tag {
	if key == nil || value == nil {
		panic("typetag: nil map key or value tag")
	}
	return &Tag{kind: KindMap, key: key, value: value}
}

func (t *Tag) Kind() Kind { return t.kind }

// Elem returns the element tag of a list, nil otherwise.
func (t *Tag) Elem() *Tag { return t.elem }

// Key returns the key tag of a map, nil otherwise.
func (t *Tag) Key() *Tag { return t.key }

// Value returns the value tag of a map, nil otherwise.
func (t *Tag) Value() *Tag { return t.value }

// Type returns the Go type the tag was resolved from, or nil for tags built
// by hand.
func (t *Tag) Type() reflect.Type { return t.goType }

// Equal reports whether two trees have the same shape. The Go types the
// trees were resolved from are not compared.
func (t *Tag) Equal(o *Tag) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindList:
		return t.elem.Equal(o.elem)
	case KindMap:
		return t.key.Equal(o.key) && t.value.Equal(o.value)
	default:
		return true
	}
}

// Depth returns the nesting depth of the tree; leaves have depth 1.
func (t *Tag) Depth() int {
	switch t.kind {
	case KindList:
		return 1 + t.elem.Depth()
	case KindMap:
		return 1 + max(t.key.Depth(), t.value.Depth())
	default:
		return 1
	}
}

// String renders the tag as a type expression, e.g. "map<string,list<int>>".
// ParseExpr accepts the same syntax.
func (t *Tag) String() string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Tag) write(b *strings.Builder) {
	b.WriteString(t.kind.String())
	switch t.kind {
	case KindList:
		b.WriteByte('<')
		t.elem.write(b)
		b.WriteByte('>')
	case KindMap:
		b.WriteByte('<')
		t.key.write(b)
		b.WriteByte(',')
		t.value.write(b)
		b.WriteByte('>')
	}
}
