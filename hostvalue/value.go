// Package hostvalue defines the capability set the codec uses to read and
// build values, and a reflect-backed implementation of it for ordinary Go
// values.
//
// The codec never owns a Value. It borrows one for the duration of a single
// encode or decode walk and never mutates what it reads.
package hostvalue

import "github.com/RobertWHurst/wirebus/typetag"

// Value is a borrowed reference to a host value. Each accessor fails with a
// scalar_conversion error when the underlying value does not support it.
type Value interface {
	AsBool() (bool, error)
	AsString() (string, error)
	AsBytes() ([]byte, error)
	AsInt8() (int8, error)
	AsInt16() (int16, error)
	AsInt32() (int32, error)
	AsInt64() (int64, error)
	AsFloat32() (float32, error)
	AsFloat64() (float64, error)

	// Len returns the element count of a sequence or the pair count of a map.
	Len() (int, error)

	// Elems calls fn for each element of a sequence in order, stopping at
	// the first error.
	Elems(fn func(elem Value) error) error

	// Pairs calls fn for each key/value pair of a map in the map's native
	// iteration order, stopping at the first error.
	Pairs(fn func(key, value Value) error) error
}

// List is a sequence under construction.
type List interface {
	Value
	Append(elem Value) error
}

// Map is an associative container under construction.
type Map interface {
	Value
	Insert(key, value Value) error
}

// Builder constructs host values during a decode. Each call receives the tag
// of the value being built so implementations can pick the concrete type.
type Builder interface {
	Bool(t *typetag.Tag, v bool) (Value, error)
	String(t *typetag.Tag, v string) (Value, error)
	Bytes(t *typetag.Tag, v []byte) (Value, error)
	Int8(t *typetag.Tag, v int8) (Value, error)
	Int16(t *typetag.Tag, v int16) (Value, error)
	Int32(t *typetag.Tag, v int32) (Value, error)
	Int64(t *typetag.Tag, v int64) (Value, error)
	Float32(t *typetag.Tag, v float32) (Value, error)
	Float64(t *typetag.Tag, v float64) (Value, error)

	// NewList returns an empty sequence with room for capacity elements.
	NewList(t *typetag.Tag, capacity int) (List, error)

	// NewMap returns an empty map with room for capacity pairs.
	NewMap(t *typetag.Tag, capacity int) (Map, error)
}
