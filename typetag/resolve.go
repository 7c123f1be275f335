package typetag

import (
	"fmt"
	"reflect"

	"github.com/RobertWHurst/wirebus/errors"
)

var scalarKinds = map[reflect.Kind]Kind{
	reflect.Bool:    KindBoolean,
	reflect.String:  KindString,
	reflect.Int8:    KindByte,
	reflect.Int16:   KindShort,
	reflect.Int32:   KindInt,
	reflect.Int64:   KindLong,
	reflect.Float32: KindFloat,
	reflect.Float64: KindDouble,
}

var canonicalTypes = [...]reflect.Type{
	KindBoolean:   reflect.TypeFor[bool](),
	KindString:    reflect.TypeFor[string](),
	KindByteArray: reflect.TypeFor[[]byte](),
	KindByte:      reflect.TypeFor[int8](),
	KindShort:     reflect.TypeFor[int16](),
	KindInt:       reflect.TypeFor[int32](),
	KindLong:      reflect.TypeFor[int64](),
	KindFloat:     reflect.TypeFor[float32](),
	KindDouble:    reflect.TypeFor[float64](),
}

// Resolve classifies a Go type into a tag tree.
//
// Scalars are matched first: bool, string, []byte, int8, int16, int32, int64,
// float32 and float64, including named types with those underlying kinds.
// Any other slice becomes a List of its resolved element type, and a map
// becomes a Map of its resolved key and value types. Every other type fails
// with an unsupported_type error naming it. Resolution holds no state between
// calls, so resolving the same type twice yields equal trees.
func Resolve(t reflect.Type) (tag *Tag, err error) {
	if t == nil {
		return nil, errors.ReflectionCall(errors.PhaseResolve, nil, nil, "nil type descriptor")
	}
	defer func() {
		if r := recover(); r != nil {
			tag = nil
			err = errors.FromPanic(errors.PhaseResolve, nil, r)
		}
	}()
	r := resolver{}
	return r.resolve(t, nil)
}

// MustResolve is like Resolve but panics on error. It is meant for package
// level variables holding tags of known-good types.
func MustResolve(t reflect.Type) *Tag {
	tag, err := Resolve(t)
	if err != nil {
		panic(err)
	}
	return tag
}

// Of resolves the tag of T.
func Of[T any]() (*Tag, error) {
	return Resolve(reflect.TypeFor[T]())
}

type resolver struct {
	active []reflect.Type
}

func (r *resolver) resolve(t reflect.Type, path []string) (*Tag, error) {
	if k, ok := scalarKinds[t.Kind()]; ok {
		return r.leaf(k, t), nil
	}

	switch t.Kind() {
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return r.leaf(KindByteArray, t), nil
		}
		if err := r.enter(t, path); err != nil {
			return nil, err
		}
		defer r.leave()

		elem, err := r.resolve(t.Elem(), append(path, "[]"))
		if err != nil {
			return nil, err
		}
		return &Tag{kind: KindList, elem: elem, goType: t}, nil

	case reflect.Map:
		if err := r.enter(t, path); err != nil {
			return nil, err
		}
		defer r.leave()

		key, err := r.resolve(t.Key(), append(path, ".key"))
		if err != nil {
			return nil, err
		}
		value, err := r.resolve(t.Elem(), append(path, ".value"))
		if err != nil {
			return nil, err
		}
		return &Tag{kind: KindMap, key: key, value: value, goType: t}, nil
	}

	return nil, errors.UnsupportedType(clonePath(path), QualifiedName(t), unsupportedReason(t))
}

func (r *resolver) leaf(k Kind, t reflect.Type) *Tag {
	if t == canonicalTypes[k] {
		return leaves[k]
	}
	return &Tag{kind: k, goType: t}
}

func (r *resolver) enter(t reflect.Type, path []string) error {
	for _, a := range r.active {
		if a == t {
			return errors.UnsupportedType(clonePath(path), QualifiedName(t), "self-referential type")
		}
	}
	r.active = append(r.active, t)
	return nil
}

func (r *resolver) leave() {
	r.active = r.active[:len(r.active)-1]
}

func unsupportedReason(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		return "platform-sized integers have no fixed wire width"
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "unsigned integers are not supported"
	case reflect.Array:
		return "fixed-size arrays are not supported, use a slice"
	case reflect.Interface:
		return "interface types carry no shape"
	case reflect.Pointer:
		return "pointer types are not supported"
	default:
		return fmt.Sprintf("%s is neither a scalar, a list nor a map", t.Kind())
	}
}

// QualifiedName returns the package-qualified name of t, falling back to
// the type literal for unnamed types.
func QualifiedName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func clonePath(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	return append([]string(nil), path...)
}
