package hostvalue

import (
	"reflect"

	"github.com/RobertWHurst/wirebus/errors"
	"github.com/RobertWHurst/wirebus/typetag"
)

// NewBuilder returns a Builder that produces Reflected values. Values are
// built as the Go type the tag was resolved from, or as the canonical type of
// the tag's shape for hand-built tags.
func NewBuilder() Builder {
	return reflectBuilder{}
}

type reflectBuilder struct{}

func (reflectBuilder) scalar(t *typetag.Tag, v any) (Value, error) {
	goType, err := t.GoType()
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != goType {
		if rv.Kind() != goType.Kind() || !rv.Type().ConvertibleTo(goType) {
			return nil, errors.ScalarConversion(errors.PhaseDecode, nil, goType.String(), t.String(),
				"cannot build from "+rv.Type().String())
		}
		rv = rv.Convert(goType)
	}
	return Reflected{v: rv}, nil
}

func (b reflectBuilder) Bool(t *typetag.Tag, v bool) (Value, error)       { return b.scalar(t, v) }
func (b reflectBuilder) String(t *typetag.Tag, v string) (Value, error)   { return b.scalar(t, v) }
func (b reflectBuilder) Int8(t *typetag.Tag, v int8) (Value, error)       { return b.scalar(t, v) }
func (b reflectBuilder) Int16(t *typetag.Tag, v int16) (Value, error)     { return b.scalar(t, v) }
func (b reflectBuilder) Int32(t *typetag.Tag, v int32) (Value, error)     { return b.scalar(t, v) }
func (b reflectBuilder) Int64(t *typetag.Tag, v int64) (Value, error)     { return b.scalar(t, v) }
func (b reflectBuilder) Float32(t *typetag.Tag, v float32) (Value, error) { return b.scalar(t, v) }
func (b reflectBuilder) Float64(t *typetag.Tag, v float64) (Value, error) { return b.scalar(t, v) }

func (reflectBuilder) Bytes(t *typetag.Tag, v []byte) (Value, error) {
	goType, err := t.GoType()
	if err != nil {
		return nil, err
	}
	if goType.Kind() != reflect.Slice || goType.Elem().Kind() != reflect.Uint8 {
		return nil, errors.ScalarConversion(errors.PhaseDecode, nil, goType.String(), t.String(), "not a byte slice")
	}
	rv := reflect.New(goType).Elem()
	rv.SetBytes(v)
	return Reflected{v: rv}, nil
}

func (reflectBuilder) NewList(t *typetag.Tag, capacity int) (List, error) {
	goType, err := t.GoType()
	if err != nil {
		return nil, err
	}
	if goType.Kind() != reflect.Slice {
		return nil, errors.ScalarConversion(errors.PhaseDecode, nil, goType.String(), t.String(), "not a slice type")
	}
	return &reflectList{Reflected{v: reflect.MakeSlice(goType, 0, capacity)}}, nil
}

func (reflectBuilder) NewMap(t *typetag.Tag, capacity int) (Map, error) {
	goType, err := t.GoType()
	if err != nil {
		return nil, err
	}
	if goType.Kind() != reflect.Map {
		return nil, errors.ScalarConversion(errors.PhaseDecode, nil, goType.String(), t.String(), "not a map type")
	}
	return &reflectMap{Reflected{v: reflect.MakeMapWithSize(goType, capacity)}}, nil
}

type reflectList struct {
	Reflected
}

func (l *reflectList) Append(elem Value) error {
	ev, err := assignable(elem, l.v.Type().Elem())
	if err != nil {
		return err
	}
	l.v = reflect.Append(l.v, ev)
	return nil
}

type reflectMap struct {
	Reflected
}

func (m *reflectMap) Insert(key, value Value) error {
	kv, err := assignable(key, m.v.Type().Key())
	if err != nil {
		return err
	}
	vv, err := assignable(value, m.v.Type().Elem())
	if err != nil {
		return err
	}
	m.v.SetMapIndex(kv, vv)
	return nil
}

// ReflectOf returns the reflect.Value behind a value produced by this
// package.
func ReflectOf(v Value) (reflect.Value, bool) {
	rv, ok := v.(interface{ Reflect() reflect.Value })
	if !ok {
		return reflect.Value{}, false
	}
	return rv.Reflect(), true
}

// Interface unwraps a value produced by this package into a plain Go value.
func Interface(v Value) any {
	rv, ok := ReflectOf(v)
	if !ok || !rv.IsValid() || !rv.CanInterface() {
		return nil
	}
	return rv.Interface()
}

func assignable(v Value, to reflect.Type) (reflect.Value, error) {
	rv, ok := ReflectOf(v)
	if !ok {
		return reflect.Value{}, errors.ScalarConversion(errors.PhaseDecode, nil, to.String(), "",
			"value was not built by the reflect builder")
	}
	if !rv.Type().AssignableTo(to) {
		if rv.Kind() != to.Kind() || !rv.Type().ConvertibleTo(to) {
			return reflect.Value{}, errors.ScalarConversion(errors.PhaseDecode, nil, to.String(), "",
				"cannot store "+rv.Type().String())
		}
		rv = rv.Convert(to)
	}
	return rv, nil
}
