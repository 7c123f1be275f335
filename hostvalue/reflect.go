package hostvalue

import (
	"fmt"
	"math"
	"math/bits"
	"reflect"

	"github.com/RobertWHurst/wirebus/errors"
)

// Reflected adapts a reflect.Value to the Value capability set. Interfaces
// and pointers are followed to the value they hold.
//
// Integer accessors accept any integer kind whose value fits the requested
// width. Float accessors accept float kinds within range and integer kinds
// the float can hold exactly. Everything else must match the accessor
// exactly.
type Reflected struct {
	v reflect.Value
}

var _ Value = Reflected{}

// Of wraps an arbitrary Go value.
func Of(v any) Reflected {
	return Reflected{v: reflect.ValueOf(v)}
}

// FromReflect wraps an existing reflect.Value.
func FromReflect(v reflect.Value) Reflected {
	return Reflected{v: v}
}

// Reflect returns the wrapped reflect.Value.
func (r Reflected) Reflect() reflect.Value {
	return r.v
}

// Interface returns the wrapped value as an any, or nil for an invalid value.
func (r Reflected) Interface() any {
	if !r.v.IsValid() || !r.v.CanInterface() {
		return nil
	}
	return r.v.Interface()
}

func (r Reflected) indirect() (reflect.Value, bool) {
	v := r.v
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}

func (r Reflected) fail(want string) error {
	v, ok := r.indirect()
	if !ok {
		return errors.ScalarConversion(errors.PhaseEncode, nil, "nil", "", "cannot read "+want+" from a nil value")
	}
	return errors.ScalarConversion(errors.PhaseEncode, nil, v.Type().String(), "",
		fmt.Sprintf("cannot read %s from %s", want, v.Kind()))
}

func (r Reflected) AsBool() (bool, error) {
	v, ok := r.indirect()
	if !ok || v.Kind() != reflect.Bool {
		return false, r.fail("bool")
	}
	return v.Bool(), nil
}

func (r Reflected) AsString() (string, error) {
	v, ok := r.indirect()
	if !ok || v.Kind() != reflect.String {
		return "", r.fail("string")
	}
	return v.String(), nil
}

func (r Reflected) AsBytes() ([]byte, error) {
	v, ok := r.indirect()
	if !ok || v.Kind() != reflect.Slice || v.Type().Elem().Kind() != reflect.Uint8 {
		return nil, r.fail("bytes")
	}
	return v.Bytes(), nil
}

func (r Reflected) AsInt8() (int8, error) {
	n, err := r.integer("int8", math.MinInt8, math.MaxInt8)
	return int8(n), err
}

func (r Reflected) AsInt16() (int16, error) {
	n, err := r.integer("int16", math.MinInt16, math.MaxInt16)
	return int16(n), err
}

func (r Reflected) AsInt32() (int32, error) {
	n, err := r.integer("int32", math.MinInt32, math.MaxInt32)
	return int32(n), err
}

func (r Reflected) AsInt64() (int64, error) {
	return r.integer("int64", math.MinInt64, math.MaxInt64)
}

func (r Reflected) integer(want string, lo, hi int64) (int64, error) {
	v, ok := r.indirect()
	if !ok {
		return 0, r.fail(want)
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		if n < lo || n > hi {
			return 0, r.overflow(v, want)
		}
		return n, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > uint64(hi) {
			return 0, r.overflow(v, want)
		}
		return int64(u), nil
	}
	return 0, r.fail(want)
}

func (r Reflected) overflow(v reflect.Value, want string) error {
	return errors.New(errors.PhaseEncode, errors.KindScalarConversion).
		GoType(v.Type().String()).
		Value(v.Interface()).
		Detail("value %v overflows %s", v.Interface(), want).
		Build()
}

func (r Reflected) AsFloat32() (float32, error) {
	f, err := r.float("float32", 24)
	if err != nil {
		return 0, err
	}
	if !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
		v, _ := r.indirect()
		return 0, r.overflow(v, "float32")
	}
	return float32(f), nil
}

func (r Reflected) AsFloat64() (float64, error) {
	return r.float("float64", 53)
}

// float reads a float or integer kind. Integers must be exactly
// representable with the given number of mantissa bits.
func (r Reflected) float(want string, mantissa int) (float64, error) {
	v, ok := r.indirect()
	if !ok {
		return 0, r.fail(want)
	}

	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		mag := uint64(n)
		if n < 0 {
			mag = -mag
		}
		if !exactIn(mag, mantissa) {
			return 0, r.inexact(v, want)
		}
		return float64(n), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if !exactIn(u, mantissa) {
			return 0, r.inexact(v, want)
		}
		return float64(u), nil
	}
	return 0, r.fail(want)
}

// exactIn reports whether the integer magnitude u survives a round trip
// through a float with the given number of mantissa bits.
func exactIn(u uint64, mantissa int) bool {
	if u == 0 {
		return true
	}
	return u>>bits.TrailingZeros64(u) < 1<<mantissa
}

func (r Reflected) inexact(v reflect.Value, want string) error {
	return errors.New(errors.PhaseEncode, errors.KindScalarConversion).
		GoType(v.Type().String()).
		Value(v.Interface()).
		Detail("value %v is not exactly representable as %s", v.Interface(), want).
		Build()
}

func (r Reflected) Len() (int, error) {
	v, ok := r.indirect()
	if !ok {
		return 0, r.fail("length")
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return v.Len(), nil
	}
	return 0, r.fail("length")
}

func (r Reflected) Elems(fn func(elem Value) error) error {
	v, ok := r.indirect()
	if !ok || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		return r.fail("sequence")
	}

	for i := 0; i < v.Len(); i++ {
		if err := fn(Reflected{v: v.Index(i)}); err != nil {
			return err
		}
	}
	return nil
}

func (r Reflected) Pairs(fn func(key, value Value) error) error {
	v, ok := r.indirect()
	if !ok || v.Kind() != reflect.Map {
		return r.fail("map")
	}

	iter := v.MapRange()
	for iter.Next() {
		if err := fn(Reflected{v: iter.Key()}, Reflected{v: iter.Value()}); err != nil {
			return err
		}
	}
	return nil
}
