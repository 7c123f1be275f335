package codec

import (
	"fmt"

	"github.com/RobertWHurst/wirebus/errors"
	"github.com/RobertWHurst/wirebus/hostvalue"
	"github.com/RobertWHurst/wirebus/typetag"
	"github.com/RobertWHurst/wirebus/wire"
)

// Decode reads one value of shape t from r and builds it with b. It does not
// check that r is exhausted afterwards; use DecodeAll for that.
func Decode(r *wire.Reader, t *typetag.Tag, b hostvalue.Builder) (v hostvalue.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			v, err = nil, errors.FromPanic(errors.PhaseDecode, nil, rec)
		}
	}()
	return decode(r, t, b, nil)
}

// DecodeAll decodes a value and fails with a trailing_data error if any
// bytes remain in r afterwards.
func DecodeAll(r *wire.Reader, t *typetag.Tag, b hostvalue.Builder) (hostvalue.Value, error) {
	v, err := Decode(r, t, b)
	if err != nil {
		return nil, err
	}
	if !r.Done() {
		return nil, errors.TrailingData(t.String(), r.Offset(), r.Remaining())
	}
	return v, nil
}

func decode(r *wire.Reader, t *typetag.Tag, b hostvalue.Builder, path []string) (hostvalue.Value, error) {
	var (
		v   hostvalue.Value
		err error
	)

	switch t.Kind() {
	case typetag.KindBoolean:
		var x bool
		if x, err = r.ReadBool(); err == nil {
			v, err = b.Bool(t, x)
		}

	case typetag.KindString:
		var x string
		if x, err = r.ReadString(); err == nil {
			v, err = b.String(t, x)
		}

	case typetag.KindByteArray:
		var x []byte
		if x, err = r.ReadBytes(); err == nil {
			v, err = b.Bytes(t, x)
		}

	case typetag.KindByte:
		var x int8
		if x, err = r.ReadInt8(); err == nil {
			v, err = b.Int8(t, x)
		}

	case typetag.KindShort:
		var x int16
		if x, err = r.ReadInt16(); err == nil {
			v, err = b.Int16(t, x)
		}

	case typetag.KindInt:
		var x int32
		if x, err = r.ReadInt32(); err == nil {
			v, err = b.Int32(t, x)
		}

	case typetag.KindLong:
		var x int64
		if x, err = r.ReadInt64(); err == nil {
			v, err = b.Int64(t, x)
		}

	case typetag.KindFloat:
		var x float32
		if x, err = r.ReadFloat32(); err == nil {
			v, err = b.Float32(t, x)
		}

	case typetag.KindDouble:
		var x float64
		if x, err = r.ReadFloat64(); err == nil {
			v, err = b.Float64(t, x)
		}

	case typetag.KindList:
		return decodeList(r, t, b, path)

	case typetag.KindMap:
		return decodeMap(r, t, b, path)

	default:
		return nil, errors.New(errors.PhaseDecode, errors.KindUnsupportedType).
			Path(clonePath(path)...).
			Tag(t.String()).
			Detail("tag kind %s cannot be decoded", t.Kind()).
			Build()
	}

	if err != nil {
		return nil, at(errors.PhaseDecode, err, path, t)
	}
	return v, nil
}

func decodeList(r *wire.Reader, t *typetag.Tag, b hostvalue.Builder, path []string) (hostvalue.Value, error) {
	n, err := r.ReadCount()
	if err != nil {
		return nil, at(errors.PhaseDecode, err, path, t)
	}
	list, err := b.NewList(t, n)
	if err != nil {
		return nil, at(errors.PhaseDecode, err, path, t)
	}

	for i := 0; i < n; i++ {
		elemPath := append(path, fmt.Sprintf("[%d]", i))
		elem, err := decode(r, t.Elem(), b, elemPath)
		if err != nil {
			return nil, err
		}
		if err := list.Append(elem); err != nil {
			return nil, at(errors.PhaseDecode, err, elemPath, t.Elem())
		}
	}
	return list, nil
}

func decodeMap(r *wire.Reader, t *typetag.Tag, b hostvalue.Builder, path []string) (hostvalue.Value, error) {
	n, err := r.ReadCount()
	if err != nil {
		return nil, at(errors.PhaseDecode, err, path, t)
	}
	m, err := b.NewMap(t, n)
	if err != nil {
		return nil, at(errors.PhaseDecode, err, path, t)
	}

	for i := 0; i < n; i++ {
		key, err := decode(r, t.Key(), b, append(path, fmt.Sprintf("{%d}.key", i)))
		if err != nil {
			return nil, err
		}
		value, err := decode(r, t.Value(), b, append(path, fmt.Sprintf("{%d}.value", i)))
		if err != nil {
			return nil, err
		}
		if err := m.Insert(key, value); err != nil {
			return nil, at(errors.PhaseDecode, err, append(path, fmt.Sprintf("{%d}", i)), t)
		}
	}
	return m, nil
}
