package codec

import (
	stderrors "errors"
	"fmt"

	"github.com/RobertWHurst/wirebus/errors"
	"github.com/RobertWHurst/wirebus/hostvalue"
	"github.com/RobertWHurst/wirebus/typetag"
	"github.com/RobertWHurst/wirebus/wire"
)

// Encode appends the encoding of v under t to w. The walk is depth-first and
// single-pass. On error, w may hold a partial encoding and must be
// discarded.
func Encode(w *wire.Writer, v hostvalue.Value, t *typetag.Tag) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.FromPanic(errors.PhaseEncode, nil, r)
		}
	}()
	return encode(w, v, t, nil)
}

func encode(w *wire.Writer, v hostvalue.Value, t *typetag.Tag, path []string) error {
	switch t.Kind() {
	case typetag.KindBoolean:
		b, err := v.AsBool()
		if err != nil {
			return at(errors.PhaseEncode, err, path, t)
		}
		w.WriteBool(b)

	case typetag.KindString:
		s, err := v.AsString()
		if err != nil {
			return at(errors.PhaseEncode, err, path, t)
		}
		w.WriteString(s)

	case typetag.KindByteArray:
		b, err := v.AsBytes()
		if err != nil {
			return at(errors.PhaseEncode, err, path, t)
		}
		w.WriteBytes(b)

	case typetag.KindByte:
		n, err := v.AsInt8()
		if err != nil {
			return at(errors.PhaseEncode, err, path, t)
		}
		w.WriteInt8(n)

	case typetag.KindShort:
		n, err := v.AsInt16()
		if err != nil {
			return at(errors.PhaseEncode, err, path, t)
		}
		w.WriteInt16(n)

	case typetag.KindInt:
		n, err := v.AsInt32()
		if err != nil {
			return at(errors.PhaseEncode, err, path, t)
		}
		w.WriteInt32(n)

	case typetag.KindLong:
		n, err := v.AsInt64()
		if err != nil {
			return at(errors.PhaseEncode, err, path, t)
		}
		w.WriteInt64(n)

	case typetag.KindFloat:
		f, err := v.AsFloat32()
		if err != nil {
			return at(errors.PhaseEncode, err, path, t)
		}
		w.WriteFloat32(f)

	case typetag.KindDouble:
		f, err := v.AsFloat64()
		if err != nil {
			return at(errors.PhaseEncode, err, path, t)
		}
		w.WriteFloat64(f)

	case typetag.KindList:
		return encodeList(w, v, t, path)

	case typetag.KindMap:
		return encodeMap(w, v, t, path)

	default:
		return errors.New(errors.PhaseEncode, errors.KindUnsupportedType).
			Path(clonePath(path)...).
			Tag(t.String()).
			Detail("tag kind %s cannot be encoded", t.Kind()).
			Build()
	}
	return nil
}

func encodeList(w *wire.Writer, v hostvalue.Value, t *typetag.Tag, path []string) error {
	n, err := v.Len()
	if err != nil {
		return at(errors.PhaseEncode, err, path, t)
	}
	w.WriteVarint(uint64(n))

	i := 0
	err = v.Elems(func(elem hostvalue.Value) error {
		if i >= n {
			return errCountChanged(path, t, n)
		}
		err := encode(w, elem, t.Elem(), append(path, fmt.Sprintf("[%d]", i)))
		i++
		return err
	})
	if err != nil {
		return at(errors.PhaseEncode, err, path, t)
	}
	if i != n {
		return errCountChanged(path, t, n)
	}
	return nil
}

func encodeMap(w *wire.Writer, v hostvalue.Value, t *typetag.Tag, path []string) error {
	n, err := v.Len()
	if err != nil {
		return at(errors.PhaseEncode, err, path, t)
	}
	w.WriteVarint(uint64(n))

	i := 0
	err = v.Pairs(func(key, value hostvalue.Value) error {
		if i >= n {
			return errCountChanged(path, t, n)
		}
		if err := encode(w, key, t.Key(), append(path, fmt.Sprintf("{%d}.key", i))); err != nil {
			return err
		}
		if err := encode(w, value, t.Value(), append(path, fmt.Sprintf("{%d}.value", i))); err != nil {
			return err
		}
		i++
		return nil
	})
	if err != nil {
		return at(errors.PhaseEncode, err, path, t)
	}
	if i != n {
		return errCountChanged(path, t, n)
	}
	return nil
}

func errCountChanged(path []string, t *typetag.Tag, n int) error {
	return errors.New(errors.PhaseEncode, errors.KindScalarConversion).
		Path(clonePath(path)...).
		Tag(t.String()).
		Detail("iteration does not match reported length %d", n).
		Build()
}

// at attaches the value path and tag to an error that does not carry them
// yet. Errors from foreign Value implementations are wrapped as
// scalar_conversion errors.
func at(phase errors.Phase, err error, path []string, t *typetag.Tag) error {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return errors.New(phase, errors.KindScalarConversion).
			Path(clonePath(path)...).
			Tag(t.String()).
			Cause(err).
			Build()
	}
	if e.Path == nil {
		e.Path = clonePath(path)
	}
	if e.Tag == "" {
		e.Tag = t.String()
	}
	return e
}

func clonePath(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	return append([]string(nil), path...)
}
