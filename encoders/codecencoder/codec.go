// Package codecencoder adapts the type-directed binary codec to the
// wirebus.Encoder interface.
//
// The shape of every message is derived from its Go type: Encode resolves
// the dynamic type of the value and Decode resolves the element type of the
// destination pointer. Both sides must therefore agree on the Go types they
// exchange. An encoder created with NewWithTag uses a fixed tag instead,
// which allows decoding into an *any.
package codecencoder

import (
	"reflect"

	"github.com/RobertWHurst/wirebus"
	"github.com/RobertWHurst/wirebus/codec"
	"github.com/RobertWHurst/wirebus/errors"
	"github.com/RobertWHurst/wirebus/typetag"
)

type Encoder struct {
	tag *typetag.Tag
}

var _ wirebus.Encoder = &Encoder{}

func New() *Encoder {
	return &Encoder{}
}

// NewWithTag returns an encoder that encodes and decodes every message as
// tag, regardless of the Go types involved.
func NewWithTag(tag *typetag.Tag) *Encoder {
	return &Encoder{tag: tag}
}

func (e *Encoder) Name() string { return "codec" }

// Tag returns the fixed tag, or nil when the tag is derived per message.
func (e *Encoder) Tag() *typetag.Tag { return e.tag }

func (e *Encoder) Encode(v any) ([]byte, error) {
	if e.tag != nil {
		p, err := codec.SerializeTag(v, e.tag)
		return p.Bytes(), err
	}
	if v == nil {
		return nil, errors.ReflectionCall(errors.PhaseEncode, nil, nil, "cannot derive a tag from nil")
	}
	p, err := codec.SerializeType(v, reflect.TypeOf(v))
	return p.Bytes(), err
}

// Decode decodes data into the value v points to. When the destination type
// differs from the type the value was built as, the value is converted if
// the conversion is lossless in shape.
func (e *Encoder) Decode(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.ReflectionCall(errors.PhaseDecode, nil, nil, "decode target must be a non-nil pointer")
	}
	dst := rv.Elem()

	var (
		out any
		err error
	)
	if e.tag != nil {
		out, err = codec.DeserializeTag(codec.NewPayload(data), e.tag)
	} else {
		out, err = codec.DeserializeType(codec.NewPayload(data), dst.Type())
	}
	if err != nil {
		return err
	}

	ov := reflect.ValueOf(out)
	switch {
	case ov.Type().AssignableTo(dst.Type()):
		dst.Set(ov)
	case ov.Type().ConvertibleTo(dst.Type()) && ov.Kind() == dst.Kind():
		dst.Set(ov.Convert(dst.Type()))
	default:
		return errors.ScalarConversion(errors.PhaseDecode, nil, dst.Type().String(), "",
			"cannot store decoded "+ov.Type().String())
	}
	return nil
}
