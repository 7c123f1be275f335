package codec

import (
	"encoding/hex"
	"fmt"
	"reflect"

	"github.com/RobertWHurst/wirebus/errors"
	"github.com/RobertWHurst/wirebus/hostvalue"
	"github.com/RobertWHurst/wirebus/typetag"
	"github.com/RobertWHurst/wirebus/wire"
)

// Payload is an encoded value. The zero Payload is empty.
type Payload struct {
	data []byte
}

// NewPayload wraps b without copying it.
func NewPayload(b []byte) Payload {
	return Payload{data: b}
}

func (p Payload) Bytes() []byte { return p.data }
func (p Payload) Len() int      { return len(p.data) }

// String renders the payload as hex.
func (p Payload) String() string {
	return hex.EncodeToString(p.data)
}

// Serialize encodes v using the tag resolved from T.
func Serialize[T any](v T) (Payload, error) {
	return SerializeType(v, reflect.TypeFor[T]())
}

// SerializeType encodes v using the tag resolved from t. The value only
// needs to be readable as t's shape; it does not have to be of type t.
func SerializeType(v any, t reflect.Type) (Payload, error) {
	tag, err := typetag.Resolve(t)
	if err != nil {
		return Payload{}, err
	}
	return SerializeTag(v, tag)
}

// SerializeTag encodes v using an already resolved or hand-built tag.
func SerializeTag(v any, tag *typetag.Tag) (Payload, error) {
	if tag == nil {
		return Payload{}, errors.ReflectionCall(errors.PhaseEncode, nil, nil, "nil tag")
	}
	w := wire.NewWriter(sizeHint(tag))
	if err := Encode(w, hostvalue.Of(v), tag); err != nil {
		return Payload{}, err
	}
	return Payload{data: w.Bytes()}, nil
}

// Deserialize decodes p as a T. The whole payload must be consumed.
func Deserialize[T any](p Payload) (T, error) {
	var zero T
	v, err := DeserializeType(p, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, errors.ScalarConversion(errors.PhaseDecode, nil, reflect.TypeFor[T]().String(), "",
			fmt.Sprintf("decoded value has type %T", v))
	}
	return out, nil
}

// DeserializeType decodes p as a value of type t and returns it boxed.
func DeserializeType(p Payload, t reflect.Type) (any, error) {
	tag, err := typetag.Resolve(t)
	if err != nil {
		return nil, err
	}
	return DeserializeTag(p, tag)
}

// DeserializeTag decodes p using tag. Values are built as the Go type the
// tag was resolved from, or as the canonical Go type of the tag's shape.
func DeserializeTag(p Payload, tag *typetag.Tag) (any, error) {
	if tag == nil {
		return nil, errors.ReflectionCall(errors.PhaseDecode, nil, nil, "nil tag")
	}
	v, err := DecodeAll(wire.NewReader(p.data), tag, hostvalue.NewBuilder())
	if err != nil {
		return nil, err
	}
	return hostvalue.Interface(v), nil
}

func sizeHint(tag *typetag.Tag) int {
	if n := tag.Kind().FixedSize(); n > 0 {
		return n
	}
	return 64
}
