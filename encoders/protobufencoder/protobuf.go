// Package protobufencoder provides a Protocol Buffers encoder for wirebus
// messages. Only values implementing proto.Message are accepted.
package protobufencoder

import (
	"fmt"

	"google.golang.org/protobuf/proto"

	"github.com/RobertWHurst/wirebus"
)

type Encoder struct {
	marshal   proto.MarshalOptions
	unmarshal proto.UnmarshalOptions
}

var _ wirebus.Encoder = &Encoder{}

// New returns an encoder that marshals deterministically and drops unknown
// fields on decode.
func New() *Encoder {
	return &Encoder{
		marshal:   proto.MarshalOptions{Deterministic: true},
		unmarshal: proto.UnmarshalOptions{DiscardUnknown: true},
	}
}

func (e *Encoder) Name() string { return "protobuf" }

func (e *Encoder) Encode(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("protobufencoder: %T does not implement proto.Message", v)
	}
	return e.marshal.Marshal(m)
}

func (e *Encoder) Decode(data []byte, v any) error {
	m, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("protobufencoder: %T does not implement proto.Message", v)
	}
	return e.unmarshal.Unmarshal(data, m)
}
