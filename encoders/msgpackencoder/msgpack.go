// Package msgpackencoder provides a MessagePack encoder for wirebus
// messages. Integers use their smallest encoding. The keys of map[string]any
// and map[string]string values are written in sorted order; other map types
// are written in Go's iteration order.
package msgpackencoder

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/RobertWHurst/wirebus"
)

type Encoder struct{}

var _ wirebus.Encoder = &Encoder{}

func New() *Encoder {
	return &Encoder{}
}

func (e *Encoder) Name() string { return "msgpack" }

func (e *Encoder) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Encoder) Decode(data []byte, v any) error {
	return msgpack.NewDecoder(bytes.NewReader(data)).Decode(v)
}
