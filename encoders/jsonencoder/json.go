// Package jsonencoder provides a JSON encoder for wirebus messages.
package jsonencoder

import (
	"bytes"
	"encoding/json"

	"github.com/RobertWHurst/wirebus"
)

// Encoder implements wirebus.Encoder with encoding/json. HTML characters are
// not escaped, and numbers decoded into an interface are kept as
// json.Number so that 64-bit integers survive.
type Encoder struct{}

var _ wirebus.Encoder = &Encoder{}

func New() *Encoder {
	return &Encoder{}
}

func (e *Encoder) Name() string { return "json" }

func (e *Encoder) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

func (e *Encoder) Decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
