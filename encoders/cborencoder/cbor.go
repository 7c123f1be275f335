// Package cborencoder provides a CBOR encoder for wirebus messages.
package cborencoder

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/RobertWHurst/wirebus"
)

// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer encoding, no indefinite-length items.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cborencoder: encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		DupMapKey:      cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("cborencoder: decoder initialization failed: " + err.Error())
	}
}

type Encoder struct{}

var _ wirebus.Encoder = &Encoder{}

func New() *Encoder {
	return &Encoder{}
}

func (e *Encoder) Name() string { return "cbor" }

func (e *Encoder) Encode(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func (e *Encoder) Decode(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Diagnose renders data in CBOR diagnostic notation.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
