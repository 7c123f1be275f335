package wirebus

// Encoder converts message values to and from payload bytes. The encoders
// subpackages provide JSON, MessagePack, Protocol Buffers, CBOR and the
// type-directed binary codec.
type Encoder interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}
