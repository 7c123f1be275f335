// Package codec converts Go values to and from a compact, self-describing
// binary format driven by a type tag tree.
//
// The wire format is:
//
//	bool                      1 byte, 0 or 1
//	int8/int16/int32/int64    fixed width, little-endian, two's complement
//	float32/float64           fixed width, little-endian IEEE 754
//	string, []byte            varint length, then the raw (UTF-8) bytes
//	list                      varint element count, then each element in order
//	map                       varint pair count, then key and value of each pair
//
// Varints are unsigned LEB128. Map pairs are written in the map's native
// iteration order, which is not canonicalized: two equal maps may encode to
// different byte sequences.
//
// The simplest entry points are generic:
//
//	p, err := codec.Serialize(map[string][]int32{"x": {7, 8}})
//	m, err := codec.Deserialize[map[string][]int32](p)
//
// Encode and Decode expose the underlying walk over any hostvalue.Value and
// hostvalue.Builder.
package codec
