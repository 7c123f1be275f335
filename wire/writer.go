// Package wire holds the byte-level buffers the codec writes to and reads
// from. Fixed-width scalars are little-endian; lengths and counts are
// unsigned LEB128 varints.
package wire

import (
	"encoding/binary"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Writer is an append-only byte buffer. The zero value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter returns a writer with capacity preallocated.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) WriteInt8(v int8) {
	w.buf = append(w.buf, byte(v))
}

func (w *Writer) WriteInt16(v int16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(v))
}

func (w *Writer) WriteInt32(v int32) {
	w.buf = protowire.AppendFixed32(w.buf, uint32(v))
}

func (w *Writer) WriteInt64(v int64) {
	w.buf = protowire.AppendFixed64(w.buf, uint64(v))
}

func (w *Writer) WriteFloat32(v float32) {
	w.buf = protowire.AppendFixed32(w.buf, math.Float32bits(v))
}

func (w *Writer) WriteFloat64(v float64) {
	w.buf = protowire.AppendFixed64(w.buf, math.Float64bits(v))
}

// WriteVarint appends an unsigned LEB128 varint.
func (w *Writer) WriteVarint(v uint64) {
	w.buf = protowire.AppendVarint(w.buf, v)
}

// WriteBytes appends a varint length prefix followed by b.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = protowire.AppendBytes(w.buf, b)
}

// WriteString appends a varint length prefix followed by the UTF-8 bytes of s.
func (w *Writer) WriteString(s string) {
	w.buf = protowire.AppendString(w.buf, s)
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the written bytes. The slice aliases the writer's buffer
// until the next write.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reset discards the written bytes, keeping the allocated capacity.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}
