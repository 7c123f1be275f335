package wire

import (
	"bytes"
	stderrors "errors"
	"math"
	"testing"

	"github.com/RobertWHurst/wirebus/errors"
)

func TestWriterFixedWidth(t *testing.T) {
	tests := []struct {
		name     string
		write    func(w *Writer)
		expected []byte
	}{
		{name: "bool true", write: func(w *Writer) { w.WriteBool(true) }, expected: []byte{1}},
		{name: "bool false", write: func(w *Writer) { w.WriteBool(false) }, expected: []byte{0}},
		{name: "int8", write: func(w *Writer) { w.WriteInt8(-2) }, expected: []byte{0xFE}},
		{name: "int16", write: func(w *Writer) { w.WriteInt16(0x0102) }, expected: []byte{0x02, 0x01}},
		{name: "int32", write: func(w *Writer) { w.WriteInt32(42) }, expected: []byte{42, 0, 0, 0}},
		{name: "int32 negative", write: func(w *Writer) { w.WriteInt32(-1) }, expected: []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{name: "int64", write: func(w *Writer) { w.WriteInt64(1) }, expected: []byte{1, 0, 0, 0, 0, 0, 0, 0}},
		{name: "float32", write: func(w *Writer) { w.WriteFloat32(1) }, expected: []byte{0, 0, 0x80, 0x3F}},
		{name: "float64", write: func(w *Writer) { w.WriteFloat64(1) }, expected: []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Writer{}
			tt.write(w)
			if !bytes.Equal(w.Bytes(), tt.expected) {
				t.Errorf("Expected % x, got % x", tt.expected, w.Bytes())
			}
		})
	}
}

func TestWriterVarint(t *testing.T) {
	tests := []struct {
		value    uint64
		expected []byte
	}{
		{value: 0, expected: []byte{0x00}},
		{value: 1, expected: []byte{0x01}},
		{value: 127, expected: []byte{0x7F}},
		{value: 128, expected: []byte{0x80, 0x01}},
		{value: 300, expected: []byte{0xAC, 0x02}},
	}

	for _, tt := range tests {
		w := NewWriter(4)
		w.WriteVarint(tt.value)
		if !bytes.Equal(w.Bytes(), tt.expected) {
			t.Errorf("varint(%d): expected % x, got % x", tt.value, tt.expected, w.Bytes())
		}
	}
}

func TestWriterLengthPrefixed(t *testing.T) {
	w := &Writer{}
	w.WriteString("hi")
	w.WriteBytes([]byte{9})

	expected := []byte{2, 'h', 'i', 1, 9}
	if !bytes.Equal(w.Bytes(), expected) {
		t.Errorf("Expected % x, got % x", expected, w.Bytes())
	}

	w.Reset()
	if w.Len() != 0 {
		t.Errorf("Expected empty writer after Reset, got %d bytes", w.Len())
	}
}

func TestReaderRoundTrip(t *testing.T) {
	w := &Writer{}
	w.WriteBool(true)
	w.WriteInt8(math.MinInt8)
	w.WriteInt16(math.MaxInt16)
	w.WriteInt32(math.MinInt32)
	w.WriteInt64(math.MaxInt64)
	w.WriteFloat32(3.5)
	w.WriteFloat64(-0.25)
	w.WriteVarint(1 << 40)
	w.WriteString("héllo")
	w.WriteBytes([]byte{1, 2, 3})

	r := NewReader(w.Bytes())

	if v, err := r.ReadBool(); err != nil || !v {
		t.Errorf("ReadBool() = %v, %v", v, err)
	}
	if v, err := r.ReadInt8(); err != nil || v != math.MinInt8 {
		t.Errorf("ReadInt8() = %v, %v", v, err)
	}
	if v, err := r.ReadInt16(); err != nil || v != math.MaxInt16 {
		t.Errorf("ReadInt16() = %v, %v", v, err)
	}
	if v, err := r.ReadInt32(); err != nil || v != math.MinInt32 {
		t.Errorf("ReadInt32() = %v, %v", v, err)
	}
	if v, err := r.ReadInt64(); err != nil || v != math.MaxInt64 {
		t.Errorf("ReadInt64() = %v, %v", v, err)
	}
	if v, err := r.ReadFloat32(); err != nil || v != 3.5 {
		t.Errorf("ReadFloat32() = %v, %v", v, err)
	}
	if v, err := r.ReadFloat64(); err != nil || v != -0.25 {
		t.Errorf("ReadFloat64() = %v, %v", v, err)
	}
	if v, err := r.ReadVarint(); err != nil || v != 1<<40 {
		t.Errorf("ReadVarint() = %v, %v", v, err)
	}
	if v, err := r.ReadString(); err != nil || v != "héllo" {
		t.Errorf("ReadString() = %v, %v", v, err)
	}
	if v, err := r.ReadBytes(); err != nil || !bytes.Equal(v, []byte{1, 2, 3}) {
		t.Errorf("ReadBytes() = %v, %v", v, err)
	}

	if !r.Done() {
		t.Errorf("Expected reader to be done, %d bytes remain", r.Remaining())
	}
}

func TestReaderTruncated(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		read      func(r *Reader) error
		expected  int
		available int
	}{
		{name: "bool", data: nil, read: func(r *Reader) error { _, err := r.ReadBool(); return err }, expected: 1},
		{name: "int16", data: []byte{1}, read: func(r *Reader) error { _, err := r.ReadInt16(); return err }, expected: 2, available: 1},
		{name: "int32", data: []byte{1, 2, 3}, read: func(r *Reader) error { _, err := r.ReadInt32(); return err }, expected: 4, available: 3},
		{name: "float64", data: []byte{1}, read: func(r *Reader) error { _, err := r.ReadFloat64(); return err }, expected: 8, available: 1},
		{name: "varint", data: []byte{0x80}, read: func(r *Reader) error { _, err := r.ReadVarint(); return err }, expected: 2, available: 1},
		{name: "string body", data: []byte{5, 'a', 'b'}, read: func(r *Reader) error { _, err := r.ReadString(); return err }, expected: 5, available: 2},
		{name: "count", data: []byte{10, 0}, read: func(r *Reader) error { _, err := r.ReadCount(); return err }, expected: 10, available: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.data)
			err := tt.read(r)

			var e *errors.Error
			if !stderrors.As(err, &e) || e.Kind != errors.KindTruncated {
				t.Fatalf("Expected truncated error, got %v", err)
			}
			if e.Expected != tt.expected || e.Available != tt.available {
				t.Errorf("Expected %d/%d, got %d/%d", tt.expected, tt.available, e.Expected, e.Available)
			}
			if r.Offset() != 0 {
				t.Errorf("Expected failed read not to advance, offset %d", r.Offset())
			}
		})
	}
}

func TestReaderInvalidData(t *testing.T) {
	r := NewReader([]byte{2})
	if _, err := r.ReadBool(); !stderrors.Is(err, errors.ErrInvalidData) {
		t.Errorf("Expected invalid_data for boolean byte 2, got %v", err)
	}

	r = NewReader([]byte{2, 0xC3, 0x28})
	if _, err := r.ReadString(); !stderrors.Is(err, errors.ErrInvalidData) {
		t.Errorf("Expected invalid_data for bad UTF-8, got %v", err)
	}

	overlong := bytes.Repeat([]byte{0xFF}, 11)
	r = NewReader(overlong)
	if _, err := r.ReadVarint(); !stderrors.Is(err, errors.ErrInvalidData) {
		t.Errorf("Expected invalid_data for overlong varint, got %v", err)
	}
}

func TestReaderBytesDoNotAlias(t *testing.T) {
	data := []byte{2, 7, 8}
	r := NewReader(data)

	b, err := r.ReadBytes()
	if err != nil {
		t.Fatalf("ReadBytes() failed: %v", err)
	}
	b[0] = 0

	if data[1] != 7 {
		t.Error("Expected ReadBytes result not to alias the input")
	}
}

func BenchmarkWriterVarint(b *testing.B) {
	w := NewWriter(16)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Reset()
		w.WriteVarint(uint64(i))
	}
}
