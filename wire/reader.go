package wire

import (
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/RobertWHurst/wirebus/errors"
)

// Reader is a forward-only cursor over an immutable byte sequence. Failed
// reads do not advance the cursor.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a cursor positioned at the start of b. The reader never
// modifies b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Done reports whether the cursor sits exactly at the end of the buffer.
func (r *Reader) Done() bool {
	return r.off == len(r.buf)
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, errors.Truncated(errors.PhaseDecode, nil, n, r.Remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	r.off--
	return false, errors.InvalidData(errors.PhaseDecode, nil, fmt.Sprintf("invalid boolean byte 0x%02x", b[0]))
}

func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (r *Reader) ReadInt16() (int16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(b)), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.fixed32()
	return int32(v), err
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.fixed64()
	return int64(v), err
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.fixed32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.fixed64()
	return math.Float64frombits(v), err
}

func (r *Reader) fixed32() (uint32, error) {
	v, n := protowire.ConsumeFixed32(r.buf[r.off:])
	if n < 0 {
		return 0, errors.Truncated(errors.PhaseDecode, nil, 4, r.Remaining())
	}
	r.off += n
	return v, nil
}

func (r *Reader) fixed64() (uint64, error) {
	v, n := protowire.ConsumeFixed64(r.buf[r.off:])
	if n < 0 {
		return 0, errors.Truncated(errors.PhaseDecode, nil, 8, r.Remaining())
	}
	r.off += n
	return v, nil
}

// ReadVarint reads an unsigned LEB128 varint.
func (r *Reader) ReadVarint() (uint64, error) {
	v, n := protowire.ConsumeVarint(r.buf[r.off:])
	if n < 0 {
		err := protowire.ParseError(n)
		if stderrors.Is(err, io.ErrUnexpectedEOF) {
			return 0, errors.Truncated(errors.PhaseDecode, nil, r.Remaining()+1, r.Remaining())
		}
		return 0, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("malformed varint").
			Cause(err).
			Build()
	}
	r.off += n
	return v, nil
}

// ReadCount reads a varint element count. Every encoded value occupies at
// least one byte, so a count larger than the remaining bytes cannot be
// satisfied and fails as truncated before anything is allocated.
func (r *Reader) ReadCount() (int, error) {
	start := r.off
	v, err := r.ReadVarint()
	if err != nil {
		return 0, err
	}
	if v > uint64(r.Remaining()) {
		available := r.Remaining()
		r.off = start
		return 0, errors.Truncated(errors.PhaseDecode, nil, clampInt(v), available)
	}
	return int(v), nil
}

// ReadBytes reads a varint length prefix followed by that many bytes. The
// result is a copy and does not alias the reader's buffer.
func (r *Reader) ReadBytes() ([]byte, error) {
	raw, err := r.lengthPrefixed()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// ReadString reads a length-prefixed UTF-8 string.
func (r *Reader) ReadString() (string, error) {
	start := r.off
	raw, err := r.lengthPrefixed()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		r.off = start
		return "", errors.InvalidData(errors.PhaseDecode, nil, "string is not valid UTF-8")
	}
	return string(raw), nil
}

func (r *Reader) lengthPrefixed() ([]byte, error) {
	start := r.off
	n, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Remaining()) {
		available := r.Remaining()
		r.off = start
		return nil, errors.Truncated(errors.PhaseDecode, nil, clampInt(n), available)
	}
	return r.take(int(n))
}

func clampInt(v uint64) int {
	if v > math.MaxInt {
		return math.MaxInt
	}
	return int(v)
}
