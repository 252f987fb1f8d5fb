package nrbf

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// reader is a cursor over a fully-resident byte buffer. All integer
// reads are little-endian. Every read failure carries the byte offset
// at which it was detected.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) remaining() int { return len(r.data) - r.pos }

func (r *reader) eof(want int) error {
	return errAt(ErrUnexpectedEOF, r.pos, "need %d bytes, have %d", want, r.remaining())
}

func (r *reader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, r.eof(n)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u8() (byte, error) {
	if r.remaining() < 1 {
		return 0, r.eof(1)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) peek() (byte, bool) {
	if r.remaining() < 1 {
		return 0, false
	}
	return r.data[r.pos], true
}

func (r *reader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) i16() (int16, error) {
	v, err := r.u16()
	return int16(v), err
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) i64() (int64, error) {
	v, err := r.u64()
	return int64(v), err
}

func (r *reader) f32() (float32, error) {
	v, err := r.u32()
	return math.Float32frombits(v), err
}

func (r *reader) f64() (float64, error) {
	v, err := r.u64()
	return math.Float64frombits(v), err
}

// varint reads the 7-bit variable-length integer used for string
// length prefixes: up to 5 bytes, low 7 bits carry data, the high bit
// is the continuation flag. Values above MaxInt32 are rejected.
func (r *reader) varint() (int, error) {
	start := r.pos
	var v uint64
	for i := 0; i < 5; i++ {
		b, err := r.u8()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			if v > math.MaxInt32 {
				return 0, errAt(ErrVarIntOverflow, start, "value %d exceeds Int32", v)
			}
			return int(v), nil
		}
	}
	return 0, errAt(ErrVarIntOverflow, start, "continuation past 5 bytes")
}

// varstring reads a length-prefixed UTF-8 string.
func (r *reader) varstring() (string, error) {
	n, err := r.varint()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	start := r.pos
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errAt(ErrMalformedString, start, "invalid UTF-8 in %d-byte string", n)
	}
	return string(b), nil
}
