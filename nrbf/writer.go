package nrbf

import (
	"encoding/binary"
	"math"
)

// writer accumulates the encoded stream. All integer writes are
// little-endian, mirroring reader.
type writer struct {
	buf []byte
}

func newWriter() *writer {
	return &writer{buf: make([]byte, 0, 256)}
}

func (w *writer) bytes() []byte { return w.buf }

func (w *writer) raw(b []byte) { w.buf = append(w.buf, b...) }

func (w *writer) u8(v byte) { w.buf = append(w.buf, v) }

func (w *writer) u16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *writer) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *writer) u64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *writer) i16(v int16) { w.u16(uint16(v)) }
func (w *writer) i32(v int32) { w.u32(uint32(v)) }
func (w *writer) i64(v int64) { w.u64(uint64(v)) }

func (w *writer) f32(v float32) { w.u32(math.Float32bits(v)) }
func (w *writer) f64(v float64) { w.u64(math.Float64bits(v)) }

// varint writes the 7-bit variable-length integer. n must fit in a
// signed 32-bit value.
func (w *writer) varint(n int) error {
	if n < 0 || n > math.MaxInt32 {
		return errf(ErrIntegerOutOfRange, "varint value %d", n)
	}
	v := uint32(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			w.u8(b)
			return nil
		}
		w.u8(b | 0x80)
	}
}

// varstring writes a length-prefixed UTF-8 string.
func (w *writer) varstring(s string) error {
	if err := w.varint(len(s)); err != nil {
		return err
	}
	w.buf = append(w.buf, s...)
	return nil
}
