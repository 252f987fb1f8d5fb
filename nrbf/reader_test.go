package nrbf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarIntRoundTrip(t *testing.T) {
	cases := []int{
		0, 1, 2, 100, 127, 128, 129, 300,
		16383, 16384, 16385,
		1<<21 - 1, 1 << 21,
		1<<28 - 1, 1 << 28,
		1<<31 - 1,
	}
	for _, n := range cases {
		w := newWriter()
		require.NoError(t, w.varint(n))
		r := newReader(w.bytes())
		got, err := r.varint()
		require.NoError(t, err, "n=%d", n)
		assert.Equal(t, n, got, "n=%d", n)
		assert.Equal(t, 0, r.remaining(), "n=%d", n)
	}
}

func TestVarIntOverflow(t *testing.T) {
	t.Run("value above Int32", func(t *testing.T) {
		// 2^31 encoded in five bytes.
		r := newReader([]byte{0x80, 0x80, 0x80, 0x80, 0x08})
		_, err := r.varint()
		assert.True(t, IsKind(err, ErrVarIntOverflow), "got %v", err)
	})
	t.Run("continuation past five bytes", func(t *testing.T) {
		r := newReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
		_, err := r.varint()
		assert.True(t, IsKind(err, ErrVarIntOverflow), "got %v", err)
	})
	t.Run("truncated", func(t *testing.T) {
		r := newReader([]byte{0x80})
		_, err := r.varint()
		assert.True(t, IsKind(err, ErrUnexpectedEOF), "got %v", err)
	})
}

func TestVarStringRoundTrip(t *testing.T) {
	// Lengths at the one- and two-byte varint boundaries.
	for _, n := range []int{0, 1, 127, 128, 16383, 16384} {
		s := strings.Repeat("a", n)
		w := newWriter()
		require.NoError(t, w.varstring(s))
		r := newReader(w.bytes())
		got, err := r.varstring()
		require.NoError(t, err, "len=%d", n)
		assert.Equal(t, s, got, "len=%d", n)
	}
}

func TestVarStringUTF8(t *testing.T) {
	w := newWriter()
	require.NoError(t, w.varstring("héllo ☃"))
	r := newReader(w.bytes())
	got, err := r.varstring()
	require.NoError(t, err)
	assert.Equal(t, "héllo ☃", got)

	r = newReader([]byte{0x02, 0xff, 0xfe})
	_, err = r.varstring()
	assert.True(t, IsKind(err, ErrMalformedString), "got %v", err)
}

func TestReaderLittleEndian(t *testing.T) {
	r := newReader([]byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0xff, 0xff, 0xff, 0xff,
	})
	b, err := r.u8()
	require.NoError(t, err)
	assert.Equal(t, byte(1), b)

	v16, err := r.u16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0302), v16)

	v32, err := r.u32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x07060504), v32)

	i, err := r.i32()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), i)

	_, err = r.u8()
	assert.True(t, IsKind(err, ErrUnexpectedEOF))
}

func TestPrimitiveWireRoundTrip(t *testing.T) {
	prims := []Primitive{
		Boolean(true),
		Boolean(false),
		Byte(0xfe),
		Char('Z'),
		Double(3.14159),
		Int16(-1234),
		Int32(-123456),
		Int64(-1234567890123),
		SByte(-5),
		Single(2.5),
		TimeSpan(864000000000),
		DateTime(638000000000000000),
		UInt16(65000),
		UInt32(4000000000),
		UInt64(18000000000000000000),
		String("save slot"),
		Decimal([16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}),
	}
	for _, p := range prims {
		t.Run(p.Kind().String(), func(t *testing.T) {
			w := newWriter()
			require.NoError(t, writePrimitive(w, p, false))
			r := newReader(w.bytes())
			got, err := readPrimitive(r, p.Kind(), false)
			require.NoError(t, err)
			assert.Equal(t, p.Text(), got.Text())
			assert.Equal(t, 0, r.remaining())
		})
	}
}
