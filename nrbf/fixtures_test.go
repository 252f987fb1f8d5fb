package nrbf

import "encoding/binary"

// Fixture builders assemble wire-format streams byte by byte so the
// tests stay independent of the encoder under test.

type fixture struct {
	buf []byte
}

func newFixture(rootID, headerID int32) *fixture {
	f := &fixture{}
	f.b(byte(KindSerializedStreamHeader))
	f.i32(rootID)
	f.i32(headerID)
	f.i32(1)
	f.i32(0)
	return f
}

func (f *fixture) b(v ...byte) *fixture {
	f.buf = append(f.buf, v...)
	return f
}

func (f *fixture) i32(v int32) *fixture {
	f.buf = binary.LittleEndian.AppendUint32(f.buf, uint32(v))
	return f
}

func (f *fixture) i16(v int16) *fixture {
	f.buf = binary.LittleEndian.AppendUint16(f.buf, uint16(v))
	return f
}

func (f *fixture) f32(v float32) *fixture {
	w := newWriter()
	w.f32(v)
	return f.b(w.bytes()...)
}

// str writes a length-prefixed string (short enough for a one-byte
// varint, which covers every fixture).
func (f *fixture) str(s string) *fixture {
	f.b(byte(len(s)))
	f.buf = append(f.buf, s...)
	return f
}

func (f *fixture) end() []byte {
	f.b(byte(KindMessageEnd))
	return f.buf
}

// classInfo writes a ClassInfo block.
func (f *fixture) classInfo(id int32, name string, members ...string) *fixture {
	f.i32(id)
	f.str(name)
	f.i32(int32(len(members)))
	for _, m := range members {
		f.str(m)
	}
	return f
}

// s1Stream is scenario S1: a single system class "Sys.Int" with one
// Int32 member X=42, root id 1.
func s1Stream() []byte {
	f := newFixture(1, -1)
	f.b(byte(KindSystemClassWithMembersAndTypes))
	f.classInfo(1, "Sys.Int", "X")
	f.b(byte(TypePrimitive))
	f.b(byte(PrimInt32))
	f.i32(42)
	return f.end()
}

// s2Stream is scenario S2: a string with id 7 followed by class A
// whose member B is a MemberReference to it.
func s2Stream() []byte {
	f := newFixture(1, -1)
	f.b(byte(KindBinaryObjectString))
	f.i32(7)
	f.str("hi")
	f.b(byte(KindSystemClassWithMembersAndTypes))
	f.classInfo(1, "A", "B")
	f.b(byte(TypeString))
	f.b(byte(KindMemberReference))
	f.i32(7)
	return f.end()
}

// s3Stream is scenario S3: an object array whose first element
// defines the Vec3 shape (id 10) and whose remaining elements are
// ClassWithId records 11..14 reusing it.
func s3Stream() []byte {
	f := newFixture(1, -1)
	f.b(byte(KindArraySingleObject))
	f.i32(1)
	f.i32(5)

	f.b(byte(KindSystemClassWithMembersAndTypes))
	f.classInfo(10, "Vec3", "x", "y", "z")
	f.b(byte(TypePrimitive), byte(TypePrimitive), byte(TypePrimitive))
	f.b(byte(PrimSingle), byte(PrimSingle), byte(PrimSingle))
	f.f32(0).f32(0).f32(0)

	for id := int32(11); id <= 14; id++ {
		f.b(byte(KindClassWithID))
		f.i32(id)
		f.i32(10)
		f.f32(1.0).f32(1.0).f32(1.0)
	}
	return f.end()
}

// s4Stream is scenario S4: an object array of length 10 whose payload
// starts with ObjectNullMultiple 5 followed by five strings.
func s4Stream() []byte {
	f := newFixture(2, -1)
	f.b(byte(KindArraySingleObject))
	f.i32(2)
	f.i32(10)
	f.b(byte(KindObjectNullMultiple))
	f.i32(5)
	for i := int32(3); i <= 7; i++ {
		f.b(byte(KindBinaryObjectString))
		f.i32(i)
		f.str("s")
	}
	return f.end()
}

// guidStream builds a System.Guid class whose fields text-encode to
// 12345678-1234-5678-1234-567812345678.
func guidStream() []byte {
	f := newFixture(1, -1)
	f.b(byte(KindSystemClassWithMembersAndTypes))
	f.classInfo(1, GuidClassName, "_a", "_b", "_c", "_d", "_e", "_f", "_g", "_h", "_i", "_j", "_k")
	f.b(byte(TypePrimitive), byte(TypePrimitive), byte(TypePrimitive))
	for i := 0; i < 8; i++ {
		f.b(byte(TypePrimitive))
	}
	f.b(byte(PrimInt32), byte(PrimInt16), byte(PrimInt16))
	for i := 0; i < 8; i++ {
		f.b(byte(PrimByte))
	}
	f.i32(0x78563412)
	f.i16(0x3412)
	f.i16(0x7856)
	f.b(0x12, 0x34, 0x56, 0x78, 0x12, 0x34, 0x56, 0x78)
	return f.end()
}

// nestedStream builds Save{Player: Player{Stats: Stats{XP: xp}}} so
// diff paths read "Player.Stats.XP".
func nestedStream(xp int32) []byte {
	f := newFixture(1, -1)

	f.b(byte(KindSystemClassWithMembersAndTypes))
	f.classInfo(1, "Save", "Player")
	f.b(byte(TypeSystemClass))
	f.str("Player")

	f.b(byte(KindSystemClassWithMembersAndTypes))
	f.classInfo(2, "Player", "Stats")
	f.b(byte(TypeSystemClass))
	f.str("Stats")

	f.b(byte(KindSystemClassWithMembersAndTypes))
	f.classInfo(3, "Stats", "XP")
	f.b(byte(TypePrimitive))
	f.b(byte(PrimInt32))
	f.i32(xp)

	return f.end()
}
