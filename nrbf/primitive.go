package nrbf

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
)

// PrimitiveKind identifies a .NET primitive type. The numeric values
// are the on-wire tag bytes (tag 4 is unassigned in the format).
type PrimitiveKind byte

const (
	PrimBoolean  PrimitiveKind = 1
	PrimByte     PrimitiveKind = 2
	PrimChar     PrimitiveKind = 3
	PrimDecimal  PrimitiveKind = 5
	PrimDouble   PrimitiveKind = 6
	PrimInt16    PrimitiveKind = 7
	PrimInt32    PrimitiveKind = 8
	PrimInt64    PrimitiveKind = 9
	PrimSByte    PrimitiveKind = 10
	PrimSingle   PrimitiveKind = 11
	PrimTimeSpan PrimitiveKind = 12
	PrimDateTime PrimitiveKind = 13
	PrimUInt16   PrimitiveKind = 14
	PrimUInt32   PrimitiveKind = 15
	PrimUInt64   PrimitiveKind = 16
	PrimNull     PrimitiveKind = 17
	PrimString   PrimitiveKind = 18
)

// String returns the .NET type name.
func (k PrimitiveKind) String() string {
	switch k {
	case PrimBoolean:
		return "Boolean"
	case PrimByte:
		return "Byte"
	case PrimChar:
		return "Char"
	case PrimDecimal:
		return "Decimal"
	case PrimDouble:
		return "Double"
	case PrimInt16:
		return "Int16"
	case PrimInt32:
		return "Int32"
	case PrimInt64:
		return "Int64"
	case PrimSByte:
		return "SByte"
	case PrimSingle:
		return "Single"
	case PrimTimeSpan:
		return "TimeSpan"
	case PrimDateTime:
		return "DateTime"
	case PrimUInt16:
		return "UInt16"
	case PrimUInt32:
		return "UInt32"
	case PrimUInt64:
		return "UInt64"
	case PrimNull:
		return "Null"
	case PrimString:
		return "String"
	default:
		return fmt.Sprintf("PrimitiveKind(%d)", byte(k))
	}
}

func (k PrimitiveKind) valid() bool {
	return k >= PrimBoolean && k <= PrimString && k != 4
}

// Primitive is a tagged variant holding one primitive value. Decimal
// is carried as 16 opaque bytes; DateTime and TimeSpan carry raw
// ticks and are never interpreted arithmetically.
type Primitive struct {
	kind PrimitiveKind

	boolVal  bool
	intVal   int64  // SByte, Int16, Int32, Int64, TimeSpan, DateTime ticks
	uintVal  uint64 // Byte, UInt16, UInt32, UInt64
	floatVal float64
	charVal  uint16 // single byte on the wire unless strict-char decoding
	strVal   string
	rawVal   [16]byte // Decimal
}

// ============================================================
// Constructors
// ============================================================

// Boolean creates a Boolean primitive.
func Boolean(v bool) Primitive { return Primitive{kind: PrimBoolean, boolVal: v} }

// Byte creates a Byte primitive.
func Byte(v byte) Primitive { return Primitive{kind: PrimByte, uintVal: uint64(v)} }

// Char creates a Char primitive from a UTF-16 code unit.
func Char(v uint16) Primitive { return Primitive{kind: PrimChar, charVal: v} }

// Decimal creates a Decimal primitive from its 16 raw bytes.
func Decimal(raw [16]byte) Primitive { return Primitive{kind: PrimDecimal, rawVal: raw} }

// Double creates a Double primitive.
func Double(v float64) Primitive { return Primitive{kind: PrimDouble, floatVal: v} }

// Int16 creates an Int16 primitive.
func Int16(v int16) Primitive { return Primitive{kind: PrimInt16, intVal: int64(v)} }

// Int32 creates an Int32 primitive.
func Int32(v int32) Primitive { return Primitive{kind: PrimInt32, intVal: int64(v)} }

// Int64 creates an Int64 primitive.
func Int64(v int64) Primitive { return Primitive{kind: PrimInt64, intVal: v} }

// SByte creates an SByte primitive.
func SByte(v int8) Primitive { return Primitive{kind: PrimSByte, intVal: int64(v)} }

// Single creates a Single primitive.
func Single(v float32) Primitive { return Primitive{kind: PrimSingle, floatVal: float64(v)} }

// TimeSpan creates a TimeSpan primitive from raw ticks.
func TimeSpan(ticks int64) Primitive { return Primitive{kind: PrimTimeSpan, intVal: ticks} }

// DateTime creates a DateTime primitive from raw ticks (the two kind
// bits are part of the tick value and round-trip untouched).
func DateTime(ticks int64) Primitive { return Primitive{kind: PrimDateTime, intVal: ticks} }

// UInt16 creates a UInt16 primitive.
func UInt16(v uint16) Primitive { return Primitive{kind: PrimUInt16, uintVal: uint64(v)} }

// UInt32 creates a UInt32 primitive.
func UInt32(v uint32) Primitive { return Primitive{kind: PrimUInt32, uintVal: uint64(v)} }

// UInt64 creates a UInt64 primitive.
func UInt64(v uint64) Primitive { return Primitive{kind: PrimUInt64, uintVal: v} }

// String creates a String primitive.
func String(v string) Primitive { return Primitive{kind: PrimString, strVal: v} }

// NullPrimitive creates the NullType sentinel.
func NullPrimitive() Primitive { return Primitive{kind: PrimNull} }

// ============================================================
// Accessors
// ============================================================

// Kind returns the primitive kind.
func (p Primitive) Kind() PrimitiveKind { return p.kind }

// Bool returns the Boolean value.
func (p Primitive) Bool() (bool, error) {
	if p.kind != PrimBoolean {
		return false, errf(ErrTypeMismatch, "expected Boolean, got %s", p.kind)
	}
	return p.boolVal, nil
}

// Int returns the signed integer (or tick) value of SByte, Int16,
// Int32, Int64, TimeSpan, and DateTime primitives.
func (p Primitive) Int() (int64, error) {
	switch p.kind {
	case PrimSByte, PrimInt16, PrimInt32, PrimInt64, PrimTimeSpan, PrimDateTime:
		return p.intVal, nil
	}
	return 0, errf(ErrTypeMismatch, "expected signed integer, got %s", p.kind)
}

// Uint returns the unsigned integer value of Byte, UInt16, UInt32,
// and UInt64 primitives.
func (p Primitive) Uint() (uint64, error) {
	switch p.kind {
	case PrimByte, PrimUInt16, PrimUInt32, PrimUInt64:
		return p.uintVal, nil
	}
	return 0, errf(ErrTypeMismatch, "expected unsigned integer, got %s", p.kind)
}

// Float returns the Single or Double value.
func (p Primitive) Float() (float64, error) {
	switch p.kind {
	case PrimSingle, PrimDouble:
		return p.floatVal, nil
	}
	return 0, errf(ErrTypeMismatch, "expected float, got %s", p.kind)
}

// Str returns the String value.
func (p Primitive) Str() (string, error) {
	if p.kind != PrimString {
		return "", errf(ErrTypeMismatch, "expected String, got %s", p.kind)
	}
	return p.strVal, nil
}

// DecimalBytes returns the 16 raw Decimal bytes.
func (p Primitive) DecimalBytes() ([16]byte, error) {
	if p.kind != PrimDecimal {
		return [16]byte{}, errf(ErrTypeMismatch, "expected Decimal, got %s", p.kind)
	}
	return p.rawVal, nil
}

// IsNull reports whether this is the NullType sentinel.
func (p Primitive) IsNull() bool { return p.kind == PrimNull }

// ============================================================
// Canonical text
// ============================================================

// Text returns the canonical textual form used by the diff engine and
// the CLI. It is stable: two primitives of the same kind are equal
// exactly when their Text forms are equal.
func (p Primitive) Text() string {
	switch p.kind {
	case PrimBoolean:
		if p.boolVal {
			return "true"
		}
		return "false"
	case PrimByte, PrimUInt16, PrimUInt32, PrimUInt64:
		return strconv.FormatUint(p.uintVal, 10)
	case PrimSByte, PrimInt16, PrimInt32, PrimInt64, PrimTimeSpan, PrimDateTime:
		return strconv.FormatInt(p.intVal, 10)
	case PrimChar:
		if p.charVal >= 0x20 && p.charVal < 0x7f {
			return string(rune(p.charVal))
		}
		r := utf16.Decode([]uint16{p.charVal})
		if len(r) == 1 && r[0] != 0xfffd {
			return string(r[0])
		}
		return fmt.Sprintf("\\u%04x", p.charVal)
	case PrimSingle:
		return strconv.FormatFloat(p.floatVal, 'g', -1, 32)
	case PrimDouble:
		return strconv.FormatFloat(p.floatVal, 'g', -1, 64)
	case PrimDecimal:
		return hex.EncodeToString(p.rawVal[:])
	case PrimString:
		return p.strVal
	case PrimNull:
		return "null"
	default:
		return fmt.Sprintf("<%s>", p.kind)
	}
}

// ============================================================
// Coercion
// ============================================================

// CoercePrimitive parses text into a primitive of the given kind.
// This is the single entry point the edit API uses; it fails with
// TypeMismatch when the text cannot represent a value of that kind.
func CoercePrimitive(kind PrimitiveKind, text string) (Primitive, error) {
	mismatch := func(reason string) (Primitive, error) {
		return Primitive{}, errf(ErrTypeMismatch, "cannot coerce %q to %s: %s", text, kind, reason)
	}

	switch kind {
	case PrimBoolean:
		switch strings.ToLower(text) {
		case "true", "1":
			return Boolean(true), nil
		case "false", "0":
			return Boolean(false), nil
		}
		return mismatch("want true/false")

	case PrimByte:
		v, err := strconv.ParseUint(text, 10, 8)
		if err != nil {
			return mismatch(err.Error())
		}
		return Byte(byte(v)), nil

	case PrimChar:
		// A single character, or a numeric code unit.
		runes := []rune(text)
		if len(runes) == 1 {
			units := utf16.Encode(runes)
			if len(units) != 1 {
				return mismatch("character outside the basic multilingual plane")
			}
			return Char(units[0]), nil
		}
		v, err := strconv.ParseUint(text, 10, 16)
		if err != nil {
			return mismatch("want a single character or a code unit")
		}
		return Char(uint16(v)), nil

	case PrimDecimal:
		raw, err := hex.DecodeString(text)
		if err != nil || len(raw) != 16 {
			return mismatch("want 32 hex characters")
		}
		var b [16]byte
		copy(b[:], raw)
		return Decimal(b), nil

	case PrimDouble:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return mismatch(err.Error())
		}
		return Double(v), nil

	case PrimSingle:
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return mismatch(err.Error())
		}
		return Single(float32(v)), nil

	case PrimInt16:
		v, err := strconv.ParseInt(text, 10, 16)
		if err != nil {
			return mismatch(err.Error())
		}
		return Int16(int16(v)), nil

	case PrimInt32:
		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return mismatch(err.Error())
		}
		return Int32(int32(v)), nil

	case PrimInt64, PrimTimeSpan, PrimDateTime:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return mismatch(err.Error())
		}
		return Primitive{kind: kind, intVal: v}, nil

	case PrimSByte:
		v, err := strconv.ParseInt(text, 10, 8)
		if err != nil {
			return mismatch(err.Error())
		}
		return SByte(int8(v)), nil

	case PrimUInt16:
		v, err := strconv.ParseUint(text, 10, 16)
		if err != nil {
			return mismatch(err.Error())
		}
		return UInt16(uint16(v)), nil

	case PrimUInt32:
		v, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return mismatch(err.Error())
		}
		return UInt32(uint32(v)), nil

	case PrimUInt64:
		v, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return mismatch(err.Error())
		}
		return UInt64(v), nil

	case PrimString:
		return String(text), nil

	case PrimNull:
		return mismatch("NullType carries no value")
	}
	return mismatch("unsupported kind")
}

// ============================================================
// Wire codec
// ============================================================

// readPrimitive reads one primitive value of the given kind.
// strictChar selects the two-byte UTF-16 reading for Char; the
// default single-byte reading matches the historical consumer.
func readPrimitive(r *reader, kind PrimitiveKind, strictChar bool) (Primitive, error) {
	switch kind {
	case PrimBoolean:
		b, err := r.u8()
		if err != nil {
			return Primitive{}, err
		}
		return Boolean(b != 0), nil
	case PrimByte:
		b, err := r.u8()
		if err != nil {
			return Primitive{}, err
		}
		return Byte(b), nil
	case PrimChar:
		if strictChar {
			v, err := r.u16()
			if err != nil {
				return Primitive{}, err
			}
			return Char(v), nil
		}
		b, err := r.u8()
		if err != nil {
			return Primitive{}, err
		}
		return Char(uint16(b)), nil
	case PrimDecimal:
		raw, err := r.take(16)
		if err != nil {
			return Primitive{}, err
		}
		var b [16]byte
		copy(b[:], raw)
		return Decimal(b), nil
	case PrimDouble:
		v, err := r.f64()
		if err != nil {
			return Primitive{}, err
		}
		return Double(v), nil
	case PrimInt16:
		v, err := r.i16()
		if err != nil {
			return Primitive{}, err
		}
		return Int16(v), nil
	case PrimInt32:
		v, err := r.i32()
		if err != nil {
			return Primitive{}, err
		}
		return Int32(v), nil
	case PrimInt64, PrimTimeSpan, PrimDateTime:
		v, err := r.i64()
		if err != nil {
			return Primitive{}, err
		}
		return Primitive{kind: kind, intVal: v}, nil
	case PrimSByte:
		b, err := r.u8()
		if err != nil {
			return Primitive{}, err
		}
		return SByte(int8(b)), nil
	case PrimSingle:
		v, err := r.f32()
		if err != nil {
			return Primitive{}, err
		}
		return Single(v), nil
	case PrimUInt16:
		v, err := r.u16()
		if err != nil {
			return Primitive{}, err
		}
		return UInt16(v), nil
	case PrimUInt32:
		v, err := r.u32()
		if err != nil {
			return Primitive{}, err
		}
		return UInt32(v), nil
	case PrimUInt64:
		v, err := r.u64()
		if err != nil {
			return Primitive{}, err
		}
		return UInt64(v), nil
	case PrimString:
		s, err := r.varstring()
		if err != nil {
			return Primitive{}, err
		}
		return String(s), nil
	case PrimNull:
		return NullPrimitive(), nil
	}
	return Primitive{}, errAt(ErrUnknownPrimitiveTag, r.pos, "primitive tag 0x%02x", byte(kind))
}

// writePrimitive emits one primitive value. strictChar mirrors the
// decode-side option so a strict-mode document re-encodes what it
// read.
func writePrimitive(w *writer, p Primitive, strictChar bool) error {
	switch p.kind {
	case PrimBoolean:
		if p.boolVal {
			w.u8(1)
		} else {
			w.u8(0)
		}
	case PrimByte:
		w.u8(byte(p.uintVal))
	case PrimChar:
		if strictChar {
			w.u16(p.charVal)
		} else {
			w.u8(byte(p.charVal))
		}
	case PrimDecimal:
		w.raw(p.rawVal[:])
	case PrimDouble:
		w.f64(p.floatVal)
	case PrimInt16:
		w.i16(int16(p.intVal))
	case PrimInt32:
		if p.intVal > math.MaxInt32 || p.intVal < math.MinInt32 {
			return errf(ErrIntegerOutOfRange, "Int32 value %d", p.intVal)
		}
		w.i32(int32(p.intVal))
	case PrimInt64, PrimTimeSpan, PrimDateTime:
		w.i64(p.intVal)
	case PrimSByte:
		w.u8(byte(int8(p.intVal)))
	case PrimSingle:
		w.f32(float32(p.floatVal))
	case PrimUInt16:
		w.u16(uint16(p.uintVal))
	case PrimUInt32:
		w.u32(uint32(p.uintVal))
	case PrimUInt64:
		w.u64(p.uintVal)
	case PrimString:
		return w.varstring(p.strVal)
	case PrimNull:
		// no payload
	default:
		return errf(ErrUnknownPrimitiveTag, "primitive tag 0x%02x", byte(p.kind))
	}
	return nil
}
