package nrbf

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// GuidClassName is the class name of the .NET GUID value type as it
// appears in serialized streams.
const GuidClassName = "System.Guid"

// guidMemberNames are the eleven fields of System.Guid in declaration
// order: Int32, Int16, Int16, then eight bytes.
var guidMemberNames = [11]string{"_a", "_b", "_c", "_d", "_e", "_f", "_g", "_h", "_i", "_j", "_k"}

// IsGuidClass reports whether a class record is a System.Guid.
func IsGuidClass(c *ClassRecord) bool {
	return c.Info.Name == GuidClassName && c.Info.MemberCount() == len(guidMemberNames)
}

// GuidText builds the canonical 36-character lowercase textual form
// of a System.Guid class record: the little-endian bytes of _a, _b,
// _c followed by the eight raw bytes, grouped 8-4-4-4-12.
func GuidText(c *ClassRecord) (string, error) {
	if !IsGuidClass(c) {
		return "", errf(ErrNotEditable, "%s is not a %s", c.Info.Name, GuidClassName)
	}

	var raw [16]byte
	a, err := guidInt(c, "_a")
	if err != nil {
		return "", err
	}
	raw[0] = byte(a)
	raw[1] = byte(a >> 8)
	raw[2] = byte(a >> 16)
	raw[3] = byte(a >> 24)

	b, err := guidInt(c, "_b")
	if err != nil {
		return "", err
	}
	raw[4] = byte(b)
	raw[5] = byte(b >> 8)

	cc, err := guidInt(c, "_c")
	if err != nil {
		return "", err
	}
	raw[6] = byte(cc)
	raw[7] = byte(cc >> 8)

	for i, name := range guidMemberNames[3:] {
		v, err := guidInt(c, name)
		if err != nil {
			return "", err
		}
		raw[8+i] = byte(v)
	}

	h := hex.EncodeToString(raw[:])
	return fmt.Sprintf("%s-%s-%s-%s-%s", h[0:8], h[8:12], h[12:16], h[16:20], h[20:32]), nil
}

func guidInt(c *ClassRecord, name string) (uint64, error) {
	v, ok := c.Member(name)
	if !ok {
		return 0, errf(ErrInvalidGuidFormat, "member %s missing", name)
	}
	p, ok := v.Primitive()
	if !ok {
		return 0, errf(ErrInvalidGuidFormat, "member %s is not a primitive", name)
	}
	switch p.kind {
	case PrimInt32, PrimInt16, PrimSByte:
		return uint64(p.intVal), nil
	case PrimByte, PrimUInt16, PrimUInt32:
		return p.uintVal, nil
	}
	return 0, errf(ErrInvalidGuidFormat, "member %s has kind %s", name, p.kind)
}

// ParseGuid decomposes a 36-character GUID string (with hyphens, any
// case) into the eleven System.Guid field primitives keyed by member
// name.
func ParseGuid(text string) (map[string]Primitive, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	if len(s) != 36 || s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return nil, errf(ErrInvalidGuidFormat, "%q is not xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx", text)
	}
	compact := strings.ReplaceAll(s, "-", "")
	raw, err := hex.DecodeString(compact)
	if err != nil || len(raw) != 16 {
		return nil, errf(ErrInvalidGuidFormat, "%q has non-hex digits", text)
	}

	fields := make(map[string]Primitive, len(guidMemberNames))
	a := uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
	fields["_a"] = Int32(int32(a))
	fields["_b"] = Int16(int16(uint16(raw[4]) | uint16(raw[5])<<8))
	fields["_c"] = Int16(int16(uint16(raw[6]) | uint16(raw[7])<<8))
	for i, name := range guidMemberNames[3:] {
		fields[name] = Byte(raw[8+i])
	}
	return fields, nil
}
