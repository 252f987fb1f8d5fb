package nrbf

import "fmt"

// RecordKind is the one-byte tag that starts every record on the
// wire.
type RecordKind byte

const (
	KindSerializedStreamHeader         RecordKind = 0
	KindClassWithID                    RecordKind = 1
	KindSystemClassWithMembers         RecordKind = 2
	KindClassWithMembers               RecordKind = 3
	KindSystemClassWithMembersAndTypes RecordKind = 4
	KindClassWithMembersAndTypes       RecordKind = 5
	KindBinaryObjectString             RecordKind = 6
	KindBinaryArray                    RecordKind = 7
	KindMemberPrimitiveTyped           RecordKind = 8
	KindMemberReference                RecordKind = 9
	KindObjectNull                     RecordKind = 10
	KindMessageEnd                     RecordKind = 11
	KindBinaryLibrary                  RecordKind = 12
	KindObjectNullMultiple256          RecordKind = 13
	KindObjectNullMultiple             RecordKind = 14
	KindArraySinglePrimitive           RecordKind = 15
	KindArraySingleObject              RecordKind = 16
	KindArraySingleString              RecordKind = 17
)

// String returns the record kind name as it appears in the format
// documentation.
func (k RecordKind) String() string {
	switch k {
	case KindSerializedStreamHeader:
		return "SerializedStreamHeader"
	case KindClassWithID:
		return "ClassWithId"
	case KindSystemClassWithMembers:
		return "SystemClassWithMembers"
	case KindClassWithMembers:
		return "ClassWithMembers"
	case KindSystemClassWithMembersAndTypes:
		return "SystemClassWithMembersAndTypes"
	case KindClassWithMembersAndTypes:
		return "ClassWithMembersAndTypes"
	case KindBinaryObjectString:
		return "BinaryObjectString"
	case KindBinaryArray:
		return "BinaryArray"
	case KindMemberPrimitiveTyped:
		return "MemberPrimitiveTyped"
	case KindMemberReference:
		return "MemberReference"
	case KindObjectNull:
		return "ObjectNull"
	case KindMessageEnd:
		return "MessageEnd"
	case KindBinaryLibrary:
		return "BinaryLibrary"
	case KindObjectNullMultiple256:
		return "ObjectNullMultiple256"
	case KindObjectNullMultiple:
		return "ObjectNullMultiple"
	case KindArraySinglePrimitive:
		return "ArraySinglePrimitive"
	case KindArraySingleObject:
		return "ArraySingleObject"
	case KindArraySingleString:
		return "ArraySingleString"
	default:
		return fmt.Sprintf("RecordKind(%d)", byte(k))
	}
}

func (k RecordKind) isClass() bool {
	return k >= KindClassWithID && k <= KindClassWithMembersAndTypes
}

func (k RecordKind) isNull() bool {
	return k == KindObjectNull || k == KindObjectNullMultiple256 || k == KindObjectNullMultiple
}

// BinaryTypeTag describes how a member's type is declared in
// MemberTypeInfo.
type BinaryTypeTag byte

const (
	TypePrimitive      BinaryTypeTag = 0
	TypeString         BinaryTypeTag = 1
	TypeObject         BinaryTypeTag = 2
	TypeSystemClass    BinaryTypeTag = 3
	TypeClass          BinaryTypeTag = 4
	TypeObjectArray    BinaryTypeTag = 5
	TypeStringArray    BinaryTypeTag = 6
	TypePrimitiveArray BinaryTypeTag = 7
)

// String returns the tag name.
func (t BinaryTypeTag) String() string {
	switch t {
	case TypePrimitive:
		return "Primitive"
	case TypeString:
		return "String"
	case TypeObject:
		return "Object"
	case TypeSystemClass:
		return "SystemClass"
	case TypeClass:
		return "Class"
	case TypeObjectArray:
		return "ObjectArray"
	case TypeStringArray:
		return "StringArray"
	case TypePrimitiveArray:
		return "PrimitiveArray"
	default:
		return fmt.Sprintf("BinaryTypeTag(%d)", byte(t))
	}
}

// ArrayShape is the BinaryArray layout selector. The Offset variants
// carry per-rank lower bounds.
type ArrayShape byte

const (
	ShapeSingle            ArrayShape = 0
	ShapeJagged            ArrayShape = 1
	ShapeRectangular       ArrayShape = 2
	ShapeSingleOffset      ArrayShape = 3
	ShapeJaggedOffset      ArrayShape = 4
	ShapeRectangularOffset ArrayShape = 5
)

// String returns the shape name.
func (s ArrayShape) String() string {
	switch s {
	case ShapeSingle:
		return "Single"
	case ShapeJagged:
		return "Jagged"
	case ShapeRectangular:
		return "Rectangular"
	case ShapeSingleOffset:
		return "SingleOffset"
	case ShapeJaggedOffset:
		return "JaggedOffset"
	case ShapeRectangularOffset:
		return "RectangularOffset"
	default:
		return fmt.Sprintf("ArrayShape(%d)", byte(s))
	}
}

func (s ArrayShape) hasLowerBounds() bool { return s >= ShapeSingleOffset }

func (s ArrayShape) valid() bool { return s <= ShapeRectangularOffset }

// ClassInfo is the shared shape header of every class record: object
// id, class name, and the ordered member names.
type ClassInfo struct {
	ObjectID    int32
	Name        string
	MemberNames []string
}

// MemberCount returns the declared member count.
func (ci ClassInfo) MemberCount() int { return len(ci.MemberNames) }

func readClassInfo(r *reader) (ClassInfo, error) {
	var ci ClassInfo
	id, err := r.i32()
	if err != nil {
		return ci, err
	}
	ci.ObjectID = id
	if ci.Name, err = r.varstring(); err != nil {
		return ci, err
	}
	count, err := r.i32()
	if err != nil {
		return ci, err
	}
	if count < 0 {
		return ci, errAt(ErrUnexpectedEOF, r.pos, "negative member count %d", count)
	}
	ci.MemberNames = make([]string, count)
	for i := range ci.MemberNames {
		if ci.MemberNames[i], err = r.varstring(); err != nil {
			return ci, err
		}
	}
	return ci, nil
}

func writeClassInfo(w *writer, ci ClassInfo) error {
	w.i32(ci.ObjectID)
	if err := w.varstring(ci.Name); err != nil {
		return err
	}
	w.i32(int32(len(ci.MemberNames)))
	for _, name := range ci.MemberNames {
		if err := w.varstring(name); err != nil {
			return err
		}
	}
	return nil
}

// MemberType is one member's declared type: a BinaryTypeTag plus the
// additional-type-info payload whose shape depends on the tag.
type MemberType struct {
	Tag       BinaryTypeTag
	Primitive PrimitiveKind // Primitive and PrimitiveArray tags
	ClassName string        // SystemClass and Class tags
	LibraryID int32         // Class tag
}

// readMemberTypes reads the MemberTypeInfo block: count tag bytes
// followed by each tag's additional-type-info payload.
func readMemberTypes(r *reader, count int) ([]MemberType, error) {
	types := make([]MemberType, count)
	for i := range types {
		b, err := r.u8()
		if err != nil {
			return nil, err
		}
		if b > byte(TypePrimitiveArray) {
			return nil, errAt(ErrUnknownBinaryTypeTag, r.pos-1, "binary type tag 0x%02x", b)
		}
		types[i].Tag = BinaryTypeTag(b)
	}
	for i := range types {
		switch types[i].Tag {
		case TypePrimitive, TypePrimitiveArray:
			b, err := r.u8()
			if err != nil {
				return nil, err
			}
			kind := PrimitiveKind(b)
			if !kind.valid() {
				return nil, errAt(ErrUnknownPrimitiveTag, r.pos-1, "primitive tag 0x%02x", b)
			}
			types[i].Primitive = kind
		case TypeSystemClass:
			name, err := r.varstring()
			if err != nil {
				return nil, err
			}
			types[i].ClassName = name
		case TypeClass:
			name, err := r.varstring()
			if err != nil {
				return nil, err
			}
			lib, err := r.i32()
			if err != nil {
				return nil, err
			}
			types[i].ClassName = name
			types[i].LibraryID = lib
		}
	}
	return types, nil
}

func writeMemberTypes(w *writer, types []MemberType) error {
	for _, t := range types {
		w.u8(byte(t.Tag))
	}
	for _, t := range types {
		switch t.Tag {
		case TypePrimitive, TypePrimitiveArray:
			w.u8(byte(t.Primitive))
		case TypeSystemClass:
			if err := w.varstring(t.ClassName); err != nil {
				return err
			}
		case TypeClass:
			if err := w.varstring(t.ClassName); err != nil {
				return err
			}
			w.i32(t.LibraryID)
		}
	}
	return nil
}
