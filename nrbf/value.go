package nrbf

// ValueKind discriminates the member-value variant.
type ValueKind uint8

const (
	ValueNull      ValueKind = iota
	ValuePrimitive           // an inline primitive
	ValueRecord              // a handle to a nested or referenced record
	ValueReference           // an unresolved MemberReference id
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValuePrimitive:
		return "primitive"
	case ValueRecord:
		return "record"
	case ValueReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Value is the single variant used for every class member and array
// element: a primitive, a null, a record handle, or a reference-by-id.
//
// Nulls remember how they appeared on the wire. A run record
// (ObjectNullMultiple or ObjectNullMultiple256) covering k slots is
// stored as a head value with nullCount=k followed by k-1 covered
// values with nullCount=0; the encoder re-emits the head verbatim and
// skips the covered slots, which keeps null runs byte-identical
// across a round trip.
type Value struct {
	kind ValueKind

	prim  Primitive
	rec   *Record
	refID int32

	nullKind  RecordKind
	nullCount int32

	// pre holds BinaryLibrary records that appeared on the wire
	// immediately before this value inside a member or element
	// stream; the encoder replays them at the same position.
	pre []*Record
}

// NullValue creates a plain single null (wire form ObjectNull).
func NullValue() *Value {
	return &Value{kind: ValueNull, nullKind: KindObjectNull, nullCount: 1}
}

func nullRunHead(kind RecordKind, count int32) *Value {
	return &Value{kind: ValueNull, nullKind: kind, nullCount: count}
}

func nullRunCovered() *Value {
	return &Value{kind: ValueNull, nullKind: KindObjectNull, nullCount: 0}
}

// PrimitiveValue wraps a primitive as a member value.
func PrimitiveValue(p Primitive) *Value {
	return &Value{kind: ValuePrimitive, prim: p}
}

// RecordValue wraps a record handle as a member value.
func RecordValue(rec *Record) *Value {
	return &Value{kind: ValueRecord, rec: rec}
}

// ReferenceValue creates an unresolved reference to an object id.
func ReferenceValue(id int32) *Value {
	return &Value{kind: ValueReference, refID: id}
}

// Kind returns the value kind. A nil Value reads as null.
func (v *Value) Kind() ValueKind {
	if v == nil {
		return ValueNull
	}
	return v.kind
}

// IsNull reports whether the value is a null (of any wire form).
func (v *Value) IsNull() bool { return v == nil || v.kind == ValueNull }

// Primitive returns the primitive payload.
func (v *Value) Primitive() (Primitive, bool) {
	if v == nil || v.kind != ValuePrimitive {
		return Primitive{}, false
	}
	return v.prim, true
}

// Record returns the record handle.
func (v *Value) Record() (*Record, bool) {
	if v == nil || v.kind != ValueRecord {
		return nil, false
	}
	return v.rec, true
}

// ReferenceID returns the referenced object id.
func (v *Value) ReferenceID() (int32, bool) {
	if v == nil || v.kind != ValueReference {
		return 0, false
	}
	return v.refID, true
}

// setPrimitive overwrites the primitive payload in place. The caller
// has already checked the value is a primitive of the right kind.
func (v *Value) setPrimitive(p Primitive) {
	v.prim = p
}
