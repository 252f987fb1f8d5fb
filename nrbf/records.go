package nrbf

// Record is the tagged variant over the record kinds that can stand
// on their own in a stream or appear nested inside a class member or
// array slot. Exactly one payload field is set, selected by kind.
type Record struct {
	kind RecordKind

	class   *ClassRecord
	str     *StringRecord
	array   *ArrayRecord
	library *LibraryRecord
	prim    *Primitive // MemberPrimitiveTyped
	refID   int32      // MemberReference
	nullRun int32      // ObjectNull / ObjectNullMultiple*
}

// Kind returns the wire record kind.
func (r *Record) Kind() RecordKind { return r.kind }

// ObjectID returns the identity of the record, if it carries one.
// BinaryLibrary records share the id space with objects.
func (r *Record) ObjectID() (int32, bool) {
	switch r.kind {
	case KindClassWithID, KindSystemClassWithMembers, KindClassWithMembers,
		KindSystemClassWithMembersAndTypes, KindClassWithMembersAndTypes:
		return r.class.Info.ObjectID, true
	case KindBinaryObjectString:
		return r.str.ObjectID, true
	case KindBinaryArray, KindArraySinglePrimitive, KindArraySingleObject, KindArraySingleString:
		return r.array.ObjectID, true
	case KindBinaryLibrary:
		return r.library.LibraryID, true
	}
	return 0, false
}

// Class returns the class payload.
func (r *Record) Class() (*ClassRecord, bool) {
	if r.class == nil {
		return nil, false
	}
	return r.class, true
}

// ObjectString returns the string payload.
func (r *Record) ObjectString() (*StringRecord, bool) {
	if r.str == nil {
		return nil, false
	}
	return r.str, true
}

// Array returns the array payload.
func (r *Record) Array() (*ArrayRecord, bool) {
	if r.array == nil {
		return nil, false
	}
	return r.array, true
}

// Library returns the library payload.
func (r *Record) Library() (*LibraryRecord, bool) {
	if r.library == nil {
		return nil, false
	}
	return r.library, true
}

// InlinePrimitive returns the MemberPrimitiveTyped payload.
func (r *Record) InlinePrimitive() (Primitive, bool) {
	if r.prim == nil {
		return Primitive{}, false
	}
	return *r.prim, true
}

func classRecordHandle(c *ClassRecord) *Record {
	return &Record{kind: c.WireKind, class: c}
}

func stringRecordHandle(s *StringRecord) *Record {
	return &Record{kind: KindBinaryObjectString, str: s}
}

func arrayRecordHandle(a *ArrayRecord) *Record {
	return &Record{kind: a.WireKind, array: a}
}

func libraryRecordHandle(l *LibraryRecord) *Record {
	return &Record{kind: KindBinaryLibrary, library: l}
}

// StringRecord is a BinaryObjectString: an identified UTF-8 string.
type StringRecord struct {
	ObjectID int32
	Value    string
}

// LibraryRecord is a BinaryLibrary declaration.
type LibraryRecord struct {
	LibraryID int32
	Name      string
}

// MemberEntry pairs a member name with its value, in declaration
// order.
type MemberEntry struct {
	Name  string
	Value *Value
}

// ClassRecord is a decoded class instance. Info, Types, and the
// library binding describe the shape; WireKind remembers which of the
// five class record layouts produced it so the encoder can reproduce
// the original choice of emitting metadata inline versus referring to
// an earlier record.
type ClassRecord struct {
	Info       ClassInfo
	Types      []MemberType // nil for the type-less record kinds
	LibraryID  int32
	HasLibrary bool
	WireKind   RecordKind
	MetadataID int32 // set only when WireKind is ClassWithId

	values map[string]*Value
}

func newClassRecord(info ClassInfo) *ClassRecord {
	return &ClassRecord{
		Info:   info,
		values: make(map[string]*Value, len(info.MemberNames)),
	}
}

// Member returns the value bound to the named member.
func (c *ClassRecord) Member(name string) (*Value, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Members returns (name, value) pairs in declaration order.
func (c *ClassRecord) Members() []MemberEntry {
	entries := make([]MemberEntry, 0, len(c.Info.MemberNames))
	for _, name := range c.Info.MemberNames {
		entries = append(entries, MemberEntry{Name: name, Value: c.values[name]})
	}
	return entries
}

// MemberType returns the declared type of the named member, when the
// record carries type info.
func (c *ClassRecord) MemberType(name string) (MemberType, bool) {
	if c.Types == nil {
		return MemberType{}, false
	}
	for i, n := range c.Info.MemberNames {
		if n == name {
			return c.Types[i], true
		}
	}
	return MemberType{}, false
}

func (c *ClassRecord) bindMember(name string, v *Value) {
	c.values[name] = v
}

// ArrayRecord is a decoded array of any of the four wire layouts.
// Lengths has one entry per rank; for the single-dimension kinds it
// holds exactly the declared length. Slots are stored in wire order,
// one per element position; a null run keeps its wire form in its
// head slot and fills the positions it covers with zero-count nulls
// (see Value).
type ArrayRecord struct {
	WireKind    RecordKind
	ObjectID    int32
	Shape       ArrayShape // meaningful for BinaryArray only
	Lengths     []int32
	LowerBounds []int32    // offset shapes only
	ElementType MemberType // Tag + additional info describing elements

	slots []*Value
}

// Length returns the total number of element positions: the product
// of the declared lengths.
func (a *ArrayRecord) Length() int {
	if len(a.Lengths) == 0 {
		return 0
	}
	n := 1
	for _, l := range a.Lengths {
		n *= int(l)
	}
	return n
}

// Rank returns the number of dimensions.
func (a *ArrayRecord) Rank() int { return len(a.Lengths) }

// Elements returns every element position in order. Null runs appear
// expanded: the slice always has exactly Length() entries.
func (a *ArrayRecord) Elements() []*Value {
	return a.slots
}

// Element returns the value at the flat element index.
func (a *ArrayRecord) Element(i int) (*Value, bool) {
	if i < 0 || i >= len(a.slots) {
		return nil, false
	}
	return a.slots[i], true
}
