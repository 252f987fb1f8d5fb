package nrbf

import (
	"log/slog"
	"sort"
)

// Header is the framing record at the start of every stream.
type Header struct {
	RootID   int32
	HeaderID int32
	Major    int32
	Minor    int32
}

// classMetadata is the reusable shape of a typed class record,
// inherited by later ClassWithId records.
type classMetadata struct {
	info       ClassInfo
	types      []MemberType
	libraryID  int32
	hasLibrary bool
}

// Document owns a decoded record graph: the emission-ordered record
// list (libraries included, framing excluded), the identity map, the
// metadata map for ClassWithId inheritance, and the library map.
// Records may form cycles through MemberReference; a reference is
// stored as an object id, never as a pointer to its referent. Records
// nested in a member or element position are owned by that value.
//
// A Document is not safe for concurrent mutation.
type Document struct {
	Header Header

	records   []*Record
	identity  map[int32]*Record
	metadata  map[int32]*classMetadata
	libraries map[int32]string
	root      *Record

	strictChar bool
	logger     *slog.Logger
}

func newDocument() *Document {
	return &Document{
		identity:  make(map[int32]*Record),
		metadata:  make(map[int32]*classMetadata),
		libraries: make(map[int32]string),
		logger:    discardLogger(),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// RecordsInOrder returns the top-level records in the order they
// appeared on the wire, top-level BinaryLibrary declarations included,
// header and terminator excluded. Records nested in member or element
// positions, and libraries interleaved there, are reached through the
// values that hold them and are not in this list.
func (d *Document) RecordsInOrder() []*Record { return d.records }

// Lookup returns the record registered under the given object id.
func (d *Document) Lookup(id int32) (*Record, bool) {
	r, ok := d.identity[id]
	return r, ok
}

// Root returns the record identified by the header's root id.
func (d *Document) Root() *Record { return d.root }

// LibraryName returns the assembly-qualified name declared for a
// library id.
func (d *Document) LibraryName(id int32) (string, bool) {
	name, ok := d.libraries[id]
	return name, ok
}

// LibraryIDs returns the declared library ids in ascending order.
func (d *Document) LibraryIDs() []int32 {
	ids := make([]int32, 0, len(d.libraries))
	for id := range d.libraries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Resolve follows a value one reference hop: a ValueReference becomes
// the referent record, anything else is returned unchanged. An
// unknown id fails with DanglingReference.
func (d *Document) Resolve(v *Value) (*Value, error) {
	id, ok := v.ReferenceID()
	if !ok {
		return v, nil
	}
	rec, ok := d.identity[id]
	if !ok {
		return nil, errf(ErrDanglingReference, "object id %d", id)
	}
	return RecordValue(rec), nil
}

// SetLogger installs a log sink for traversal diagnostics. A nil
// logger restores the default no-op sink.
func (d *Document) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = discardLogger()
	}
	d.logger = logger
}

// Stats summarizes a decoded document.
type Stats struct {
	Records   int // emission-ordered top-level records
	Objects   int // entries in the identity map
	Classes   int
	Arrays    int
	Strings   int
	Libraries int
}

// Stats computes summary counts over the identity map and the
// emission list.
func (d *Document) Stats() Stats {
	s := Stats{
		Records:   len(d.records),
		Objects:   len(d.identity),
		Libraries: len(d.libraries),
	}
	for _, rec := range d.identity {
		switch {
		case rec.class != nil:
			s.Classes++
		case rec.array != nil:
			s.Arrays++
		case rec.str != nil:
			s.Strings++
		}
	}
	return s
}
