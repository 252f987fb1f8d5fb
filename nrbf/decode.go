package nrbf

import "log/slog"

// DefaultMaxRecords bounds pathological inputs: decoding fails with
// RecordBudgetExceeded once more than this many records (nested ones
// included) have been read.
const DefaultMaxRecords = 100000

// DecodeOptions configures the decoder.
type DecodeOptions struct {
	// MaxRecords overrides the record budget (default
	// DefaultMaxRecords).
	MaxRecords int

	// StrictChar reads Char primitives as two-byte UTF-16 code units
	// instead of the historical single byte.
	StrictChar bool

	// Logger receives traversal diagnostics. Nil means discard.
	Logger *slog.Logger
}

// Decode parses an NRBF byte buffer into a Document.
func Decode(data []byte) (*Document, error) {
	return DecodeWithOptions(data, DecodeOptions{})
}

// DecodeWithOptions parses an NRBF byte buffer with explicit options.
// The decoder fails fast: on any structural error no partial document
// is returned.
func DecodeWithOptions(data []byte, opts DecodeOptions) (*Document, error) {
	maxRecords := opts.MaxRecords
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	d := &decoder{
		r:          newReader(data),
		doc:        newDocument(),
		maxRecords: maxRecords,
		strictChar: opts.StrictChar,
	}
	d.doc.strictChar = opts.StrictChar
	if opts.Logger != nil {
		d.doc.SetLogger(opts.Logger)
	}
	if err := d.run(); err != nil {
		return nil, err
	}
	return d.doc, nil
}

type decoder struct {
	r          *reader
	doc        *Document
	maxRecords int
	strictChar bool
	count      int
}

func (d *decoder) run() error {
	if err := d.readHeader(); err != nil {
		return err
	}

	for {
		tag, ok := d.r.peek()
		if !ok {
			return errAt(ErrUnexpectedEOF, d.r.pos, "stream ends without MessageEnd")
		}
		if RecordKind(tag) == KindMessageEnd {
			d.r.u8()
			break
		}
		rec, err := d.readRecord()
		if err != nil {
			return err
		}
		d.doc.records = append(d.doc.records, rec)
	}

	if d.r.remaining() > 0 {
		d.doc.logger.Warn("trailing bytes after MessageEnd",
			slog.Int("offset", d.r.pos), slog.Int("count", d.r.remaining()))
	}

	root, ok := d.doc.identity[d.doc.Header.RootID]
	if !ok {
		return errf(ErrRootNotFound, "root id %d not in identity map", d.doc.Header.RootID)
	}
	d.doc.root = root
	return nil
}

func (d *decoder) readHeader() error {
	tag, err := d.r.u8()
	if err != nil {
		return errAt(ErrBadHeader, 0, "empty stream")
	}
	if RecordKind(tag) != KindSerializedStreamHeader {
		return errAt(ErrBadHeader, 0, "first record tag 0x%02x, want 0x00", tag)
	}
	h := &d.doc.Header
	if h.RootID, err = d.r.i32(); err != nil {
		return errAt(ErrBadHeader, d.r.pos, "truncated header")
	}
	if h.HeaderID, err = d.r.i32(); err != nil {
		return errAt(ErrBadHeader, d.r.pos, "truncated header")
	}
	if h.Major, err = d.r.i32(); err != nil {
		return errAt(ErrBadHeader, d.r.pos, "truncated header")
	}
	if h.Minor, err = d.r.i32(); err != nil {
		return errAt(ErrBadHeader, d.r.pos, "truncated header")
	}
	return nil
}

func (d *decoder) charge() error {
	d.count++
	if d.count > d.maxRecords {
		return errAt(ErrRecordBudgetExceeded, d.r.pos, "more than %d records", d.maxRecords)
	}
	return nil
}

func (d *decoder) register(id int32, rec *Record) error {
	if _, dup := d.doc.identity[id]; dup {
		return errAt(ErrDuplicateObjectID, d.r.pos, "object id %d", id)
	}
	d.doc.identity[id] = rec
	return nil
}

// readRecord reads one complete record, dispatching on the tag byte.
// Records carrying identity are registered here, so nested records
// are addressable by id exactly like top-level ones.
func (d *decoder) readRecord() (*Record, error) {
	if err := d.charge(); err != nil {
		return nil, err
	}
	tagOffset := d.r.pos
	tag, err := d.r.u8()
	if err != nil {
		return nil, err
	}

	switch RecordKind(tag) {
	case KindClassWithID:
		return d.readClassWithID()
	case KindSystemClassWithMembers:
		return d.readClass(KindSystemClassWithMembers, false, false)
	case KindClassWithMembers:
		return d.readClass(KindClassWithMembers, false, true)
	case KindSystemClassWithMembersAndTypes:
		return d.readClass(KindSystemClassWithMembersAndTypes, true, false)
	case KindClassWithMembersAndTypes:
		return d.readClass(KindClassWithMembersAndTypes, true, true)

	case KindBinaryObjectString:
		id, err := d.r.i32()
		if err != nil {
			return nil, err
		}
		s, err := d.r.varstring()
		if err != nil {
			return nil, err
		}
		rec := stringRecordHandle(&StringRecord{ObjectID: id, Value: s})
		if err := d.register(id, rec); err != nil {
			return nil, err
		}
		return rec, nil

	case KindBinaryArray:
		return d.readBinaryArray()
	case KindArraySinglePrimitive:
		return d.readArraySinglePrimitive()
	case KindArraySingleObject:
		return d.readArraySingle(KindArraySingleObject, MemberType{Tag: TypeObject})
	case KindArraySingleString:
		return d.readArraySingle(KindArraySingleString, MemberType{Tag: TypeString})

	case KindMemberPrimitiveTyped:
		kindByte, err := d.r.u8()
		if err != nil {
			return nil, err
		}
		kind := PrimitiveKind(kindByte)
		if !kind.valid() {
			return nil, errAt(ErrUnknownPrimitiveTag, d.r.pos-1, "primitive tag 0x%02x", kindByte)
		}
		p, err := readPrimitive(d.r, kind, d.strictChar)
		if err != nil {
			return nil, err
		}
		return &Record{kind: KindMemberPrimitiveTyped, prim: &p}, nil

	case KindMemberReference:
		id, err := d.r.i32()
		if err != nil {
			return nil, err
		}
		return &Record{kind: KindMemberReference, refID: id}, nil

	case KindObjectNull:
		return &Record{kind: KindObjectNull, nullRun: 1}, nil

	case KindObjectNullMultiple256:
		count, err := d.r.u8()
		if err != nil {
			return nil, err
		}
		return &Record{kind: KindObjectNullMultiple256, nullRun: int32(count)}, nil

	case KindObjectNullMultiple:
		count, err := d.r.i32()
		if err != nil {
			return nil, err
		}
		if count < 0 {
			return nil, errAt(ErrInconsistentArrayLength, tagOffset, "negative null run %d", count)
		}
		return &Record{kind: KindObjectNullMultiple, nullRun: count}, nil

	case KindBinaryLibrary:
		id, err := d.r.i32()
		if err != nil {
			return nil, err
		}
		name, err := d.r.varstring()
		if err != nil {
			return nil, err
		}
		rec := libraryRecordHandle(&LibraryRecord{LibraryID: id, Name: name})
		if err := d.register(id, rec); err != nil {
			return nil, err
		}
		d.doc.libraries[id] = name
		return rec, nil

	case KindSerializedStreamHeader:
		return nil, errAt(ErrBadHeader, tagOffset, "header record after stream start")
	case KindMessageEnd:
		return nil, errAt(ErrUnknownRecordTag, tagOffset, "MessageEnd inside a record")
	}
	return nil, errAt(ErrUnknownRecordTag, tagOffset, "record tag 0x%02x", tag)
}

func (d *decoder) readClass(wireKind RecordKind, typed, hasLibrary bool) (*Record, error) {
	info, err := readClassInfo(d.r)
	if err != nil {
		return nil, err
	}
	c := newClassRecord(info)
	c.WireKind = wireKind

	if typed {
		if c.Types, err = readMemberTypes(d.r, info.MemberCount()); err != nil {
			return nil, err
		}
	}
	if hasLibrary {
		if c.LibraryID, err = d.r.i32(); err != nil {
			return nil, err
		}
		c.HasLibrary = true
	}

	rec := classRecordHandle(c)
	if err := d.register(info.ObjectID, rec); err != nil {
		return nil, err
	}
	d.doc.metadata[info.ObjectID] = &classMetadata{
		info:       info,
		types:      c.Types,
		libraryID:  c.LibraryID,
		hasLibrary: c.HasLibrary,
	}

	if err := d.readClassMembers(c); err != nil {
		return nil, err
	}
	return rec, nil
}

func (d *decoder) readClassWithID() (*Record, error) {
	id, err := d.r.i32()
	if err != nil {
		return nil, err
	}
	metadataID, err := d.r.i32()
	if err != nil {
		return nil, err
	}
	meta, ok := d.doc.metadata[metadataID]
	if !ok {
		return nil, errAt(ErrUnknownMetadataID, d.r.pos, "metadata id %d", metadataID)
	}

	c := newClassRecord(ClassInfo{
		ObjectID:    id,
		Name:        meta.info.Name,
		MemberNames: meta.info.MemberNames,
	})
	c.Types = meta.types
	c.LibraryID = meta.libraryID
	c.HasLibrary = meta.hasLibrary
	c.WireKind = KindClassWithID
	c.MetadataID = metadataID

	rec := classRecordHandle(c)
	if err := d.register(id, rec); err != nil {
		return nil, err
	}
	if err := d.readClassMembers(c); err != nil {
		return nil, err
	}
	return rec, nil
}

// readClassMembers reads one value per member name. Members with a
// declared primitive type are read inline; everything else is a
// nested record. A null-run record fills several consecutive members.
func (d *decoder) readClassMembers(c *ClassRecord) error {
	names := c.Info.MemberNames
	i := 0
	for i < len(names) {
		if c.Types != nil && c.Types[i].Tag == TypePrimitive {
			p, err := readPrimitive(d.r, c.Types[i].Primitive, d.strictChar)
			if err != nil {
				return err
			}
			c.bindMember(names[i], PrimitiveValue(p))
			i++
			continue
		}

		v, run, err := d.readNestedValue()
		if err != nil {
			return err
		}
		if run > 1 {
			if i+int(run) > len(names) {
				return errAt(ErrInconsistentArrayLength, d.r.pos,
					"null run of %d exceeds %d remaining members of %s", run, len(names)-i, c.Info.Name)
			}
			c.bindMember(names[i], v)
			i++
			for k := int32(1); k < run; k++ {
				c.bindMember(names[i], nullRunCovered())
				i++
			}
			continue
		}
		c.bindMember(names[i], v)
		i++
	}
	return nil
}

// readNestedValue reads a record in member or element position and
// converts it to a Value. The returned run count is the number of
// slots the value covers (1 except for null runs). BinaryLibrary
// records interleaved before the value are consumed here and pinned
// to the value so the encoder can replay them at the same position.
func (d *decoder) readNestedValue() (*Value, int32, error) {
	var pre []*Record
	for {
		tag, ok := d.r.peek()
		if !ok {
			return nil, 0, errAt(ErrUnexpectedEOF, d.r.pos, "record tag expected")
		}
		if RecordKind(tag) != KindBinaryLibrary {
			break
		}
		lib, err := d.readRecord()
		if err != nil {
			return nil, 0, err
		}
		pre = append(pre, lib)
	}

	rec, err := d.readRecord()
	if err != nil {
		return nil, 0, err
	}

	var v *Value
	run := int32(1)
	switch rec.kind {
	case KindObjectNull, KindObjectNullMultiple256, KindObjectNullMultiple:
		v = nullRunHead(rec.kind, rec.nullRun)
		run = rec.nullRun
		// Expanded null slots count against the record budget so a
		// tiny input cannot declare a giant run.
		d.count += int(run)
		if d.count > d.maxRecords {
			return nil, 0, errAt(ErrRecordBudgetExceeded, d.r.pos, "more than %d records", d.maxRecords)
		}
		if run < 1 {
			// A run of zero covers no slot; normalize to a single
			// null so the slot is still filled.
			v.nullCount = 1
			run = 1
		}
	case KindMemberReference:
		v = ReferenceValue(rec.refID)
	case KindMemberPrimitiveTyped:
		v = PrimitiveValue(*rec.prim)
	default:
		v = RecordValue(rec)
	}
	v.pre = pre
	return v, run, nil
}

func (d *decoder) readBinaryArray() (*Record, error) {
	id, err := d.r.i32()
	if err != nil {
		return nil, err
	}
	shapeByte, err := d.r.u8()
	if err != nil {
		return nil, err
	}
	shape := ArrayShape(shapeByte)
	if !shape.valid() {
		return nil, errAt(ErrUnknownArrayShapeTag, d.r.pos-1, "array shape tag 0x%02x", shapeByte)
	}
	rank, err := d.r.i32()
	if err != nil {
		return nil, err
	}
	if rank < 1 || int(rank) > d.r.remaining() {
		return nil, errAt(ErrInconsistentArrayLength, d.r.pos, "array rank %d", rank)
	}

	a := &ArrayRecord{
		WireKind: KindBinaryArray,
		ObjectID: id,
		Shape:    shape,
		Lengths:  make([]int32, rank),
	}
	for i := range a.Lengths {
		if a.Lengths[i], err = d.r.i32(); err != nil {
			return nil, err
		}
		if a.Lengths[i] < 0 {
			return nil, errAt(ErrInconsistentArrayLength, d.r.pos, "negative array length %d", a.Lengths[i])
		}
	}
	if shape.hasLowerBounds() {
		a.LowerBounds = make([]int32, rank)
		for i := range a.LowerBounds {
			if a.LowerBounds[i], err = d.r.i32(); err != nil {
				return nil, err
			}
		}
	}

	typeByte, err := d.r.u8()
	if err != nil {
		return nil, err
	}
	if typeByte > byte(TypePrimitiveArray) {
		return nil, errAt(ErrUnknownBinaryTypeTag, d.r.pos-1, "binary type tag 0x%02x", typeByte)
	}
	a.ElementType.Tag = BinaryTypeTag(typeByte)
	switch a.ElementType.Tag {
	case TypePrimitive, TypePrimitiveArray:
		b, err := d.r.u8()
		if err != nil {
			return nil, err
		}
		kind := PrimitiveKind(b)
		if !kind.valid() {
			return nil, errAt(ErrUnknownPrimitiveTag, d.r.pos-1, "primitive tag 0x%02x", b)
		}
		a.ElementType.Primitive = kind
	case TypeSystemClass:
		if a.ElementType.ClassName, err = d.r.varstring(); err != nil {
			return nil, err
		}
	case TypeClass:
		if a.ElementType.ClassName, err = d.r.varstring(); err != nil {
			return nil, err
		}
		if a.ElementType.LibraryID, err = d.r.i32(); err != nil {
			return nil, err
		}
	}

	rec := arrayRecordHandle(a)
	if err := d.register(id, rec); err != nil {
		return nil, err
	}
	if err := d.readArraySlots(a); err != nil {
		return nil, err
	}
	return rec, nil
}

func (d *decoder) readArraySinglePrimitive() (*Record, error) {
	id, err := d.r.i32()
	if err != nil {
		return nil, err
	}
	length, err := d.r.i32()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, errAt(ErrInconsistentArrayLength, d.r.pos, "negative array length %d", length)
	}
	kindByte, err := d.r.u8()
	if err != nil {
		return nil, err
	}
	kind := PrimitiveKind(kindByte)
	if !kind.valid() {
		return nil, errAt(ErrUnknownPrimitiveTag, d.r.pos-1, "primitive tag 0x%02x", kindByte)
	}

	a := &ArrayRecord{
		WireKind:    KindArraySinglePrimitive,
		ObjectID:    id,
		Lengths:     []int32{length},
		ElementType: MemberType{Tag: TypePrimitive, Primitive: kind},
	}
	rec := arrayRecordHandle(a)
	if err := d.register(id, rec); err != nil {
		return nil, err
	}
	if err := d.readArraySlots(a); err != nil {
		return nil, err
	}
	return rec, nil
}

func (d *decoder) readArraySingle(wireKind RecordKind, elemType MemberType) (*Record, error) {
	id, err := d.r.i32()
	if err != nil {
		return nil, err
	}
	length, err := d.r.i32()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, errAt(ErrInconsistentArrayLength, d.r.pos, "negative array length %d", length)
	}

	a := &ArrayRecord{
		WireKind:    wireKind,
		ObjectID:    id,
		Lengths:     []int32{length},
		ElementType: elemType,
	}
	rec := arrayRecordHandle(a)
	if err := d.register(id, rec); err != nil {
		return nil, err
	}
	if err := d.readArraySlots(a); err != nil {
		return nil, err
	}
	return rec, nil
}

// readArraySlots fills exactly Length() element positions. Primitive
// elements are read bare; anything else is a nested record. Null runs
// expand into their declared number of slots.
func (d *decoder) readArraySlots(a *ArrayRecord) error {
	n := a.Length()
	primitive := a.ElementType.Tag == TypePrimitive
	if primitive && a.ElementType.Primitive != PrimNull && n > d.r.remaining() {
		// Every bare primitive consumes at least one byte, so a
		// length beyond the remaining input can never be satisfied.
		// Object arrays are exempt: a single null run covers many
		// slots.
		return errAt(ErrUnexpectedEOF, d.r.pos, "array of %d elements, %d bytes remain", n, d.r.remaining())
	}
	a.slots = make([]*Value, 0, min(n, d.r.remaining()+1))
	for len(a.slots) < n {
		if primitive {
			p, err := readPrimitive(d.r, a.ElementType.Primitive, d.strictChar)
			if err != nil {
				return err
			}
			a.slots = append(a.slots, PrimitiveValue(p))
			continue
		}

		v, run, err := d.readNestedValue()
		if err != nil {
			return err
		}
		if int(run) > n-len(a.slots) {
			return errAt(ErrInconsistentArrayLength, d.r.pos,
				"null run of %d exceeds %d remaining elements", run, n-len(a.slots))
		}
		a.slots = append(a.slots, v)
		for k := int32(1); k < run; k++ {
			a.slots = append(a.slots, nullRunCovered())
		}
	}
	return nil
}
