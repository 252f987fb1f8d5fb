package nrbf

import "math"

// Encode serializes a document back into NRBF bytes. For a document
// produced by Decode and not edited, the output is byte-for-byte
// identical to the input: the encoder replays the emission-ordered
// record list and never re-derives layout from the graph.
func Encode(doc *Document) ([]byte, error) {
	return EncodeWithRoot(doc, doc.Header.RootID)
}

// EncodeWithRoot serializes the document with an overridden root id
// in the framing header.
func EncodeWithRoot(doc *Document, rootID int32) ([]byte, error) {
	e := &encoder{
		w:          newWriter(),
		doc:        doc,
		strictChar: doc.strictChar,
	}

	e.w.u8(byte(KindSerializedStreamHeader))
	e.w.i32(rootID)
	e.w.i32(doc.Header.HeaderID)
	e.w.i32(doc.Header.Major)
	e.w.i32(doc.Header.Minor)

	if len(doc.records) > 0 {
		for _, rec := range doc.records {
			if err := e.encodeRecord(rec); err != nil {
				return nil, err
			}
		}
	} else if err := e.encodeStructural(); err != nil {
		return nil, err
	}

	e.w.u8(byte(KindMessageEnd))
	return e.w.bytes(), nil
}

type encoder struct {
	w          *writer
	doc        *Document
	strictChar bool
}

func (e *encoder) encodeRecord(rec *Record) error {
	switch rec.kind {
	case KindClassWithID, KindSystemClassWithMembers, KindClassWithMembers,
		KindSystemClassWithMembersAndTypes, KindClassWithMembersAndTypes:
		return e.encodeClass(rec.class)

	case KindBinaryObjectString:
		e.w.u8(byte(KindBinaryObjectString))
		e.w.i32(rec.str.ObjectID)
		return e.w.varstring(rec.str.Value)

	case KindBinaryArray, KindArraySinglePrimitive, KindArraySingleObject, KindArraySingleString:
		return e.encodeArray(rec.array)

	case KindBinaryLibrary:
		e.w.u8(byte(KindBinaryLibrary))
		e.w.i32(rec.library.LibraryID)
		return e.w.varstring(rec.library.Name)

	case KindMemberPrimitiveTyped:
		e.w.u8(byte(KindMemberPrimitiveTyped))
		e.w.u8(byte(rec.prim.kind))
		return writePrimitive(e.w, *rec.prim, e.strictChar)

	case KindMemberReference:
		return e.encodeReference(rec.refID)

	case KindObjectNull, KindObjectNullMultiple256, KindObjectNullMultiple:
		return e.encodeNullRun(rec.kind, rec.nullRun)
	}
	return errf(ErrUnknownRecordTag, "cannot encode record kind %s", rec.kind)
}

func (e *encoder) encodeReference(id int32) error {
	if _, ok := e.doc.identity[id]; !ok {
		return errf(ErrUnresolvableReference, "object id %d", id)
	}
	e.w.u8(byte(KindMemberReference))
	e.w.i32(id)
	return nil
}

func (e *encoder) encodeNullRun(kind RecordKind, count int32) error {
	switch kind {
	case KindObjectNull:
		e.w.u8(byte(KindObjectNull))
	case KindObjectNullMultiple256:
		if count < 0 || count > math.MaxUint8 {
			return errf(ErrIntegerOutOfRange, "null run of %d in a one-byte count", count)
		}
		e.w.u8(byte(KindObjectNullMultiple256))
		e.w.u8(byte(count))
	case KindObjectNullMultiple:
		e.w.u8(byte(KindObjectNullMultiple))
		e.w.i32(count)
	default:
		return errf(ErrUnknownRecordTag, "not a null record kind: %s", kind)
	}
	return nil
}

// encodeClass emits the record in its original wire layout: the
// choice between the five class record kinds (and therefore between
// emitting metadata inline and referring to an earlier record) is
// preserved from decode time.
func (e *encoder) encodeClass(c *ClassRecord) error {
	switch c.WireKind {
	case KindClassWithID:
		e.w.u8(byte(KindClassWithID))
		e.w.i32(c.Info.ObjectID)
		e.w.i32(c.MetadataID)

	case KindSystemClassWithMembers:
		e.w.u8(byte(KindSystemClassWithMembers))
		if err := writeClassInfo(e.w, c.Info); err != nil {
			return err
		}

	case KindClassWithMembers:
		e.w.u8(byte(KindClassWithMembers))
		if err := writeClassInfo(e.w, c.Info); err != nil {
			return err
		}
		e.w.i32(c.LibraryID)

	case KindSystemClassWithMembersAndTypes:
		e.w.u8(byte(KindSystemClassWithMembersAndTypes))
		if err := writeClassInfo(e.w, c.Info); err != nil {
			return err
		}
		if err := writeMemberTypes(e.w, c.Types); err != nil {
			return err
		}

	case KindClassWithMembersAndTypes:
		e.w.u8(byte(KindClassWithMembersAndTypes))
		if err := writeClassInfo(e.w, c.Info); err != nil {
			return err
		}
		if err := writeMemberTypes(e.w, c.Types); err != nil {
			return err
		}
		e.w.i32(c.LibraryID)

	default:
		return errf(ErrUnknownRecordTag, "class record with wire kind %s", c.WireKind)
	}

	for i, name := range c.Info.MemberNames {
		if err := e.encodeMemberValue(c, i, name); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) encodeMemberValue(c *ClassRecord, i int, name string) error {
	v, ok := c.values[name]
	if !ok || v == nil {
		// Unbound members only occur in synthetic documents.
		e.w.u8(byte(KindObjectNull))
		return nil
	}

	for _, lib := range v.pre {
		if err := e.encodeRecord(lib); err != nil {
			return err
		}
	}

	if c.Types != nil && c.Types[i].Tag == TypePrimitive {
		p, isPrim := v.Primitive()
		if !isPrim {
			return errf(ErrMissingTypeInfo,
				"member %s of %s declared %s but holds %s", name, c.Info.Name, c.Types[i].Primitive, v.Kind())
		}
		if p.kind != c.Types[i].Primitive {
			return errf(ErrMissingTypeInfo,
				"member %s of %s declared %s but holds %s", name, c.Info.Name, c.Types[i].Primitive, p.kind)
		}
		return writePrimitive(e.w, p, e.strictChar)
	}

	return e.encodeValueRecord(v)
}

// encodeValueRecord emits a non-primitive-typed member or element
// value in record form. References emit a tag-9 record in place; the
// referent is never emitted recursively.
func (e *encoder) encodeValueRecord(v *Value) error {
	switch v.Kind() {
	case ValueNull:
		if v.nullCount == 0 {
			// Covered by a preceding run head.
			return nil
		}
		return e.encodeNullRun(v.nullKind, v.nullCount)
	case ValuePrimitive:
		e.w.u8(byte(KindMemberPrimitiveTyped))
		e.w.u8(byte(v.prim.kind))
		return writePrimitive(e.w, v.prim, e.strictChar)
	case ValueReference:
		return e.encodeReference(v.refID)
	case ValueRecord:
		return e.encodeRecord(v.rec)
	}
	return errf(ErrUnknownRecordTag, "value kind %s", v.Kind())
}

func (e *encoder) encodeArray(a *ArrayRecord) error {
	if len(a.slots) != a.Length() {
		return errf(ErrInconsistentArrayLength,
			"array %d declares %d elements, holds %d", a.ObjectID, a.Length(), len(a.slots))
	}

	switch a.WireKind {
	case KindBinaryArray:
		e.w.u8(byte(KindBinaryArray))
		e.w.i32(a.ObjectID)
		e.w.u8(byte(a.Shape))
		e.w.i32(int32(len(a.Lengths)))
		for _, l := range a.Lengths {
			e.w.i32(l)
		}
		if a.Shape.hasLowerBounds() {
			if len(a.LowerBounds) != len(a.Lengths) {
				return errf(ErrInconsistentArrayLength,
					"array %d: %d lower bounds for rank %d", a.ObjectID, len(a.LowerBounds), len(a.Lengths))
			}
			for _, b := range a.LowerBounds {
				e.w.i32(b)
			}
		}
		e.w.u8(byte(a.ElementType.Tag))
		switch a.ElementType.Tag {
		case TypePrimitive, TypePrimitiveArray:
			e.w.u8(byte(a.ElementType.Primitive))
		case TypeSystemClass:
			if err := e.w.varstring(a.ElementType.ClassName); err != nil {
				return err
			}
		case TypeClass:
			if err := e.w.varstring(a.ElementType.ClassName); err != nil {
				return err
			}
			e.w.i32(a.ElementType.LibraryID)
		}

	case KindArraySinglePrimitive:
		e.w.u8(byte(KindArraySinglePrimitive))
		e.w.i32(a.ObjectID)
		e.w.i32(a.Lengths[0])
		e.w.u8(byte(a.ElementType.Primitive))

	case KindArraySingleObject:
		e.w.u8(byte(KindArraySingleObject))
		e.w.i32(a.ObjectID)
		e.w.i32(a.Lengths[0])

	case KindArraySingleString:
		e.w.u8(byte(KindArraySingleString))
		e.w.i32(a.ObjectID)
		e.w.i32(a.Lengths[0])

	default:
		return errf(ErrUnknownRecordTag, "array record with wire kind %s", a.WireKind)
	}

	if a.ElementType.Tag == TypePrimitive {
		for i, v := range a.slots {
			p, isPrim := v.Primitive()
			if !isPrim || p.kind != a.ElementType.Primitive {
				return errf(ErrMissingTypeInfo,
					"array %d element %d: declared %s", a.ObjectID, i, a.ElementType.Primitive)
			}
			if err := writePrimitive(e.w, p, e.strictChar); err != nil {
				return err
			}
		}
		return nil
	}

	for _, v := range a.slots {
		for _, lib := range v.pre {
			if err := e.encodeRecord(lib); err != nil {
				return err
			}
		}
		if err := e.encodeValueRecord(v); err != nil {
			return err
		}
	}
	return nil
}

// encodeStructural is the fallback for documents with no emission
// order (synthetically constructed graphs): a depth-first walk from
// the root that emits each identified record once. Library records
// are emitted first so classes can cite them; referents of
// back-references discovered during the walk are appended after the
// records that cite them. The output is not byte-equivalent to any
// particular origin stream but re-decodes to an equivalent graph.
func (e *encoder) encodeStructural() error {
	if e.doc.root == nil {
		return errf(ErrRootNotFound, "document has no root record")
	}

	for _, id := range e.doc.LibraryIDs() {
		name := e.doc.libraries[id]
		e.w.u8(byte(KindBinaryLibrary))
		e.w.i32(id)
		if err := e.w.varstring(name); err != nil {
			return err
		}
	}

	emitted := make(map[int32]bool)
	for id := range e.doc.libraries {
		emitted[id] = true
	}

	queue := []*Record{e.doc.root}
	for len(queue) > 0 {
		rec := queue[0]
		queue = queue[1:]

		if id, ok := rec.ObjectID(); ok {
			if emitted[id] {
				continue
			}
			emitted[id] = true
		}
		if err := e.encodeRecord(rec); err != nil {
			return err
		}
		queue = append(e.pendingReferents(rec, emitted), queue...)
	}
	return nil
}

// pendingReferents collects records referenced (by id) from rec whose
// definitions have not been emitted yet.
func (e *encoder) pendingReferents(rec *Record, emitted map[int32]bool) []*Record {
	var pending []*Record
	collect := func(v *Value) {
		if id, ok := v.ReferenceID(); ok && !emitted[id] {
			if target, found := e.doc.identity[id]; found {
				pending = append(pending, target)
			}
		}
		if nested, ok := v.Record(); ok {
			if id, ok := nested.ObjectID(); ok {
				// Nested records were emitted inline with rec.
				emitted[id] = true
			}
			pending = append(pending, e.pendingReferents(nested, emitted)...)
		}
	}
	if rec.class != nil {
		for _, m := range rec.class.Members() {
			if m.Value != nil {
				collect(m.Value)
			}
		}
	}
	if rec.array != nil {
		for _, v := range rec.array.slots {
			collect(v)
		}
	}
	return pending
}
