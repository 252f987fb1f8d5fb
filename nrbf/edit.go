package nrbf

// SetPrimitive coerces text to the declared primitive kind of the
// slot addressed by path and writes it in place. The declared kind is
// whatever the slot currently holds; nothing else about the stream
// changes. No partial edit is ever committed: coercion failures leave
// the document untouched.
func (d *Document) SetPrimitive(path, text string) error {
	v := d.GetRaw(path)
	if v == nil {
		return errPath(ErrPathNotFound, path, "no value at path")
	}
	p, ok := v.Primitive()
	if !ok {
		return errPath(ErrNotEditable, path, "slot holds a %s, not a primitive", v.Kind())
	}
	coerced, err := CoercePrimitive(p.Kind(), text)
	if err != nil {
		if e, isErr := err.(*Error); isErr {
			e.Path = path
		}
		return err
	}
	v.setPrimitive(coerced)
	return nil
}

// SetPrimitiveValue writes an already-constructed primitive to the
// slot at path. The primitive's kind must match the slot's declared
// kind exactly.
func (d *Document) SetPrimitiveValue(path string, p Primitive) error {
	v := d.GetRaw(path)
	if v == nil {
		return errPath(ErrPathNotFound, path, "no value at path")
	}
	current, ok := v.Primitive()
	if !ok {
		return errPath(ErrNotEditable, path, "slot holds a %s, not a primitive", v.Kind())
	}
	if current.Kind() != p.Kind() {
		return errPath(ErrTypeMismatch, path, "slot is %s, value is %s", current.Kind(), p.Kind())
	}
	v.setPrimitive(p)
	return nil
}

// SetString replaces the value of the BinaryObjectString addressed by
// path, keeping its object id. The path may land on a reference; it
// is resolved to the string record it points at.
func (d *Document) SetString(path, text string) error {
	v := d.Get(path)
	if v == nil {
		return errPath(ErrPathNotFound, path, "no value at path")
	}
	rec, ok := v.Record()
	if !ok {
		return errPath(ErrNotEditable, path, "slot holds a %s, not a string record", v.Kind())
	}
	s, ok := rec.ObjectString()
	if !ok {
		return errPath(ErrNotEditable, path, "record is a %s, not a BinaryObjectString", rec.Kind())
	}
	s.Value = text
	return nil
}

// SetGuid locates the System.Guid class record at path and recomputes
// its eleven fields from a 36-character GUID string. The write is
// all-or-nothing: the GUID string is validated and every field
// coerced before the first mutation.
func (d *Document) SetGuid(path, text string) error {
	v := d.Get(path)
	if v == nil {
		return errPath(ErrPathNotFound, path, "no value at path")
	}
	rec, ok := v.Record()
	if !ok {
		return errPath(ErrNotEditable, path, "slot holds a %s, not a class record", v.Kind())
	}
	c, ok := rec.Class()
	if !ok || !IsGuidClass(c) {
		return errPath(ErrNotEditable, path, "record is not a %s", GuidClassName)
	}

	fields, err := ParseGuid(text)
	if err != nil {
		if e, isErr := err.(*Error); isErr {
			e.Path = path
		}
		return err
	}

	// Stage every write first: each target member must exist and be a
	// primitive whose kind can carry the parsed field.
	staged := make([]struct {
		slot *Value
		prim Primitive
	}, 0, len(guidMemberNames))
	for _, name := range guidMemberNames {
		slot, found := c.Member(name)
		if !found {
			return errPath(ErrInvalidGuidFormat, path, "member %s missing", name)
		}
		current, isPrim := slot.Primitive()
		if !isPrim {
			return errPath(ErrInvalidGuidFormat, path, "member %s is not a primitive", name)
		}
		p, convErr := convertGuidField(fields[name], current.Kind())
		if convErr != nil {
			return errPath(ErrInvalidGuidFormat, path, "member %s: %v", name, convErr)
		}
		staged = append(staged, struct {
			slot *Value
			prim Primitive
		}{slot, p})
	}
	for _, s := range staged {
		s.slot.setPrimitive(s.prim)
	}
	return nil
}

// convertGuidField reshapes a parsed GUID field primitive to the kind
// the target stream declared for that member (signed and unsigned
// spellings of the same width both occur in the wild).
func convertGuidField(p Primitive, want PrimitiveKind) (Primitive, error) {
	if p.Kind() == want {
		return p, nil
	}
	switch {
	case p.Kind() == PrimInt32 && want == PrimUInt32:
		return UInt32(uint32(p.intVal)), nil
	case p.Kind() == PrimInt16 && want == PrimUInt16:
		return UInt16(uint16(p.intVal)), nil
	case p.Kind() == PrimByte && want == PrimSByte:
		return SByte(int8(p.uintVal)), nil
	}
	return Primitive{}, errf(ErrTypeMismatch, "cannot store %s field in %s member", p.Kind(), want)
}
