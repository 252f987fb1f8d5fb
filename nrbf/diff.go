package nrbf

import "fmt"

// ChangeKind classifies one entry of a diff.
type ChangeKind uint8

const (
	ChangeModified ChangeKind = iota
	ChangeAdded
	ChangeRemoved
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeModified:
		return "Modified"
	case ChangeAdded:
		return "Added"
	case ChangeRemoved:
		return "Removed"
	default:
		return "Unknown"
	}
}

// FieldChange is one difference between two documents. Old and New
// carry the canonical textual forms of the differing values ("" for
// the absent side of Added/Removed).
type FieldChange struct {
	Path string
	Kind ChangeKind
	Old  string
	New  string
}

// Diff compares two documents and returns the ordered change list.
// References are resolved on both sides before comparing, class
// subtrees recurse per member (union of names), arrays walk to the
// longer length, and leaves compare by canonical text. Structural
// mismatches never fail: they are recorded as a single Modified at
// the deepest common path.
func Diff(a, b *Document) []FieldChange {
	d := &differ{a: a, b: b, visited: make(map[[2]int32]bool)}
	d.compare("", rootValue(a), rootValue(b))
	return d.changes
}

func rootValue(doc *Document) *Value {
	if doc == nil || doc.root == nil {
		return nil
	}
	return RecordValue(doc.root)
}

type differ struct {
	a, b    *Document
	changes []FieldChange
	visited map[[2]int32]bool
}

func (d *differ) modified(path, old, new string) {
	d.changes = append(d.changes, FieldChange{Path: path, Kind: ChangeModified, Old: old, New: new})
}

func (d *differ) compare(path string, va, vb *Value) {
	va = resolveForDiff(d.a, va)
	vb = resolveForDiff(d.b, vb)

	if va.IsNull() && vb.IsNull() {
		return
	}
	if va.IsNull() != vb.IsNull() {
		d.modified(path, valueSummary(va), valueSummary(vb))
		return
	}

	ra, aIsRec := va.Record()
	rb, bIsRec := vb.Record()

	// GUIDs and strings reduce to text even though they are records.
	ta, aLeaf := leafText(va)
	tb, bLeaf := leafText(vb)
	if aLeaf && bLeaf {
		if ta != tb {
			d.modified(path, ta, tb)
		}
		return
	}
	if aLeaf != bLeaf {
		d.modified(path, valueSummary(va), valueSummary(vb))
		return
	}

	if !aIsRec || !bIsRec {
		// Unresolvable references or mixed kinds.
		sa, sb := valueSummary(va), valueSummary(vb)
		if sa != sb {
			d.modified(path, sa, sb)
		}
		return
	}

	ca, aIsClass := ra.Class()
	cb, bIsClass := rb.Class()
	if aIsClass && bIsClass {
		d.compareClasses(path, ca, cb)
		return
	}

	aa, aIsArray := ra.Array()
	ab, bIsArray := rb.Array()
	if aIsArray && bIsArray {
		d.compareArrays(path, aa, ab)
		return
	}

	d.modified(path, valueSummary(va), valueSummary(vb))
}

func (d *differ) compareClasses(path string, ca, cb *ClassRecord) {
	if ca.Info.Name != cb.Info.Name {
		d.modified(path, ca.Info.Name, cb.Info.Name)
		return
	}

	key := [2]int32{ca.Info.ObjectID, cb.Info.ObjectID}
	if d.visited[key] {
		return
	}
	d.visited[key] = true

	inB := make(map[string]bool, len(cb.Info.MemberNames))
	for _, name := range cb.Info.MemberNames {
		inB[name] = true
	}

	for _, name := range ca.Info.MemberNames {
		va, _ := ca.Member(name)
		if !inB[name] {
			d.changes = append(d.changes, FieldChange{
				Path: joinPath(path, name),
				Kind: ChangeRemoved,
				Old:  valueSummary(resolveForDiff(d.a, va)),
			})
			continue
		}
		vb, _ := cb.Member(name)
		d.compare(joinPath(path, name), va, vb)
	}
	inA := make(map[string]bool, len(ca.Info.MemberNames))
	for _, name := range ca.Info.MemberNames {
		inA[name] = true
	}
	for _, name := range cb.Info.MemberNames {
		if inA[name] {
			continue
		}
		vb, _ := cb.Member(name)
		d.changes = append(d.changes, FieldChange{
			Path: joinPath(path, name),
			Kind: ChangeAdded,
			New:  valueSummary(resolveForDiff(d.b, vb)),
		})
	}
}

func (d *differ) compareArrays(path string, aa, ab *ArrayRecord) {
	la, lb := len(aa.slots), len(ab.slots)
	max := la
	if lb > max {
		max = lb
	}
	for i := 0; i < max; i++ {
		p := fmt.Sprintf("%s[%d]", path, i)
		switch {
		case i >= lb:
			d.changes = append(d.changes, FieldChange{
				Path: p,
				Kind: ChangeRemoved,
				Old:  valueSummary(resolveForDiff(d.a, aa.slots[i])),
			})
		case i >= la:
			d.changes = append(d.changes, FieldChange{
				Path: p,
				Kind: ChangeAdded,
				New:  valueSummary(resolveForDiff(d.b, ab.slots[i])),
			})
		default:
			d.compare(p, aa.slots[i], ab.slots[i])
		}
	}
}

// resolveForDiff follows one reference hop; an unresolvable reference
// is kept as-is and surfaces through valueSummary.
func resolveForDiff(doc *Document, v *Value) *Value {
	if doc == nil || v == nil {
		return v
	}
	resolved, err := doc.Resolve(v)
	if err != nil {
		doc.logger.Warn("dangling reference in diff", "err", err)
		return v
	}
	return resolved
}

// leafText returns the canonical text of primitive-like values:
// primitives, object strings, and GUID class records.
func leafText(v *Value) (string, bool) {
	if p, ok := v.Primitive(); ok {
		return p.Text(), true
	}
	rec, ok := v.Record()
	if !ok {
		return "", false
	}
	if s, isStr := rec.ObjectString(); isStr {
		return s.Value, true
	}
	if c, isClass := rec.Class(); isClass && IsGuidClass(c) {
		if text, err := GuidText(c); err == nil {
			return text, true
		}
	}
	return "", false
}

// valueSummary is the one-line form used in Old/New for non-leaf
// values.
func valueSummary(v *Value) string {
	switch v.Kind() {
	case ValueNull:
		return "null"
	case ValuePrimitive:
		p, _ := v.Primitive()
		return p.Text()
	case ValueReference:
		id, _ := v.ReferenceID()
		return fmt.Sprintf("^%d", id)
	case ValueRecord:
		rec, _ := v.Record()
		if s, ok := rec.ObjectString(); ok {
			return s.Value
		}
		if c, ok := rec.Class(); ok {
			if IsGuidClass(c) {
				if text, err := GuidText(c); err == nil {
					return text
				}
			}
			return c.Info.Name
		}
		if a, ok := rec.Array(); ok {
			return fmt.Sprintf("array[%d]", a.Length())
		}
		return rec.Kind().String()
	}
	return ""
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}
