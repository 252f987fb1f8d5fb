package nrbf

import (
	"strconv"
	"strings"
)

// pathSegment is one step of a dotted path: a member name, an element
// index, or both ("name[i]").
type pathSegment struct {
	name     string
	index    int
	hasName  bool
	hasIndex bool
}

// parsePath splits "A.B[3].C" into segments. A segment may be "name",
// "name[i]", or "[i]". Malformed paths fail with PathNotFound: a path
// that cannot be parsed cannot address anything.
func parsePath(path string) ([]pathSegment, error) {
	if path == "" {
		return nil, errPath(ErrPathNotFound, path, "empty path")
	}
	var segs []pathSegment
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, errPath(ErrPathNotFound, path, "empty segment")
		}
		name := part
		for {
			open := strings.IndexByte(name, '[')
			if open < 0 {
				if name != "" {
					segs = append(segs, pathSegment{name: name, hasName: true})
				}
				break
			}
			closing := strings.IndexByte(name, ']')
			if closing < open {
				return nil, errPath(ErrPathNotFound, path, "unbalanced brackets in %q", part)
			}
			if open > 0 {
				segs = append(segs, pathSegment{name: name[:open], hasName: true})
			}
			idx, err := strconv.Atoi(name[open+1 : closing])
			if err != nil || idx < 0 {
				return nil, errPath(ErrPathNotFound, path, "bad index in %q", part)
			}
			segs = append(segs, pathSegment{index: idx, hasIndex: true})
			name = name[closing+1:]
		}
	}
	if len(segs) == 0 {
		return nil, errPath(ErrPathNotFound, path, "no segments")
	}
	return segs, nil
}

// Get resolves a dotted path from the document root and returns the
// value, or nil when any step does not resolve. References are
// followed one hop per step; the final value is resolved once more
// before being returned, so a path addressing a reference yields the
// referent.
func (d *Document) Get(path string) *Value {
	v := d.GetRaw(path)
	if v == nil {
		return nil
	}
	resolved, err := d.Resolve(v)
	if err != nil {
		d.logger.Warn("dangling reference at path end", "path", path, "err", err)
		return v
	}
	return resolved
}

// GetRaw resolves a dotted path like Get but does not resolve a
// trailing reference: the slot's stored value is returned as-is. The
// edit API uses this to mutate slots in place.
func (d *Document) GetRaw(path string) *Value {
	segs, err := parsePath(path)
	if err != nil {
		return nil
	}
	if d.root == nil {
		return nil
	}
	return d.walkPath(RecordValue(d.root), segs, path)
}

func (d *Document) walkPath(v *Value, segs []pathSegment, path string) *Value {
	for _, seg := range segs {
		resolved, err := d.Resolve(v)
		if err != nil {
			d.logger.Warn("dangling reference on path", "path", path, "err", err)
			return nil
		}
		v = resolved

		rec, ok := v.Record()
		if !ok {
			return nil
		}

		var next *Value
		if seg.hasName {
			c, isClass := rec.Class()
			if !isClass {
				return nil
			}
			member, found := c.Member(seg.name)
			if !found {
				return nil
			}
			next = member
			if seg.hasIndex {
				// "name[i]": resolve the member, then index into it.
				next = d.indexInto(next, seg.index, path)
				if next == nil {
					return nil
				}
			}
		} else {
			next = d.indexInto(v, seg.index, path)
			if next == nil {
				return nil
			}
		}

		v = next
	}
	return v
}

// indexInto resolves v (one hop) and indexes into the array record.
func (d *Document) indexInto(v *Value, index int, path string) *Value {
	resolved, err := d.Resolve(v)
	if err != nil {
		d.logger.Warn("dangling reference on path", "path", path, "err", err)
		return nil
	}
	rec, ok := resolved.Record()
	if !ok {
		return nil
	}
	a, isArray := rec.Array()
	if !isArray {
		return nil
	}
	elem, ok := a.Element(index)
	if !ok {
		return nil
	}
	return elem
}
