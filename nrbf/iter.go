package nrbf

import (
	"fmt"
	"iter"
)

// Walk visits every (path, value) pair reachable from the root in
// pre-order and calls fn for each. Returning false stops the walk.
// Cycles are cut with a visited set keyed by object id: a reference
// whose referent was already visited is yielded as the reference
// itself (a back-edge) and not followed. Dangling references are
// logged and yielded unresolved.
func (d *Document) Walk(fn func(path string, v *Value) bool) {
	if d.root == nil {
		return
	}
	w := &walker{doc: d, fn: fn, visited: make(map[int32]bool)}
	if id, ok := d.root.ObjectID(); ok {
		w.visited[id] = true
	}
	w.record("", d.root)
}

// Iter returns a lazy (path, value) sequence over the document. The
// sequence is finite and single-use; call Iter again for a fresh
// traversal.
func (d *Document) Iter() iter.Seq2[string, *Value] {
	return func(yield func(string, *Value) bool) {
		d.Walk(yield)
	}
}

type walker struct {
	doc     *Document
	fn      func(path string, v *Value) bool
	visited map[int32]bool
	stopped bool
}

func (w *walker) emit(path string, v *Value) bool {
	if w.stopped {
		return false
	}
	if !w.fn(path, v) {
		w.stopped = true
		return false
	}
	return true
}

func (w *walker) record(path string, rec *Record) {
	if c, ok := rec.Class(); ok {
		for _, m := range c.Members() {
			w.value(joinPath(path, m.Name), m.Value)
			if w.stopped {
				return
			}
		}
		return
	}
	if a, ok := rec.Array(); ok {
		for i, v := range a.slots {
			w.value(fmt.Sprintf("%s[%d]", path, i), v)
			if w.stopped {
				return
			}
		}
	}
}

func (w *walker) value(path string, v *Value) {
	if v == nil {
		v = NullValue()
	}
	if !w.emit(path, v) {
		return
	}

	rec, ok := v.Record()
	if !ok {
		if id, isRef := v.ReferenceID(); isRef {
			target, found := w.doc.identity[id]
			if !found {
				w.doc.logger.Warn("dangling reference", "path", path, "id", id)
				return
			}
			if w.visited[id] {
				// Back-edge: already yielded above, do not recurse.
				return
			}
			w.visited[id] = true
			w.record(path, target)
		}
		return
	}

	if id, hasID := rec.ObjectID(); hasID {
		if w.visited[id] {
			return
		}
		w.visited[id] = true
	}
	w.record(path, rec)
}
