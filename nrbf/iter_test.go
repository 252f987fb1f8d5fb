package nrbf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkYieldsAllPaths(t *testing.T) {
	doc, err := Decode(nestedStream(1000))
	require.NoError(t, err)

	var paths []string
	doc.Walk(func(path string, v *Value) bool {
		paths = append(paths, path)
		return true
	})
	assert.Equal(t, []string{"Player", "Player.Stats", "Player.Stats.XP"}, paths)
}

func TestWalkStops(t *testing.T) {
	doc, err := Decode(nestedStream(1000))
	require.NoError(t, err)

	var count int
	doc.Walk(func(path string, v *Value) bool {
		count++
		return count < 2
	})
	assert.Equal(t, 2, count)
}

func TestIterIsFreshPerCall(t *testing.T) {
	doc, err := Decode(s3Stream())
	require.NoError(t, err)

	countOnce := func() int {
		n := 0
		for range doc.Iter() {
			n++
		}
		return n
	}
	first := countOnce()
	second := countOnce()
	assert.Equal(t, first, second)
	// 5 elements plus 3 members each.
	assert.Equal(t, 20, first)
}

func TestWalkCutsCycles(t *testing.T) {
	// Two classes referencing each other: A.next -> B, B.next -> A.
	f := newFixture(1, -1)
	f.b(byte(KindSystemClassWithMembersAndTypes))
	f.classInfo(1, "Node", "next")
	f.b(byte(TypeSystemClass))
	f.str("Node")
	f.b(byte(KindClassWithID))
	f.i32(2)
	f.i32(1)
	f.b(byte(KindMemberReference))
	f.i32(1)

	doc, err := Decode(f.end())
	require.NoError(t, err)

	var paths []string
	doc.Walk(func(path string, v *Value) bool {
		paths = append(paths, path)
		return true
	})
	// next (the nested node) and next.next (the back-edge reference),
	// then the walk terminates instead of recursing forever.
	assert.Equal(t, []string{"next", "next.next"}, paths)
}

func TestWalkDanglingReferenceSurfaced(t *testing.T) {
	f := newFixture(1, -1)
	f.b(byte(KindSystemClassWithMembersAndTypes))
	f.classInfo(1, "Holder", "Ref")
	f.b(byte(TypeObject))
	f.b(byte(KindMemberReference))
	f.i32(99)

	doc, err := Decode(f.end())
	require.NoError(t, err)

	var got *Value
	doc.Walk(func(path string, v *Value) bool {
		if path == "Ref" {
			got = v
		}
		return true
	})
	require.NotNil(t, got)
	id, isRef := got.ReferenceID()
	assert.True(t, isRef, "unresolved reference is yielded as-is")
	assert.Equal(t, int32(99), id)
}
