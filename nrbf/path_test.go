package nrbf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	cases := map[string][]pathSegment{
		"A":        {{name: "A", hasName: true}},
		"A.B":      {{name: "A", hasName: true}, {name: "B", hasName: true}},
		"A[3]":     {{name: "A", hasName: true}, {index: 3, hasIndex: true}},
		"[0]":      {{index: 0, hasIndex: true}},
		"A.B[1].C": {{name: "A", hasName: true}, {name: "B", hasName: true}, {index: 1, hasIndex: true}, {name: "C", hasName: true}},
		"[2][4]":   {{index: 2, hasIndex: true}, {index: 4, hasIndex: true}},
	}
	for path, want := range cases {
		t.Run(path, func(t *testing.T) {
			got, err := parsePath(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	for _, bad := range []string{"", ".", "A..B", "A[", "A[x]", "A[-1]", "A[1"} {
		_, err := parsePath(bad)
		assert.Error(t, err, "%q should not parse", bad)
	}
}

func TestGetFollowsReferences(t *testing.T) {
	doc, err := Decode(s2Stream())
	require.NoError(t, err)

	// B is stored as a reference; Get resolves the final hop.
	v := doc.Get("B")
	require.NotNil(t, v)
	rec, ok := v.Record()
	require.True(t, ok)
	s, ok := rec.ObjectString()
	require.True(t, ok)
	assert.Equal(t, "hi", s.Value)

	// GetRaw keeps the reference.
	raw := doc.GetRaw("B")
	require.NotNil(t, raw)
	id, isRef := raw.ReferenceID()
	require.True(t, isRef)
	assert.Equal(t, int32(7), id)
}

func TestGetNotFoundIsNil(t *testing.T) {
	doc, err := Decode(nestedStream(1000))
	require.NoError(t, err)

	for _, path := range []string{
		"Missing",
		"Player.Missing",
		"Player.Stats.XP.Deeper", // member lookup on a primitive
		"Player[0]",              // indexing into a class
		"Player.Stats.XP[0]",
	} {
		assert.Nil(t, doc.Get(path), path)
	}
}

func TestGetNestedAndIndexed(t *testing.T) {
	doc, err := Decode(nestedStream(1000))
	require.NoError(t, err)

	v := doc.Get("Player.Stats.XP")
	require.NotNil(t, v)
	p, ok := v.Primitive()
	require.True(t, ok)
	assert.Equal(t, "1000", p.Text())

	arr, err := Decode(s3Stream())
	require.NoError(t, err)
	v = arr.Get("[2].z")
	require.NotNil(t, v)
	p, ok = v.Primitive()
	require.True(t, ok)
	assert.Equal(t, "1", p.Text())
}

func TestSetPrimitiveErrors(t *testing.T) {
	doc, err := Decode(nestedStream(1000))
	require.NoError(t, err)

	err = doc.SetPrimitive("Player.Stats.Nope", "1")
	assert.True(t, IsKind(err, ErrPathNotFound), "got %v", err)

	err = doc.SetPrimitive("Player.Stats", "1")
	assert.True(t, IsKind(err, ErrNotEditable), "got %v", err)

	err = doc.SetPrimitive("Player.Stats.XP", "not-a-number")
	assert.True(t, IsKind(err, ErrTypeMismatch), "got %v", err)

	// Out-of-range for Int32.
	err = doc.SetPrimitive("Player.Stats.XP", "9999999999")
	assert.True(t, IsKind(err, ErrTypeMismatch), "got %v", err)

	// Failed edits leave the value untouched.
	v := doc.Get("Player.Stats.XP")
	p, _ := v.Primitive()
	assert.Equal(t, "1000", p.Text())
}

func TestSetString(t *testing.T) {
	doc, err := Decode(s2Stream())
	require.NoError(t, err)

	require.NoError(t, doc.SetString("B", "bye"))
	out, err := Encode(doc)
	require.NoError(t, err)

	doc2, err := Decode(out)
	require.NoError(t, err)
	v := doc2.Get("B")
	rec, _ := v.Record()
	s, ok := rec.ObjectString()
	require.True(t, ok)
	assert.Equal(t, "bye", s.Value)
	assert.Equal(t, int32(7), s.ObjectID, "object id must be kept")
}

func TestSetPrimitiveValueKindChecked(t *testing.T) {
	doc, err := Decode(s1Stream())
	require.NoError(t, err)

	err = doc.SetPrimitiveValue("X", Double(1.5))
	assert.True(t, IsKind(err, ErrTypeMismatch), "got %v", err)

	require.NoError(t, doc.SetPrimitiveValue("X", Int32(7)))
	v := doc.Get("X")
	p, _ := v.Primitive()
	assert.Equal(t, "7", p.Text())
}
