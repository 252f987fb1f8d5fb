package nrbf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diffBytes returns the indices at which two equal-length buffers
// differ.
func diffBytes(t *testing.T, a, b []byte) []int {
	t.Helper()
	require.Equal(t, len(a), len(b), "buffer lengths differ")
	var idx []int
	for i := range a {
		if a[i] != b[i] {
			idx = append(idx, i)
		}
	}
	return idx
}

func TestRoundTripPristine(t *testing.T) {
	for name, stream := range map[string][]byte{
		"s1":   s1Stream(),
		"s2":   s2Stream(),
		"s3":   s3Stream(),
		"s4":   s4Stream(),
		"guid": guidStream(),
		"nest": nestedStream(1000),
	} {
		t.Run(name, func(t *testing.T) {
			doc, err := Decode(stream)
			require.NoError(t, err)
			out, err := Encode(doc)
			require.NoError(t, err)
			assert.Equal(t, stream, out)
		})
	}
}

func TestEditChangesOnlyValueBytes(t *testing.T) {
	stream := s1Stream()
	doc, err := Decode(stream)
	require.NoError(t, err)

	require.NoError(t, doc.SetPrimitive("X", "43"))
	out, err := Encode(doc)
	require.NoError(t, err)

	idx := diffBytes(t, stream, out)
	require.Len(t, idx, 1, "only the low byte of X should change")
	assert.Equal(t, byte(43), out[idx[0]])

	// Re-decode sees the new value.
	doc2, err := Decode(out)
	require.NoError(t, err)
	v := doc2.Get("X")
	require.NotNil(t, v)
	p, _ := v.Primitive()
	assert.Equal(t, "43", p.Text())
}

func TestReferencePreservedAcrossSave(t *testing.T) {
	stream := s2Stream()
	doc, err := Decode(stream)
	require.NoError(t, err)

	out, err := Encode(doc)
	require.NoError(t, err)
	require.Equal(t, stream, out)

	doc2, err := Decode(out)
	require.NoError(t, err)
	c, _ := doc2.Root().Class()
	v, _ := c.Member("B")
	_, isRef := v.ReferenceID()
	assert.True(t, isRef, "reference must survive the round trip")

	resolved, err := doc2.Resolve(v)
	require.NoError(t, err)
	rec, _ := resolved.Record()
	s, _ := rec.ObjectString()
	assert.Equal(t, "hi", s.Value)
}

func TestClassWithIDEditIsLocal(t *testing.T) {
	stream := s3Stream()
	doc, err := Decode(stream)
	require.NoError(t, err)

	require.NoError(t, doc.SetPrimitive("[3].y", "-2.5"))
	out, err := Encode(doc)
	require.NoError(t, err)

	idx := diffBytes(t, stream, out)
	require.NotEmpty(t, idx)
	assert.Less(t, idx[len(idx)-1]-idx[0], 4, "changes confined to the four bytes of one Single")

	doc2, err := Decode(out)
	require.NoError(t, err)
	v := doc2.Get("[3].y")
	require.NotNil(t, v)
	p, _ := v.Primitive()
	assert.Equal(t, "-2.5", p.Text())

	// The sibling instances are untouched.
	for _, path := range []string{"[1].y", "[2].y", "[4].y"} {
		v := doc2.Get(path)
		require.NotNil(t, v, path)
		p, _ := v.Primitive()
		assert.Equal(t, "1", p.Text(), path)
	}
}

func TestNullRunReemittedVerbatim(t *testing.T) {
	stream := s4Stream()
	doc, err := Decode(stream)
	require.NoError(t, err)

	out, err := Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, stream, out, "ObjectNullMultiple must not expand into ObjectNulls")
}

func TestEditIdempotence(t *testing.T) {
	doc, err := Decode(s1Stream())
	require.NoError(t, err)

	require.NoError(t, doc.SetPrimitive("X", "77"))
	first, err := Encode(doc)
	require.NoError(t, err)

	require.NoError(t, doc.SetPrimitive("X", "77"))
	second, err := Encode(doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEncodeWithRootOverride(t *testing.T) {
	doc, err := Decode(s2Stream())
	require.NoError(t, err)

	out, err := EncodeWithRoot(doc, 7)
	require.NoError(t, err)

	doc2, err := Decode(out)
	require.NoError(t, err)
	s, ok := doc2.Root().ObjectString()
	require.True(t, ok)
	assert.Equal(t, "hi", s.Value)
}

func TestEncodeStructuralFallback(t *testing.T) {
	// A synthetic document with no emission order: the encoder falls
	// back to a structural walk that must re-decode equivalently.
	doc := newDocument()
	doc.Header = Header{RootID: 1, HeaderID: -1, Major: 1, Minor: 0}

	c := newClassRecord(ClassInfo{ObjectID: 1, Name: "Root", MemberNames: []string{"Count", "Label"}})
	c.WireKind = KindSystemClassWithMembersAndTypes
	c.Types = []MemberType{
		{Tag: TypePrimitive, Primitive: PrimInt32},
		{Tag: TypeString},
	}
	c.bindMember("Count", PrimitiveValue(Int32(9)))
	c.bindMember("Label", ReferenceValue(2))

	str := &StringRecord{ObjectID: 2, Value: "label"}
	rootRec := classRecordHandle(c)
	doc.identity[1] = rootRec
	doc.identity[2] = stringRecordHandle(str)
	doc.root = rootRec

	out, err := Encode(doc)
	require.NoError(t, err)

	doc2, err := Decode(out)
	require.NoError(t, err)
	v := doc2.Get("Count")
	require.NotNil(t, v)
	p, _ := v.Primitive()
	assert.Equal(t, "9", p.Text())

	label := doc2.Get("Label")
	require.NotNil(t, label)
	rec, ok := label.Record()
	require.True(t, ok)
	s, ok := rec.ObjectString()
	require.True(t, ok)
	assert.Equal(t, "label", s.Value)
}

func TestEncodeFailures(t *testing.T) {
	t.Run("unresolvable reference", func(t *testing.T) {
		doc, err := Decode(s2Stream())
		require.NoError(t, err)
		// Drop the referent from the identity map.
		delete(doc.identity, 7)
		_, err = Encode(doc)
		assert.True(t, IsKind(err, ErrUnresolvableReference), "got %v", err)
	})

	t.Run("inconsistent array length", func(t *testing.T) {
		doc, err := Decode(s4Stream())
		require.NoError(t, err)
		a, _ := doc.Root().Array()
		a.slots = a.slots[:9]
		_, err = Encode(doc)
		assert.True(t, IsKind(err, ErrInconsistentArrayLength), "got %v", err)
	})

	t.Run("member type violation", func(t *testing.T) {
		doc, err := Decode(s1Stream())
		require.NoError(t, err)
		c, _ := doc.Root().Class()
		c.bindMember("X", PrimitiveValue(Double(1.5)))
		_, err = Encode(doc)
		assert.True(t, IsKind(err, ErrMissingTypeInfo), "got %v", err)
	})
}
