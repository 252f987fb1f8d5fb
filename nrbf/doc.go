// Package nrbf implements a codec for the .NET Binary Format (NRBF),
// the record-oriented serialization produced by the legacy
// BinaryFormatter and commonly found in game save files.
//
// The package is built around three pieces:
//   - A decoder that parses a byte buffer into a typed record graph
//     with resolved identities (Decode).
//   - A Document that owns the graph and exposes structural queries,
//     path lookup, and targeted edits that preserve every non-edited
//     bit of the source stream.
//   - An encoder that re-emits the stream (Encode). For an unedited
//     document the output is byte-for-byte identical to the input.
//
// # Data Model
//
// A stream is a framing header, a sequence of tagged records, and a
// terminator. Records carry class instances, arrays, strings, library
// declarations, inline primitives, nulls, and back-references. The
// decoder keeps references as references: a MemberReference is never
// substituted by its referent at decode time, only by an explicit
// Resolve call. This is what makes byte-exact round-trips possible.
//
// # Paths
//
// Leaf values are addressed with dotted paths such as
// "Player.Stats.XP" or "Inventory.Items[3].Count". Each step follows
// at most one reference hop transparently.
//
// # Editing
//
// SetPrimitive, SetString, and SetGuid mutate a single leaf in place.
// Structural edits (adding members, resizing arrays) are not
// supported; the written stream stays minimally different from the
// source so the original consumer accepts it.
package nrbf
