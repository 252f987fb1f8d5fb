package nrbf

import (
	"errors"
	"fmt"
)

// ErrorKind identifies one of the closed set of failure modes.
type ErrorKind uint8

const (
	// Decode failures.
	ErrBadHeader ErrorKind = iota
	ErrUnexpectedEOF
	ErrUnknownRecordTag
	ErrUnknownPrimitiveTag
	ErrUnknownBinaryTypeTag
	ErrUnknownArrayShapeTag
	ErrVarIntOverflow
	ErrMalformedString
	ErrDuplicateObjectID
	ErrUnknownMetadataID
	ErrRecordBudgetExceeded
	ErrRootNotFound

	// Encode failures.
	ErrUnresolvableReference
	ErrMissingTypeInfo
	ErrIntegerOutOfRange
	ErrInconsistentArrayLength

	// Edit and traversal failures.
	ErrTypeMismatch
	ErrDanglingReference
	ErrInvalidGuidFormat
	ErrNotEditable
	ErrPathNotFound
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrBadHeader:
		return "BadHeader"
	case ErrUnexpectedEOF:
		return "UnexpectedEof"
	case ErrUnknownRecordTag:
		return "UnknownRecordTag"
	case ErrUnknownPrimitiveTag:
		return "UnknownPrimitiveTag"
	case ErrUnknownBinaryTypeTag:
		return "UnknownBinaryTypeTag"
	case ErrUnknownArrayShapeTag:
		return "UnknownArrayShapeTag"
	case ErrVarIntOverflow:
		return "VarIntOverflow"
	case ErrMalformedString:
		return "MalformedString"
	case ErrDuplicateObjectID:
		return "DuplicateObjectId"
	case ErrUnknownMetadataID:
		return "UnknownMetadataId"
	case ErrRecordBudgetExceeded:
		return "RecordBudgetExceeded"
	case ErrRootNotFound:
		return "RootNotFound"
	case ErrUnresolvableReference:
		return "UnresolvableReference"
	case ErrMissingTypeInfo:
		return "MissingTypeInfo"
	case ErrIntegerOutOfRange:
		return "EncodeIntegerOutOfRange"
	case ErrInconsistentArrayLength:
		return "InconsistentArrayLength"
	case ErrTypeMismatch:
		return "TypeMismatch"
	case ErrDanglingReference:
		return "DanglingReference"
	case ErrInvalidGuidFormat:
		return "InvalidGuidFormat"
	case ErrNotEditable:
		return "NotEditable"
	case ErrPathNotFound:
		return "PathNotFound"
	default:
		return "Unknown"
	}
}

// Error is the failure value produced by every operation in this
// package. Offset is the byte offset into the source buffer where a
// decode failure was detected (-1 when not applicable); Path is the
// dotted path for edit and lookup failures.
type Error struct {
	Kind    ErrorKind
	Message string
	Offset  int    // byte offset, -1 if not applicable
	Path    string // dotted path, "" if not applicable
}

func (e *Error) Error() string {
	switch {
	case e.Path != "":
		return fmt.Sprintf("nrbf: %s: %s (path %s)", e.Kind, e.Message, e.Path)
	case e.Offset >= 0:
		return fmt.Sprintf("nrbf: %s: %s (offset %d)", e.Kind, e.Message, e.Offset)
	default:
		return fmt.Sprintf("nrbf: %s: %s", e.Kind, e.Message)
	}
}

// KindOf returns the ErrorKind carried by err, or (0, false) when err
// does not come from this package.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func errf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Offset: -1}
}

func errAt(kind ErrorKind, offset int, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Offset: offset}
}

func errPath(kind ErrorKind, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Offset: -1, Path: path}
}
