package compiler

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/prism-go/common"
)

// ErrorKind classifies a deterministic compile-time fault. Every fault aborts the
// current file's compilation immediately; there is no retry semantics and no partial
// output is ever emitted for a failed file.
type ErrorKind int

const (
	// KindMalformedAttribute indicates an unrecognized marker kind, direction, or
	// marker argument.
	KindMalformedAttribute ErrorKind = iota

	// KindMissingStructBody indicates a marker that is not immediately followed by a
	// struct literal and instance name.
	KindMissingStructBody

	// KindUnknownFieldReference indicates code referencing instance.field for a
	// field not declared in that instance's block.
	KindUnknownFieldReference

	// KindBindingCollision indicates two uniform blocks in the same set claiming the
	// same explicit binding.
	KindBindingCollision

	// KindStageInterfaceMismatch indicates adjacent stages whose generated
	// interfaces disagree in name, type, or order.
	KindStageInterfaceMismatch

	// KindUnsupportedType indicates a uniform field type with no defined std140
	// layout rule, or a vertex input type with no attribute format.
	KindUnsupportedType

	// KindMalformedDirective indicates an unbalanced or unrecognizable conditional
	// directive (#if/#elif/#else/#endif).
	KindMalformedDirective

	// KindUnknownInclude indicates an #include naming no registered library snippet.
	KindUnknownInclude
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformedAttribute:
		return "MalformedAttribute"
	case KindMissingStructBody:
		return "MissingStructBody"
	case KindUnknownFieldReference:
		return "UnknownFieldReference"
	case KindBindingCollision:
		return "BindingCollision"
	case KindStageInterfaceMismatch:
		return "StageInterfaceMismatch"
	case KindUnsupportedType:
		return "UnsupportedType"
	case KindMalformedDirective:
		return "MalformedDirective"
	case KindUnknownInclude:
		return "UnknownInclude"
	default:
		return "Unknown"
	}
}

// Error is a located compile-time fault. Line is 1-based in the original source;
// Stage is the stage whose compilation surfaced the fault (meaningful only when
// HasStage is true, since marker parse faults precede stage resolution in linker
// errors spanning two stages).
type Error struct {
	// Kind classifies the fault.
	Kind ErrorKind

	// Line is the 1-based source line the fault was located at, 0 if not line-bound.
	Line int

	// Stage is the stage being compiled when the fault surfaced.
	Stage common.Stage

	// HasStage reports whether Stage carries meaning for this fault.
	HasStage bool

	// Message is the human-readable description of the fault.
	Message string
}

func (e *Error) Error() string {
	prefix := ""
	if e.HasStage {
		prefix = e.Stage.ShortName() + ": "
	}
	if e.Line > 0 {
		return fmt.Sprintf("%sline %d: %s [%s]", prefix, e.Line, e.Message, e.Kind)
	}
	return fmt.Sprintf("%s%s [%s]", prefix, e.Message, e.Kind)
}

// newError constructs a located Error without stage context.
func newError(kind ErrorKind, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Line: line, Message: fmt.Sprintf(format, args...)}
}

// withStage returns a copy of the error annotated with the compiling stage. Errors
// that already carry a stage are returned unchanged.
func (e *Error) withStage(stage common.Stage) *Error {
	if e.HasStage {
		return e
	}
	c := *e
	c.Stage = stage
	c.HasStage = true
	return &c
}

// IsKind reports whether err is (or wraps) a compiler Error of the given kind.
//
// Parameters:
//   - err: the error to inspect
//   - kind: the error kind to test for
//
// Returns:
//   - bool: true if err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}
