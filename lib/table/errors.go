package table

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

type Code uint64

const (
	// CodeInvalidHandle marks an operation on a nil, never-created or already
	// destroyed table handle.
	CodeInvalidHandle Code = iota + 1
	// CodeInvalidKey marks a malformed string key (empty, or starting with a
	// NUL byte).
	CodeInvalidKey
	// CodeKeyNotFound marks a lookup or delete on an absent key, and the
	// release of a snapshot that was never registered.
	CodeKeyNotFound
	// CodeOutOfMemory is part of the documented surface for completeness; the
	// Go runtime aborts the process on real allocation failure, so this code
	// is not produced by the engine itself.
	CodeOutOfMemory
	// CodeSizeOverflow marks a capacity or resize whose bucket array would
	// exceed the addressable limit.
	CodeSizeOverflow
	// CodeConfiguration marks invalid call parameters, such as a zero initial
	// capacity or an empty copy-mode value.
	CodeConfiguration
)

func (c Code) String() string {
	switch c {
	case CodeInvalidHandle:
		return "InvalidHandle"
	case CodeInvalidKey:
		return "InvalidKey"
	case CodeKeyNotFound:
		return "KeyNotFound"
	case CodeOutOfMemory:
		return "OutOfMemory"
	case CodeSizeOverflow:
		return "SizeOverflow"
	case CodeConfiguration:
		return "ConfigurationError"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// Error is the error type returned by every fallible operation. It carries a
// code for programmatic handling and the name of the failing operation for
// diagnostics (also retrievable process-wide via LastFailedOp).
type Error struct {
	Code Code   // the error kind
	Op   string // name of the failing operation, e.g. "table.Set"
	Msg  string // human readable detail
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s failed (%s): %s", e.Op, e.Code, e.Msg)
}

func newError(code Code, op, format string, args ...any) *Error {
	return &Error{
		Code: code,
		Op:   op,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// CodeOf returns the code carried by err, or 0 if err is nil or not an *Error
// from this package.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
