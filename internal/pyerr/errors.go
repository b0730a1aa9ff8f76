// Package pyerr implements the exception taxonomy of spec §7: the
// user-visible Python exception kinds, plus the two internal signals
// (EmptyOp, InterpreterError) that must never escape the core intact.
package pyerr

import "fmt"

// Kind names a Python exception class. The hierarchy mirrors Python's
// (e.g. UnboundLocalError is-a NameError) without modeling a full
// class hierarchy: IsNameError/IsKind helpers express the "is-a"
// relationships the CORE actually depends on.
type Kind string

const (
	TypeError           Kind = "TypeError"
	ValueError          Kind = "ValueError"
	AttributeError      Kind = "AttributeError"
	NameError           Kind = "NameError"
	UnboundLocalError   Kind = "UnboundLocalError" // subtype of NameError
	IndexError          Kind = "IndexError"
	KeyError            Kind = "KeyError"
	OverflowError       Kind = "OverflowError"
	SystemErrorKind     Kind = "SystemError"
	NotImplementedError Kind = "NotImplementedError"
	DeprecationWarning  Kind = "DeprecationWarning"
)

// PyError is a raised, user-visible Python exception.
type PyError struct {
	Kind    Kind
	Message string
}

func (e *PyError) Error() string { return string(e.Kind) + ": " + e.Message }

func newf(kind Kind, format string, args ...any) *PyError {
	return &PyError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewTypeError(format string, args ...any) *PyError { return newf(TypeError, format, args...) }
func NewValueError(format string, args ...any) *PyError { return newf(ValueError, format, args...) }
func NewAttributeError(format string, args ...any) *PyError {
	return newf(AttributeError, format, args...)
}
func NewNameError(format string, args ...any) *PyError { return newf(NameError, format, args...) }
func NewUnboundLocalError(format string, args ...any) *PyError {
	return newf(UnboundLocalError, format, args...)
}
func NewIndexError(format string, args ...any) *PyError { return newf(IndexError, format, args...) }
func NewKeyError(format string, args ...any) *PyError    { return newf(KeyError, format, args...) }
func NewOverflowError(format string, args ...any) *PyError {
	return newf(OverflowError, format, args...)
}
func NewSystemError(format string, args ...any) *PyError {
	return newf(SystemErrorKind, format, args...)
}
func NewNotImplementedError(format string, args ...any) *PyError {
	return newf(NotImplementedError, format, args...)
}
func NewDeprecationWarning(format string, args ...any) *PyError {
	return newf(DeprecationWarning, format, args...)
}

// As extracts a *PyError from err by direct type assertion (err must
// itself be a *PyError); wrapped errors are not unwrapped.
func As(err error) (*PyError, bool) {
	pe, ok := err.(*PyError)
	return pe, ok
}

// IsKind reports whether err is a *PyError of exactly kind.
func IsKind(err error, kind Kind) bool {
	pe, ok := As(err)
	return ok && pe.Kind == kind
}

// IsNameError reports whether err is a NameError or its
// UnboundLocalError subtype.
func IsNameError(err error) bool {
	pe, ok := As(err)
	return ok && (pe.Kind == NameError || pe.Kind == UnboundLocalError)
}

// emptyOpError is raised internally when an empty (unimplemented)
// slot is invoked. It MUST be caught and translated by the abstract
// operations layer (spec §4.D) before reaching user code.
type emptyOpError struct{ slot string }

func (e *emptyOpError) Error() string { return "EmptyOp: " + e.slot }

// EmptyOp constructs the internal empty-slot signal for the named
// slot (its spec §4.B conventional method name, e.g. "__add__").
func EmptyOp(slot string) error { return &emptyOpError{slot: slot} }

// AsEmptyOp reports whether err is the EmptyOp signal for slot.
func AsEmptyOp(err error) (slot string, ok bool) {
	e, ok := err.(*emptyOpError)
	if !ok {
		return "", false
	}
	return e.slot, true
}

// internalError signals an interpreter-invariant violation (bad slot
// signature, corrupt bytecode, etc). It is fatal to the current call
// and must never be presented to user code as a Python exception
// without being wrapped (spec §7 "InterpreterError").
type internalError struct{ msg string }

func (e *internalError) Error() string { return "InterpreterError: " + e.msg }

// Internal constructs an InterpreterError.
func Internal(format string, args ...any) error {
	return &internalError{msg: fmt.Sprintf(format, args...)}
}

// IsInternal reports whether err is an InterpreterError.
func IsInternal(err error) bool {
	_, ok := err.(*internalError)
	return ok
}
