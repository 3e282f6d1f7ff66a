// Package errors provides structured error handling for the intersection binding.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindCardinality indicates a wrapper was given other than exactly one child.
	KindCardinality
	// KindTarget indicates a child could not be resolved to a render object.
	KindTarget
	// KindConfiguration indicates malformed observer options.
	KindConfiguration
	// KindEntryShape indicates a change entry lacking a required field.
	KindEntryShape
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindCardinality:
		return "cardinality"
	case KindTarget:
		return "target"
	case KindConfiguration:
		return "configuration"
	case KindEntryShape:
		return "entry-shape"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Error is a reported failure with the operation that produced it.
type Error struct {
	// Op is the operation that failed (e.g., "registry.Observe").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap builds an Error for op, classifying err with KindOf.
func Wrap(op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: KindOf(err), Err: err}
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "registry.dispatch").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ChildCardinalityError is returned when a single-child wrapper receives
// zero or several children.
type ChildCardinalityError struct {
	// Widget is the wrapper type name.
	Widget string
	// Count is the number of children supplied.
	Count int
}

func (e *ChildCardinalityError) Error() string {
	return fmt.Sprintf("%s expects exactly one child, got %d", e.Widget, e.Count)
}

// TargetResolutionError is returned when the child of an observer does not
// produce a concrete render object to observe.
type TargetResolutionError struct {
	// Widget is the child widget type name, if known.
	Widget string
	// Reason describes why resolution failed.
	Reason string
}

func (e *TargetResolutionError) Error() string {
	if e.Widget == "" {
		return fmt.Sprintf("cannot resolve observation target: %s", e.Reason)
	}
	return fmt.Sprintf("cannot resolve observation target from %s: %s", e.Widget, e.Reason)
}

// ConfigurationError is returned for malformed observer options.
type ConfigurationError struct {
	// Field is the offending option ("threshold" or "rootMargin").
	Field string
	// Value is the rejected value.
	Value any
	// Reason describes the constraint that was violated.
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// EntryShapeError is returned when a change entry delivered to a
// once-only observer carries no intersecting indicator.
type EntryShapeError struct {
	// Target is the element the entry was delivered for.
	Target any
}

func (e *EntryShapeError) Error() string {
	return "onlyOnce requires the change entry to report isIntersecting"
}

// KindOf classifies err by the first typed error found in its chain.
func KindOf(err error) ErrorKind {
	var (
		wrapped     *Error
		cardinality *ChildCardinalityError
		target      *TargetResolutionError
		config      *ConfigurationError
		shape       *EntryShapeError
		panicked    *PanicError
	)
	switch {
	case err == nil:
		return KindUnknown
	case stderrors.As(err, &wrapped):
		return wrapped.Kind
	case stderrors.As(err, &cardinality):
		return KindCardinality
	case stderrors.As(err, &target):
		return KindTarget
	case stderrors.As(err, &config):
		return KindConfiguration
	case stderrors.As(err, &shape):
		return KindEntryShape
	case stderrors.As(err, &panicked):
		return KindPanic
	default:
		return KindUnknown
	}
}

// As is errors.As, re-exported so callers importing this package under its
// own name keep access to the standard helpers.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Is is errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// ErrorHandler receives errors reported by the binding.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *Error)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
