// Package errors provides the error taxonomy for crack operations.
// Every kind is fatal to the operation that raised it; nothing is retried.
package errors

import (
	"errors"
	"fmt"
)

// Kind represents different categories of errors
type Kind string

const (
	// KindInvalidDigestFormat is a malformed target digest string
	KindInvalidDigestFormat Kind = "invalid_digest_format"
	// KindCandidateTooLong is a candidate that does not fit a single SHA-256 block
	KindCandidateTooLong Kind = "candidate_too_long"
	// KindKernelBuild is a kernel that failed to build on the device
	KindKernelBuild Kind = "kernel_build"
	// KindDeviceDispatch is a failure during buffer allocation, enqueue or readback
	KindDeviceDispatch Kind = "device_dispatch"
	// KindInvalidConfig is a configuration validation failure
	KindInvalidConfig Kind = "invalid_config"
	// KindCanceled is an operation interrupted by its caller
	KindCanceled Kind = "canceled"
)

// Error represents a structured error with context
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Message)
}

// Unwrap returns the underlying cause for error unwrapping
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds additional context to the error
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New creates a new Error
func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// Wrap wraps an existing error with a kind and operation.
// Returns nil when err is nil.
func Wrap(err error, kind Kind, op, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

// KindOf returns the kind of the outermost *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind checks if any *Error in err's chain has the given kind
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetContext retrieves context from the outermost *Error in err's chain
func GetContext(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.Context
	}
	return nil
}
