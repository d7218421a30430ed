// Package errors provides structured error handling for vireo's boundary
// layer. Every failure that crosses back to a host runtime is one of the
// typed categories below, so callers can match on the category instead of
// parsing messages.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	// ErrorTypeInternal represents internal invariant violations.
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents argument validation errors.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeCalendar represents impossible date/time field combinations.
	ErrorTypeCalendar ErrorType = "calendar"
	// ErrorTypeUnsupportedType represents a logical type with no defined encoding.
	ErrorTypeUnsupportedType ErrorType = "unsupported_type"
	// ErrorTypeConfig represents configuration errors, e.g. an out-of-range
	// compression level.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeInvalidated represents use of a resource handle after release.
	// Unlike the other categories this one is fatal for the resource.
	ErrorTypeInvalidated ErrorType = "invalidated"
	// ErrorTypeData represents data processing errors from the engine.
	ErrorTypeData ErrorType = "data"
	// ErrorTypeIO represents file encode/decode errors.
	ErrorTypeIO ErrorType = "io"
)

// Error represents a structured error with context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns a detail value previously attached with WithDetail.
func (e *Error) Detail(key string) (interface{}, bool) {
	v, ok := e.Details[key]
	return v, ok
}

// New creates a new error with the given type and message.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// IsRecoverable reports whether the caller may keep using the resources
// involved. Everything except resource invalidation is recoverable per call.
func IsRecoverable(err error) bool {
	return !IsType(err, ErrorTypeInvalidated)
}

// captureStack captures the current call stack.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
