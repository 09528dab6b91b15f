// Package toolerrors provides a chainable error type for tool execution
// failures: sandbox escapes, subprocess timeouts, missing files. Tool
// errors are returned as tool results and surfaced to the agent — they
// are not fatal to a run (see spec's ToolError classification).
package toolerrors

import "fmt"

// ToolError is a tool-execution failure with an optional wrapped cause,
// forming a chain inspectable via errors.Is/errors.As.
type ToolError struct {
	Message string
	Cause   *ToolError
}

// New creates a ToolError with no cause.
func New(message string) *ToolError {
	return &ToolError{Message: message}
}

// NewWithCause creates a ToolError wrapping an existing error. If cause
// is itself a *ToolError, it is chained directly; otherwise it is
// flattened into a leaf ToolError carrying cause's message.
func NewWithCause(message string, cause error) *ToolError {
	if cause == nil {
		return New(message)
	}
	if te, ok := cause.(*ToolError); ok {
		return &ToolError{Message: message, Cause: te}
	}
	return &ToolError{Message: message, Cause: &ToolError{Message: cause.Error()}}
}

// FromError converts any error into a *ToolError, passing through
// existing ToolErrors unchanged.
func FromError(err error) *ToolError {
	if err == nil {
		return nil
	}
	if te, ok := err.(*ToolError); ok {
		return te
	}
	return New(err.Error())
}

// Errorf creates a ToolError with a formatted message.
func Errorf(format string, args ...any) *ToolError {
	return New(fmt.Sprintf(format, args...))
}

func (e *ToolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap exposes the cause for errors.Is/errors.As.
func (e *ToolError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}
