// Package errors provides structured error types for cooktop.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the resolver library and the CLI
//   - Machine-readable error codes for programmatic handling
//   - Conflict chains that explain, root cause first, why a resolution failed
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (malformed ranges, requests, recipes)
//   - *_CONFLICT: Constraint algebra and resolution failures
//   - *_FAILED: Build-side collaborator failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeVersionConflict, "cannot merge %s with %s", a, b)
//	if errors.Is(err, errors.ErrCodeVersionConflict) {
//	    // Handle the conflict
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFetchFailed, origErr, "downloading %s", url)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidRange   Code = "INVALID_RANGE"
	ErrCodeInvalidRequest Code = "INVALID_REQUEST"
	ErrCodeInvalidRecipe  Code = "INVALID_RECIPE"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"

	// Constraint algebra and resolution errors
	ErrCodeVersionConflict     Code = "VERSION_CONFLICT"
	ErrCodeRecipeNotFound      Code = "RECIPE_NOT_FOUND"
	ErrCodeDependencyConflict  Code = "DEPENDENCY_CONFLICT"
	ErrCodeAmbiguousVariant    Code = "AMBIGUOUS_VARIANT"
	ErrCodeCyclicDependency    Code = "CYCLIC_DEPENDENCY"
	ErrCodeUnresolvedSelection Code = "UNRESOLVED_SELECTION"

	// Build-side collaborator errors
	ErrCodeBuildFailed      Code = "BUILD_FAILED"
	ErrCodeFetchFailed      Code = "FETCH_FAILED"
	ErrCodeChecksumMismatch Code = "CHECKSUM_MISMATCH"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code, an optional cause, and an
// optional conflict chain describing the path that led to the failure.
type Error struct {
	Code    Code     // Machine-readable error code
	Message string   // Human-readable message
	Cause   error    // Underlying error (optional)
	Chain   Chain    // Diagnostic trail, root cause first (optional)
	Options []string // Choices that would fix the error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// WithChain attaches a diagnostic chain to the error and returns it.
// The chain is copied so later mutation by the caller does not leak in.
func (e *Error) WithChain(chain Chain) *Error {
	e.Chain = chain.Clone()
	return e
}

// WithOptions attaches the choices that would fix the error, e.g. the
// viable versions behind an AMBIGUOUS_VARIANT. Interactive callers can
// offer them instead of parsing the message.
func (e *Error) WithOptions(options ...string) *Error {
	e.Options = append([]string(nil), options...)
	return e
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetOptions extracts the attached choices from an error, if any.
func GetOptions(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Options
	}
	return nil
}

// GetChain extracts the conflict chain from an error, if available.
// It walks the cause chain and returns the first non-empty Chain found.
func GetChain(err error) Chain {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return nil
		}
		if len(e.Chain) > 0 {
			return e.Chain
		}
		err = e.Cause
	}
	return nil
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Chain is an ordered sequence of human-readable strings describing,
// root cause first, why a candidate was rejected during resolution.
// It is purely diagnostic and has no effect on resolution outcome.
type Chain []string

// Push appends a step to the chain and returns the extended chain.
// The receiver is not modified, so sibling branches can share a prefix.
func (c Chain) Push(format string, args ...any) Chain {
	next := make(Chain, len(c), len(c)+1)
	copy(next, c)
	return append(next, fmt.Sprintf(format, args...))
}

// Clone returns a copy of the chain.
func (c Chain) Clone() Chain {
	if c == nil {
		return nil
	}
	out := make(Chain, len(c))
	copy(out, c)
	return out
}

// String renders the chain one step per line, indented by depth.
func (c Chain) String() string {
	var b strings.Builder
	for i, step := range c {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat("  ", i))
		b.WriteString(step)
	}
	return b.String()
}
