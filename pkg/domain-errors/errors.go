// Package domainerrors defines the typed error taxonomy shared by services,
// the coordination hub, and the HTTP transport. Services return these instead
// of raw infrastructure errors so callers can branch on a stable code.
package domainerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies a class of failure. Codes are stable and safe to put on the
// wire; messages are for humans and may change.
type Code string

const (
	// CodeValidationFailed covers bad user input. Violations lists every
	// offending field, not just the first.
	CodeValidationFailed Code = "validation_failed"
	// CodeNotFound means the referenced visitor does not exist.
	CodeNotFound Code = "not_found"
	// CodeInvalidState means the visitor exists but is not in a state the
	// requested operation accepts.
	CodeInvalidState Code = "invalid_state"
	// CodeInvalidTransition is the engine-level refusal of a lifecycle
	// trigger. Handlers pre-check state, so seeing this usually indicates a
	// handler bug, but it is still surfaced as a typed error.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeInvalidPayload means a wire event could not be decoded.
	CodeInvalidPayload Code = "invalid_payload"
	// CodeConflict is an optimistic-concurrency loss on persistence.
	CodeConflict Code = "conflict"
	// CodeTimeout means the operation exceeded its deadline.
	CodeTimeout Code = "timeout"
	// CodeInternal is the opaque catch-all. The message must never leak
	// internal detail; the real cause is logged where it happened.
	CodeInternal Code = "internal"
)

// Violation is a single field-level validation failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed error carried across layer boundaries.
type Error struct {
	Code       Code
	Message    string
	Violations []Violation
	cause      error
}

func (e *Error) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an error with a code and a human-readable message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a cause while keeping the typed code. The cause is available
// via errors.Unwrap for logging but is not part of the message.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// NewValidation builds a validation_failed error carrying every violation.
func NewValidation(violations []Violation) *Error {
	return &Error{
		Code:       CodeValidationFailed,
		Message:    "validation failed",
		Violations: violations,
	}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for untyped
// errors so unexpected faults stay opaque to callers.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
