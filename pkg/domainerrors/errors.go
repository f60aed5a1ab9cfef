// Package domainerrors defines the coded error taxonomy for the service.
//
// Services return these so transports can translate failures without string
// matching. Stores and infrastructure return pkg/sentinel errors instead and
// services wrap them into a coded error at the boundary. Every failure kind
// is surfaced distinctly; nothing is collapsed into a generic code.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeValidation marks a missing or malformed field for the requested
	// operation (empty rejection note, missing document number, bad payload).
	CodeValidation Code = "validation_error"
	// CodeInvalidTransition marks an actor/stage mismatch, a terminal state
	// re-entry, or a stale conditional update.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeMissingDependency marks render-time data that cannot be resolved
	// (applicant or household missing).
	CodeMissingDependency Code = "missing_dependency"
	// CodeTemplateNotFound marks a document type with no registered layout.
	CodeTemplateNotFound Code = "template_not_found"
	// CodeRenderingFailure marks an engine crash, malformed markup, or a
	// render timeout.
	CodeRenderingFailure Code = "rendering_failure"
	// CodeUnauthorized marks a role or ownership mismatch.
	CodeUnauthorized Code = "unauthorized"
	// CodeNotFound marks an entity that does not exist.
	CodeNotFound Code = "not_found"
	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal_error"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the user-facing message, defaulting to a generic one so
// internals never leak through transports.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeInvalidTransition:
		return http.StatusConflict
	case CodeMissingDependency:
		return http.StatusUnprocessableEntity
	case CodeTemplateNotFound:
		return http.StatusNotFound
	case CodeRenderingFailure:
		return http.StatusBadGateway
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
