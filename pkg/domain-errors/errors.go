// Package domainerrors provides coded errors that travel from services to
// transport without the transport inspecting error strings.
//
// Stores return infrastructure sentinels (pkg/platform/sentinel); services
// translate those into coded domain errors; the HTTP layer maps codes to
// status lines. Codes are part of the API surface, messages are not.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for propagation policy and HTTP mapping.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation"
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeTimeout      Code = "timeout"

	// CodeUnavailable marks infrastructure failures (store unreachable,
	// query failed). Never folded into not_found.
	CodeUnavailable Code = "unavailable"

	// CodeInvariantViolation marks data corruption detected at runtime,
	// e.g. two current report rows for one player. Surfaced loudly,
	// never auto-corrected.
	CodeInvariantViolation Code = "invariant_violation"

	CodeInternal Code = "internal_error"
)

// Error is a coded domain error, optionally wrapping a cause.
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

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error wrapping an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// Is allows comparison against another domain error by code.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the outermost code, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the outermost message, or empty when err is not coded.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
