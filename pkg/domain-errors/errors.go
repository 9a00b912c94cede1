// Package domainerrors defines the error taxonomy shared by all core
// components. Services return these; the transport layer translates codes to
// HTTP statuses in exactly one place.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers. Codes are part of the API contract:
// clients branch on them, so changing a code is a breaking change.
type Code string

const (
	// CodeInvalidCredential covers every authentication failure. It never
	// distinguishes "wrong secret" from "unknown account" to avoid
	// account enumeration.
	CodeInvalidCredential Code = "invalid_credential"

	// CodePermissionDenied means authenticated but not authorized, e.g. an
	// unverified organization submitting a data request. Non-retryable.
	CodePermissionDenied Code = "permission_denied"

	// CodeInvalidTransition is a state-machine violation, e.g. responding
	// to a request that is no longer pending. Non-retryable.
	CodeInvalidTransition Code = "invalid_transition"

	// CodeDuplicateName is a uniqueness violation on registration.
	CodeDuplicateName Code = "duplicate_name"

	// CodeNotFound means the referenced id does not exist in the caller's
	// scope.
	CodeNotFound Code = "not_found"

	// CodeBadRequest covers malformed or unparseable input.
	CodeBadRequest Code = "bad_request"

	// CodeInternal is an unexpected failure. Details stay in logs.
	CodeInternal Code = "internal"

	// CodeOracleUnavailable is internal only: the consent engine downgrades
	// it to a refer decision before any caller sees it.
	CodeOracleUnavailable Code = "oracle_unavailable"
)

// Error carries a code plus a human-readable message and an optional cause.
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

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/As inspection.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
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
		if err == nil {
			break
		}
	}
	return false
}

// CodeOf extracts the outermost domain code, defaulting to CodeInternal for
// non-domain errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the outermost domain message, with a generic fallback so
// internal details never leak to clients.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a domain code to its HTTP status. CodeOracleUnavailable
// maps to 500 defensively but must never reach the boundary.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidCredential:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeInvalidTransition, CodeDuplicateName:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
