// Package apperr classifies domain errors into the kinds the transport layer maps to status codes.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is an error class.
type Kind int

const (
	// KindDependency is a store, mail or SMS failure. Opaque to callers.
	KindDependency Kind = iota
	// KindValidation is missing or malformed input.
	KindValidation
	// KindConflict is a uniqueness or state-precondition violation.
	KindConflict
	// KindNotFound is a referenced entity that does not exist.
	KindNotFound
	// KindUnauthenticated is a missing credential.
	KindUnauthenticated
	// KindForbidden is an invalid credential or an insufficient role.
	KindForbidden
)

// Error carries a Kind, a caller-safe message and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error.
func E(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Validation returns a validation error with message.
func Validation(message string) *Error { return E(KindValidation, message, nil) }

// Dependency wraps a collaborator failure. The message is what callers see.
func Dependency(message string, cause error) *Error { return E(KindDependency, message, cause) }

// KindOf returns the Kind of the first *Error in err's chain, or KindDependency when there is none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindDependency
}

// Message returns the caller-safe message for err. Unclassified errors yield "Internal Server Error".
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "Internal Server Error"
}

// HTTPStatus maps err to an HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
