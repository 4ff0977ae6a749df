// Package apperr defines the closed set of error kinds surfaced by the API.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is a machine-readable error category.
type Kind int

const (
	// StoreFailure is an unexpected store or internal error. It is the zero
	// value so unclassified errors never map to a client error.
	StoreFailure Kind = iota
	// Unauthenticated covers missing, invalid or revoked tokens and unknown users.
	Unauthenticated
	// ValidationFailure covers missing fields, bad input and uniqueness violations.
	ValidationFailure
	// NotFound covers resources that do not exist or are not owned by the caller.
	NotFound
	// RateLimited is returned when a client exceeds its request budget.
	RateLimited
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case ValidationFailure:
		return "validation_failure"
	case NotFound:
		return "not_found"
	case RateLimited:
		return "rate_limited"
	default:
		return "store_failure"
	}
}

// HTTPStatus maps the kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case ValidationFailure:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Message is for logs, never for clients.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or
// StoreFailure when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return StoreFailure
}
