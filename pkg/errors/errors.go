// Package errors defines the typed business failures the core services
// return and the HTTP statuses the web layer maps them to.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a business failure.
type Kind string

const (
	// KindNotFound means a referenced user, account, or transaction does not exist.
	KindNotFound Kind = "not_found"
	// KindAlreadyExists means a unique key (email, phone, account number) is taken.
	KindAlreadyExists Kind = "already_exists"
	// KindInvalidOperation means a business rule other than a funds shortfall
	// was violated: inactive account, currency mismatch, non-positive amount.
	KindInvalidOperation Kind = "invalid_operation"
	// KindInsufficientFunds means the debited account's balance is less than
	// the requested amount.
	KindInsufficientFunds Kind = "insufficient_funds"
	// KindUnauthorized means the caller could not be authenticated.
	KindUnauthorized Kind = "unauthorized"
	// KindInternal is everything else.
	KindInternal Kind = "internal"
)

// Error is a business failure with a kind and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

var _ error = (*Error)(nil)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two Errors by kind so callers can use errors.Is with a bare kind
// sentinel, e.g. errors.Is(err, &Error{Kind: KindNotFound}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !stderrors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// NotFound creates a not-found failure.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExists creates a duplicate-key failure.
func AlreadyExists(format string, args ...any) *Error {
	return &Error{Kind: KindAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

// InvalidOperation creates a business-rule failure.
func InvalidOperation(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidOperation, Message: fmt.Sprintf(format, args...)}
}

// InsufficientFunds creates a funds-shortfall failure.
func InsufficientFunds(format string, args ...any) *Error {
	return &Error{Kind: KindInsufficientFunds, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates an authentication failure.
func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected error.
func Internal(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error kind to the status the web layer responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists:
		return http.StatusConflict
	case KindInvalidOperation, KindInsufficientFunds:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
