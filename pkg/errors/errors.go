package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable machine-readable error identifier returned to clients.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// Booking domain.
	CodeInvalidDateRange Code = "INVALID_DATE_RANGE"
	CodeUnknownProduct   Code = "UNKNOWN_PRODUCT"
	CodeCapacityExceeded Code = "CAPACITY_EXCEEDED"
	CodeAlreadyBlocked   Code = "ALREADY_BLOCKED"
)

// Metadata controls how a Code is rendered over HTTP.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

// open codes may surface their details payload; sealed codes never do.
func open(status int, msg string) Metadata {
	return Metadata{HTTPStatus: status, PublicMessage: msg, DetailsAllowed: true}
}

func sealed(status int, msg string) Metadata {
	return Metadata{HTTPStatus: status, PublicMessage: msg}
}

func (m Metadata) retryable() Metadata {
	m.Retryable = true
	return m
}

var catalog = map[Code]Metadata{
	CodeValidation:       open(http.StatusBadRequest, "validation failed"),
	CodeInvalidDateRange: open(http.StatusBadRequest, "invalid date range"),
	CodeUnknownProduct:   open(http.StatusBadRequest, "unknown product"),
	CodeCapacityExceeded: open(http.StatusConflict, "requested dates are not available"),
	CodeAlreadyBlocked:   open(http.StatusConflict, "date already blocked"),
	CodeStateConflict:    open(http.StatusUnprocessableEntity, "state transition disallowed"),
	CodeIdempotency:      open(http.StatusConflict, "idempotency key reused"),
	CodeDependency:       open(http.StatusServiceUnavailable, "dependency unavailable").retryable(),

	CodeUnauthorized: sealed(http.StatusUnauthorized, "authentication required"),
	CodeForbidden:    sealed(http.StatusForbidden, "access denied"),
	CodeNotFound:     sealed(http.StatusNotFound, "resource not found"),
	CodeConflict:     sealed(http.StatusConflict, "conflict detected"),
	CodeRateLimit:    sealed(http.StatusTooManyRequests, "rate limit exceeded"),
	CodeInternal:     sealed(http.StatusInternalServerError, "internal server error").retryable(),
}

// MetadataFor falls back to CodeInternal for unregistered codes.
func MetadataFor(code Code) Metadata {
	meta, ok := catalog[code]
	if !ok {
		return catalog[CodeInternal]
	}
	return meta
}

// Error is a coded failure with a caller-facing message, optional structured
// details and an optional wrapped cause that never leaves the process.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf formats the message like fmt.Sprintf.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches cause to a new coded error. A nil cause behaves like New.
func Wrap(code Code, cause error, message string) *Error {
	e := New(code, message)
	e.cause = cause
	return e
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets the payload rendered under "details" and returns e.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause == nil:
		return string(e.code) + ": " + e.message
	default:
		return string(e.code) + ": " + e.message + ": " + e.cause.Error()
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// Is reports whether the outermost coded error in err's chain has code.
func Is(err error, code Code) bool {
	if typed := As(err); typed != nil {
		return typed.code == code
	}
	return false
}

// CodeOf returns the code of the outermost coded error, or CodeInternal.
func CodeOf(err error) Code {
	return As(err).Code()
}
