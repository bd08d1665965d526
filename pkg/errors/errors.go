package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code, so errors.Is(err, ErrNotFound) holds for clones.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrUpstream           = New("UPSTREAM_ERROR", http.StatusBadGateway, "school API request failed")
	ErrTermClosed         = New("TERM_CLOSED", http.StatusConflict, "el trimestre está cerrado")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

var sentinels = map[string]*Error{}

func init() {
	for _, e := range []*Error{ErrNotFound, ErrForbidden, ErrUnauthorized, ErrConflict, ErrPreconditionFailed, ErrValidation, ErrInternal, ErrUpstream, ErrTermClosed, ErrCacheMiss} {
		sentinels[e.Code] = e
	}
}

// IsDefaultMessage reports whether e still carries the stock message of its code, i.e. no
// caller or upstream supplied a more specific one.
func IsDefaultMessage(e *Error) bool {
	if e == nil {
		return false
	}
	base, ok := sentinels[e.Code]
	return ok && base.Message == e.Message
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// HasCode reports whether err normalises to the given code.
func HasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// FromStatus maps an upstream HTTP status onto the local taxonomy, keeping the upstream message.
func FromStatus(status int, message string) *Error {
	var base *Error
	switch {
	case status == http.StatusNotFound:
		base = ErrNotFound
	case status == http.StatusForbidden:
		base = ErrForbidden
	case status == http.StatusUnauthorized:
		base = ErrUnauthorized
	case status == http.StatusConflict:
		base = ErrConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		base = ErrValidation
	default:
		base = ErrUpstream
	}
	return Clone(base, message)
}
