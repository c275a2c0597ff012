package store

import (
	"fmt"
	"net/http"
)

// Error is a store error carrying the HTTP status it maps to.
type Error struct {
	Code    int
	Message string
	Err     error

	// base is the sentinel this error was derived from.
	base *Error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets derived errors match their sentinel, so ErrPostNotFound satisfies
// errors.Is(err, ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.base != nil && e.base == t
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Err: e.Err, base: e.root()}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err, base: e.root()}
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}
	return e
}

// Sentinel errors.
var (
	ErrNotFound      = &Error{Code: http.StatusNotFound, Message: "resource not found"}
	ErrAlreadyExists = &Error{Code: http.StatusConflict, Message: "resource already exists"}

	ErrPostNotFound    = ErrNotFound.WithMessage("post not found")
	ErrCommentNotFound = ErrNotFound.WithMessage("comment not found")
	ErrFolderNotFound  = ErrNotFound.WithMessage("folder not found")

	// ErrWriteConflict is returned when a batch lost an optimistic
	// concurrency race. None of its writes were applied.
	ErrWriteConflict = &Error{Code: http.StatusConflict, Message: "write conflict"}
)
