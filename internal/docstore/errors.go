package docstore

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies store errors
type Kind string

const (
	KindInvalidInput     Kind = "invalid_input"
	KindAlreadyExists    Kind = "already_exists"
	KindNotFound         Kind = "not_found"
	KindStoreUnavailable Kind = "store_unavailable"
)

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
	ErrAlreadyExists    = &Error{Kind: KindAlreadyExists}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable}
)

// Error is returned by every Store operation
type Error struct {
	Kind    Kind
	Op      string
	ID      string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		if e.ID != "" {
			parts = append(parts, fmt.Sprintf("%s %q", e.Op, e.ID))
		} else {
			parts = append(parts, e.Op)
		}
	}

	parts = append(parts, string(e.Kind))

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// KindOf returns the Kind of a store error, or "" for other errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, op, id, message string) *Error {
	return &Error{Kind: kind, Op: op, ID: id, Message: message}
}

func unavailable(op, id, message string, cause error) *Error {
	return &Error{Kind: KindStoreUnavailable, Op: op, ID: id, Message: message, Cause: cause}
}
