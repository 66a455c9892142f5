// Package apperr defines the error taxonomy shared by every workflow component.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidArgument        Kind = "INVALID_ARGUMENT"
	KindNotFound               Kind = "NOT_FOUND"
	KindForbidden              Kind = "FORBIDDEN"
	KindInvalidStateTransition Kind = "INVALID_STATE_TRANSITION"
	KindConflict               Kind = "CONFLICT"
	KindDependencyFailure      Kind = "DEPENDENCY_FAILURE"
	KindInternal               Kind = "INTERNAL"
)

// Error is a classified failure. Code is a stable machine-readable reason,
// Message is meant for humans.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind and code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Newf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(err error, kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Err: err}
}

func InvalidArgument(code, msg string) *Error { return New(KindInvalidArgument, code, msg) }
func NotFound(code, msg string) *Error        { return New(KindNotFound, code, msg) }
func Forbidden(code, msg string) *Error       { return New(KindForbidden, code, msg) }
func Conflict(code, msg string) *Error        { return New(KindConflict, code, msg) }

func InvalidTransition(code, msg string) *Error {
	return New(KindInvalidStateTransition, code, msg)
}

func Dependency(err error, code, msg string) *Error {
	return Wrap(err, KindDependencyFailure, code, msg)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
