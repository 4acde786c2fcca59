package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindNotFound        ErrorKind = "not_found"
	KindUpstream        ErrorKind = "upstream"
	KindGeneration      ErrorKind = "generation"
	KindEvaluation      ErrorKind = "evaluation"
	KindCreation        ErrorKind = "creation"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindConflict        ErrorKind = "conflict"
	KindInternal        ErrorKind = "internal"
)

// Kind sentinels. errors.Is(err, ErrNotFound) matches any *Error of that kind.
var (
	ErrValidation      = kindSentinel(KindValidation, "invalid input")
	ErrNotFound        = kindSentinel(KindNotFound, "resource not found")
	ErrUpstream        = kindSentinel(KindUpstream, "upstream service failed")
	ErrGeneration      = kindSentinel(KindGeneration, "question generation failed")
	ErrEvaluation      = kindSentinel(KindEvaluation, "answer evaluation failed")
	ErrCreation        = kindSentinel(KindCreation, "resource could not be created")
	ErrUnauthenticated = kindSentinel(KindUnauthenticated, "user not authenticated")
	ErrForbidden       = kindSentinel(KindForbidden, "action not allowed")
	ErrConflict        = kindSentinel(KindConflict, "resource was modified concurrently")
	ErrInternal        = kindSentinel(KindInternal, "internal server error")
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error

	matchKind bool
}

func kindSentinel(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message, matchKind: true}
}

func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e == t {
		return true
	}
	return t.matchKind && e.Kind == t.Kind
}

// KindOf reports the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of the first *Error in err's chain.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
