package library

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error kind.
type Code string

const (
	CodeNotFound            Code = "NOT_FOUND"
	CodeDuplicateID         Code = "DUPLICATE_ID"
	CodeInvalidFineInput    Code = "INVALID_FINE_INPUT"
	CodeResourceNotIssued   Code = "RESOURCE_NOT_ISSUED"
	CodeEmptyStack          Code = "EMPTY_STACK"
	CodeResourceUnavailable Code = "RESOURCE_UNAVAILABLE"
	CodeNotOnTop            Code = "NOT_ON_TOP"
)

// Error is a domain error carrying a Code. Two errors match under errors.Is
// when their codes are equal, so callers compare against the Err* sentinels.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

var (
	ErrNotFound            = &Error{Code: CodeNotFound, Message: "not found"}
	ErrDuplicateID         = &Error{Code: CodeDuplicateID, Message: "duplicate id"}
	ErrInvalidFineInput    = &Error{Code: CodeInvalidFineInput, Message: "invalid fine input"}
	ErrResourceNotIssued   = &Error{Code: CodeResourceNotIssued, Message: "resource not issued"}
	ErrEmptyStack          = &Error{Code: CodeEmptyStack, Message: "no resources issued"}
	ErrResourceUnavailable = &Error{Code: CodeResourceUnavailable, Message: "resource unavailable"}
	ErrNotOnTop            = &Error{Code: CodeNotOnTop, Message: "resource not on top of the issued stack"}
)

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func resourceNotFound(id int64) error {
	return newError(CodeNotFound, "resource %d not found", id)
}

func memberNotFound(id int64) error {
	return newError(CodeNotFound, "member %d not found", id)
}
