package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeInvalid          ErrorCode = "INVALID"
	ErrCodeMalformed        ErrorCode = "MALFORMED"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeWriteFailed      ErrorCode = "WRITE_FAILED"
	ErrCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeConflict         ErrorCode = "CONFLICT"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal         ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. Message is safe to show to callers;
// Err carries the underlying cause for logs only.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors carrying the same code and message, so wrapped copies of
// the sentinels below compare equal with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap attaches a cause to a sentinel without changing its code or message.
func (e *Error) Wrap(err error) *Error {
	return WrapError(e.Code, e.Message, err)
}

var (
	ErrInvalidJSON         = NewError(ErrCodeMalformed, "Invalid JSON body")
	ErrMissingFields       = NewError(ErrCodeInvalid, "Missing required fields: application_id, task_type, due_at")
	ErrInvalidTaskType     = NewError(ErrCodeInvalid, "Invalid task_type. Must be one of: "+TaskTypeList())
	ErrInvalidDueAt        = NewError(ErrCodeInvalid, "Invalid due_at. Must be a valid date in the future.")
	ErrApplicationNotFound = NewError(ErrCodeNotFound, "Application not found.")
	ErrTaskNotFound        = NewError(ErrCodeNotFound, "Task not found.")
	ErrCreateTaskFailed    = NewError(ErrCodeWriteFailed, "Failed to create task.")
	ErrUpdateTaskFailed    = NewError(ErrCodeWriteFailed, "Failed to update task.")
	ErrMethodNotAllowed    = NewError(ErrCodeMethodNotAllowed, "Method not allowed")
	ErrMutationInFlight    = NewError(ErrCodeConflict, "Another task update is in progress.")
	ErrUnauthorized        = NewError(ErrCodeUnauthorized, "Unauthorized")
	ErrInternal            = NewError(ErrCodeInternal, "Internal server error")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// AsError extracts the outermost domain error, falling back to ErrInternal
// wrapping err when none is present.
func AsError(err error) *Error {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr
	}
	return ErrInternal.Wrap(err)
}
