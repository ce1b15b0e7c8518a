package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeInvalid           ErrorCode = "INVALID"
	ErrCodeInvalidDeadline   ErrorCode = "INVALID_DEADLINE"
	ErrCodeProjectIncomplete ErrorCode = "PROJECT_INCOMPLETE"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal          ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
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

// Common domain errors.
var (
	ErrTaskNotFound    = NewError(ErrCodeNotFound, "task not found")
	ErrProjectNotFound = NewError(ErrCodeNotFound, "project not found")
	ErrVersionConflict = NewError(ErrCodeConflict, "entity was modified concurrently")
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload  = NewError(ErrCodeInvalid, "invalid payload")
)

// TaskNotFound wraps ErrTaskNotFound with the missing id.
func TaskNotFound(id fmt.Stringer) error {
	return fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
}

// ProjectNotFound wraps ErrProjectNotFound with the missing id.
func ProjectNotFound(id fmt.Stringer) error {
	return fmt.Errorf("project %s: %w", id, ErrProjectNotFound)
}

// InvalidDeadline reports a violated task/project deadline ordering.
func InvalidDeadline(format string, args ...any) *Error {
	return NewError(ErrCodeInvalidDeadline, fmt.Sprintf(format, args...))
}

// ProjectCompletionError reports a completion attempt whose precondition does not hold.
func ProjectCompletionError(format string, args ...any) *Error {
	return NewError(ErrCodeProjectIncomplete, fmt.Sprintf(format, args...))
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// IsNotFound reports whether err classifies as a missing entity.
func IsNotFound(err error) bool {
	return IsDomainError(err, ErrCodeNotFound)
}
