package models

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("requested resource not found")
var ErrForbidden = errors.New("user does not have permission to access this resource")
var ErrConflict = errors.New("resource was modified concurrently or already exists")

// ErrValidation is matched by every ValidationError and TransitionError.
var ErrValidation = errors.New("validation failed")

var ErrAlreadyReviewed = fmt.Errorf("order has already been reviewed: %w", ErrConflict)
var ErrApplicationExists = fmt.Errorf("provider application already submitted: %w", ErrConflict)

// ValidationError is a recoverable input error. The entity it concerns is left unchanged.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(code, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError builds a ValidationError for callers outside this package.
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// TransitionError reports a status change the order state machine does not allow.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrValidation
}

// ErrorCode returns the machine-readable code of a validation failure, or "" for other errors.
func ErrorCode(err error) string {
	var transitionErr *TransitionError
	if errors.As(err, &transitionErr) {
		return "INVALID_TRANSITION"
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Code
	}
	return ""
}
