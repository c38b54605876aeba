package types

import (
	"errors"
	"fmt"
)

// ValidationError reports invalid launch declarations or argument values.
// The CLI maps it to a usage exit code.
type ValidationError struct {
	Message string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError with the given message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
	}
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// WrapValidationError prefixes err with context, keeping it a ValidationError.
func WrapValidationError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	message := fmt.Sprintf(format, args...)
	var ve *ValidationError
	if errors.As(err, &ve) {
		return &ValidationError{
			Message: fmt.Sprintf("%s: %s", message, ve.Message),
		}
	}

	return &ValidationError{
		Message: fmt.Sprintf("%s: %v", message, err),
	}
}
