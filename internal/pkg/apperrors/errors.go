package apperrors

import "errors"

// Common errors
var (
	// Business-rule violations: not-found, not-yours, blank field and bad enum
	// value all fold into this one kind and differ only by message.
	ErrInvalidArgument = errors.New("invalid argument")

	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")

	// Authentication errors
	ErrUnauthenticated = errors.New("authentication required")
)

// NewInvalidArgumentError creates a new custom error for a business-rule violation with a message
func NewInvalidArgumentError(message string) error {
	return &CustomError{
		Err:     ErrInvalidArgument,
		Message: message,
	}
}

// IsInvalidArgument reports whether err is (or wraps) an InvalidArgument error
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}
