package errors

import (
	"errors"
	"fmt"
)

// Error types for different failure domains
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeStructural     ErrorType = "structural"
	ErrorTypeInternal       ErrorType = "internal"
	ErrorTypeInfrastructure ErrorType = "infrastructure"
	ErrorTypeNotFound       ErrorType = "not_found"
)

// AppError represents a structured application error
type AppError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Retryable bool                   `json:"retryable"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// NewStructuralError marks input that is fundamentally unusable, such as a
// table with no entity or amount column. Structural errors abort the batch.
func NewStructuralError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeStructural,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:      ErrorTypeNotFound,
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("%s not found", resource),
		Retryable: false,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeInternal,
		Code:      "INTERNAL_ERROR",
		Message:   message,
		Retryable: true,
	}
}

func NewInfrastructureError(component, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeInfrastructure,
		Code:      "INFRASTRUCTURE_ERROR",
		Message:   fmt.Sprintf("%s: %s", component, message),
		Retryable: true,
		Details:   map[string]interface{}{"component": component},
	}
}

// Predefined common errors
var (
	ErrInvalidInput    = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrNoEntityColumn  = NewStructuralError("NO_ENTITY_COLUMN", "Input has no entity identifier column")
	ErrNoAmountColumn  = NewStructuralError("NO_AMOUNT_COLUMN", "Input has no amount column")
	ErrEmptyInput      = NewStructuralError("EMPTY_INPUT", "Input table has no rows")
	ErrDatasetNotFound = NewNotFoundError("dataset")
	ErrUnknownFormat   = NewValidationError("UNKNOWN_FORMAT", "Unknown output format")
)

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapWithCode wraps an error and returns an AppError
func WrapWithCode(err error, code, message string) *AppError {
	appErr := NewInternalError(message).WithCause(err)
	appErr.Code = code
	return appErr
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
